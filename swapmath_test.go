package clmm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeSwapStepExactInPartialFill(t *testing.T) {
	sqrtLower, err := GetSqrtPriceAtTick(-600)
	require.NoError(t, err)
	sqrtCurrent, err := GetSqrtPriceAtTick(0)
	require.NoError(t, err)
	liquidity := u128FromU64(1_000_000_000)

	step, err := ComputeSwapStep(sqrtCurrent, sqrtLower, liquidity, 1_000, 3000, true, true)
	require.NoError(t, err)
	require.Greater(t, step.AmountIn, uint64(0))
	require.GreaterOrEqual(t, step.FeeAmount, uint64(0))
	require.True(t, step.SqrtPriceNext.Cmp(sqrtCurrent) <= 0)
	require.True(t, step.SqrtPriceNext.Cmp(sqrtLower) >= 0)
}

func TestComputeSwapStepRejectsWrongDirection(t *testing.T) {
	sqrtCurrent, err := GetSqrtPriceAtTick(0)
	require.NoError(t, err)
	sqrtHigher, err := GetSqrtPriceAtTick(600)
	require.NoError(t, err)
	liquidity := u128FromU64(1_000_000_000)

	// aToB=true requires target <= current; passing a higher target must fail.
	_, err = ComputeSwapStep(sqrtCurrent, sqrtHigher, liquidity, 1_000, 3000, true, true)
	require.ErrorIs(t, err, ErrWrongSqrtPriceLimit)
}

func TestComputeSwapStepRejectsInvalidFeeRate(t *testing.T) {
	sqrtCurrent, err := GetSqrtPriceAtTick(0)
	require.NoError(t, err)
	sqrtLower, err := GetSqrtPriceAtTick(-600)
	require.NoError(t, err)
	liquidity := u128FromU64(1_000_000_000)

	_, err = ComputeSwapStep(sqrtCurrent, sqrtLower, liquidity, 1_000, MaxFeeRate+1, true, true)
	require.ErrorIs(t, err, ErrInvalidFeeRate)
}

func TestComputeSwapStepZeroLiquidityJumpsToTarget(t *testing.T) {
	sqrtCurrent, err := GetSqrtPriceAtTick(0)
	require.NoError(t, err)
	sqrtLower, err := GetSqrtPriceAtTick(-600)
	require.NoError(t, err)

	step, err := ComputeSwapStep(sqrtCurrent, sqrtLower, u128Zero, 1_000, 3000, true, true)
	require.NoError(t, err)
	require.Equal(t, sqrtLower, step.SqrtPriceNext)
	require.Equal(t, uint64(0), step.AmountIn)
	require.Equal(t, uint64(0), step.AmountOut)
}

// TestComputeSwapStepPinnedPartialFill pins the exact partial-fill amounts:
// 20_000 remaining at fee_rate=1000 (0.1%) nets to
// floor(20_000*999_000/1_000_000) == 19_980 before the liquidity is even
// consulted, so ample liquidity (here 10^12) guarantees the partial-fill
// branch and leaves fee_amount == 20_000-19_980 == 20 exactly.
func TestComputeSwapStepPinnedPartialFill(t *testing.T) {
	sqrtCurrent, err := GetSqrtPriceAtTick(0)
	require.NoError(t, err)
	sqrtLower, err := GetSqrtPriceAtTick(-10)
	require.NoError(t, err)
	liquidity := u128FromU64(1_000_000_000_000)

	step, err := ComputeSwapStep(sqrtCurrent, sqrtLower, liquidity, 20_000, 1000, true, true)
	require.NoError(t, err)
	require.Equal(t, uint64(19_980), step.AmountIn)
	require.Equal(t, uint64(20), step.FeeAmount)
	require.InDelta(t, 19_979, step.AmountOut, 2)
	require.True(t, step.SqrtPriceNext.Cmp(sqrtCurrent) < 0)
}
