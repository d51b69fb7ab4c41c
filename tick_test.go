package clmm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTickApplyLiquidityDeltaLowerAndUpperSigns(t *testing.T) {
	lower := newTick(-60)
	require.NoError(t, lower.applyLiquidityDelta(u128FromU64(100), false, false))
	require.Equal(t, "100", lower.LiquidityGross.String())
	require.Equal(t, 1, lower.LiquidityNet.Sign())

	upper := newTick(60)
	require.NoError(t, upper.applyLiquidityDelta(u128FromU64(100), false, true))
	require.Equal(t, "100", upper.LiquidityGross.String())
	require.Equal(t, -1, upper.LiquidityNet.Sign())
}

func TestTickApplyLiquidityDeltaUnderflow(t *testing.T) {
	tick := newTick(0)
	err := tick.applyLiquidityDelta(u128FromU64(1), true, false)
	require.ErrorIs(t, err, ErrLiquidityUnderflow)
}

func TestTickIsEmptyAfterGrossReturnsToZero(t *testing.T) {
	tick := newTick(0)
	require.NoError(t, tick.applyLiquidityDelta(u128FromU64(50), false, false))
	require.False(t, tick.isEmpty())
	require.NoError(t, tick.applyLiquidityDelta(u128FromU64(50), true, false))
	require.True(t, tick.isEmpty())
}

func TestTickSeedOutsideGrowthOnlyWhenAtOrAboveCurrent(t *testing.T) {
	globalA := growthFromU128(u128FromU64(500))
	globalB := growthFromU128(u128FromU64(700))
	var rg [RewarderCount]GrowthAccumulator

	below := newTick(60)
	below.seedOutsideGrowth(0, globalA, globalB, rg)
	require.True(t, below.FeeGrowthOutsideA.U128().IsZero())

	atOrAbove := newTick(0)
	atOrAbove.seedOutsideGrowth(0, globalA, globalB, rg)
	require.Equal(t, "500", atOrAbove.FeeGrowthOutsideA.U128().String())
	require.Equal(t, "700", atOrAbove.FeeGrowthOutsideB.U128().String())
}

func TestTickCrossFlipsOutsideToGlobalMinusOutside(t *testing.T) {
	tick := newTick(0)
	tick.FeeGrowthOutsideA = growthFromU128(u128FromU64(200))
	globalA := growthFromU128(u128FromU64(500))
	globalB := zeroGrowth()
	var rg [RewarderCount]GrowthAccumulator

	require.NoError(t, tick.applyLiquidityDelta(u128FromU64(10), false, false))
	net := tick.cross(globalA, globalB, rg)

	require.Equal(t, "300", tick.FeeGrowthOutsideA.U128().String())
	require.Equal(t, 1, net.Sign())
}

func TestTickManagerEnsureCreatesOnceAndMarksDirectory(t *testing.T) {
	tm := newTickManager(60)
	tick, created := tm.ensure(120)
	require.True(t, created)
	require.True(t, tm.directory.isSet(120))

	same, created2 := tm.ensure(120)
	require.False(t, created2)
	require.Same(t, tick, same)
}

func TestTickManagerClearUnmarksDirectory(t *testing.T) {
	tm := newTickManager(60)
	tm.ensure(120)
	tm.clear(120)
	_, ok := tm.get(120)
	require.False(t, ok)
	require.False(t, tm.directory.isSet(120))
}

func TestFeeGrowthInsideRangeStraddlingCurrent(t *testing.T) {
	tm := newTickManager(60)
	lower, _ := tm.ensure(-60)
	upper, _ := tm.ensure(60)

	globalA := growthFromU128(u128FromU64(1000))
	globalB := zeroGrowth()

	insideA, _ := tm.feeGrowthInside(lower, upper, 0, globalA, globalB)
	// Both outsides are zero (freshly created, never crossed), so
	// inside == global when tick_current sits inside [lower, upper).
	require.Equal(t, "1000", insideA.U128().String())
}
