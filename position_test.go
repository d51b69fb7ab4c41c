package clmm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositionIsEmptyRequiresZeroEverything(t *testing.T) {
	pos := newPosition(1, testOwner, -60, 60)
	require.True(t, pos.isEmpty())

	pos.Liquidity = u128FromU64(1)
	require.False(t, pos.isEmpty())
	pos.Liquidity = u128Zero

	pos.FeeOwedA = 5
	require.False(t, pos.isEmpty())
	pos.FeeOwedA = 0

	pos.RewardOwed[1] = 3
	require.False(t, pos.isEmpty())
	pos.RewardOwed[1] = 0
	require.True(t, pos.isEmpty())
}

func TestRefreshAccruesFeeProportionalToLiquidity(t *testing.T) {
	tm := newTickManager(60)
	lower, _ := tm.ensure(-60)
	upper, _ := tm.ensure(60)

	pos := newPosition(1, testOwner, -60, 60)
	pos.Liquidity = u128FromU64(1000)

	globalA := growthFromU128(oneTokenPerSecond())
	globalB := zeroGrowth()
	var rg [RewarderCount]GrowthAccumulator

	err := refresh(pos, lower, upper, tm, 0, globalA, globalB, rg)
	require.NoError(t, err)
	// growth_inside == global (fresh ticks, tick_current inside range):
	// accrued = liquidity * diff >> 64 = 1000 * 1 = 1000.
	require.Equal(t, uint64(1000), pos.FeeOwedA)
	require.Equal(t, uint64(0), pos.FeeOwedB)

	// A second refresh with no further global movement accrues nothing more.
	err = refresh(pos, lower, upper, tm, 0, globalA, globalB, rg)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), pos.FeeOwedA)
}

func TestRefreshSkipsOutOfRangePositionGrowth(t *testing.T) {
	tm := newTickManager(60)
	lower, _ := tm.ensure(120)
	upper, _ := tm.ensure(180)

	pos := newPosition(1, testOwner, 120, 180)
	pos.Liquidity = u128FromU64(1000)

	globalA := growthFromU128(u128FromU64(5000))
	globalB := zeroGrowth()
	var rg [RewarderCount]GrowthAccumulator

	// tick_current (0) is below the whole range, so growth_inside is zero:
	// below(lower) == global (since tickCurrent < lower.Index) cancels out.
	err := refresh(pos, lower, upper, tm, 0, globalA, globalB, rg)
	require.NoError(t, err)
	require.Equal(t, uint64(0), pos.FeeOwedA)
}

func TestPositionViewMatchesFields(t *testing.T) {
	pos := newPosition(7, testOwner, -120, 120)
	pos.Liquidity = u128FromU64(42)
	pos.FeeOwedA = 3
	pos.RewardOwed[2] = 9

	view := pos.view()
	require.Equal(t, PositionIndex(7), view.Index)
	require.Equal(t, int32(-120), view.TickLower)
	require.Equal(t, int32(120), view.TickUpper)
	require.Equal(t, "42", view.Liquidity.String())
	require.Equal(t, uint64(3), view.FeeOwedA)
	require.Equal(t, uint64(9), view.RewardOwed[2])
}
