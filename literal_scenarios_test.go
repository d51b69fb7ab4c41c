package clmm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// newScenarioPool builds a pool with an arbitrary tick spacing/fee rate,
// used by the literal-scenario tests below where the shared 60-spacing
// newTestPool harness doesn't fit the exact ticks a scenario needs.
func newScenarioPool(t *testing.T, tickSpacing int32, feeRate uint32) (*Pool, *fakeVault, *fakeClock) {
	t.Helper()
	vault := newFakeVault()
	clock := &fakeClock{now: 1_000}
	cfg := PoolConfig{
		Address:           testPool,
		TokenA:            testTokenA,
		TokenB:            testTokenB,
		TickSpacing:       tickSpacing,
		FeeRate:           feeRate,
		Vault:             vault,
		Clock:             clock,
		ACL:               openACL{},
		ProtocolFeeSource: zeroProtocolFee{},
	}
	sqrtAtZero, err := GetSqrtPriceAtTick(0)
	require.NoError(t, err)
	pool, err := CreatePool(cfg, testOwner, "scenario", sqrtAtZero)
	require.NoError(t, err)
	vault.balances[testTokenA] = 1_000_000_000_000
	vault.balances[testTokenB] = 1_000_000_000_000
	return pool, vault, clock
}

// TestLiteralScenarioS3TickCross pins the exact liquidity_net cancellation
// and fee_growth_outside_b seeding at a real tick cross: two adjacent
// positions [-10,10] and [10,20], each at the same liquidity, contribute
// +L and -L to tick 10's liquidity_net, so crossing it leaves
// liquidity_active unchanged; and since tick 10 was created while
// tick_current (0) sat below it, its outside growth was seeded to zero, so
// crossing flips it to exactly the current global value.
func TestLiteralScenarioS3TickCross(t *testing.T) {
	pool, _, _ := newScenarioPool(t, 1, 1000)

	idx1, err := pool.OpenPosition(testOwner, -10, 10)
	require.NoError(t, err)
	r1, err := pool.AddLiquidity(testOwner, idx1, u128FromU64(1_000_000_000))
	require.NoError(t, err)
	require.NoError(t, RepayAddLiquidity(r1,
		NewAsset(testTokenA, r1.PayAmountA()), NewAsset(testTokenB, r1.PayAmountB())))

	idx2, err := pool.OpenPosition(testOwner, 10, 20)
	require.NoError(t, err)
	r2, err := pool.AddLiquidity(testOwner, idx2, u128FromU64(1_000_000_000))
	require.NoError(t, err)
	require.NoError(t, RepayAddLiquidity(r2,
		NewAsset(testTokenA, r2.PayAmountA()), NewAsset(testTokenB, r2.PayAmountB())))

	require.Equal(t, "1000000000", pool.liquidityActive.String())

	tick10, ok := pool.ticks.get(10)
	require.True(t, ok)
	require.Equal(t, "0", tick10.LiquidityNet.String())
	require.True(t, tick10.FeeGrowthOutsideB.U128().IsZero())

	sqrtAtTen, err := GetSqrtPriceAtTick(10)
	require.NoError(t, err)

	// sqrt_price_limit pinned exactly at tick 10's price: the swap loop's
	// target is min(limit, price_at_next_tick) == both, so the loop exits
	// the instant it lands on tick 10, crossing it exactly once regardless
	// of how much headroom the input amount carries.
	_, _, receipt, err := pool.FlashSwap(testOwner, false, true, 5_000_000, sqrtAtTen, "")
	require.NoError(t, err)
	require.NoError(t, RepayFlashSwap(receipt, ZeroAsset(testTokenA), NewAsset(testTokenB, receipt.PayAmount())))

	require.Equal(t, int32(10), pool.tickCurrent)
	require.True(t, pool.sqrtPriceCurrent.Equals(sqrtAtTen))

	// liquidity_active jumps by exactly liquidity_net == 0 across this cross.
	require.Equal(t, "1000000000", pool.liquidityActive.String())

	require.False(t, pool.feeGrowthGlobalB.U128().IsZero())
	tick10After, ok := pool.ticks.get(10)
	require.True(t, ok)
	require.Equal(t, pool.feeGrowthGlobalB.U128().String(), tick10After.FeeGrowthOutsideB.U128().String())
}

// TestLiteralScenarioS4PositionAccrualMatchesMulShr runs 1000 small b->a
// swaps fully inside a single position's range and asserts the fee it
// collects on side B is exactly mul_shr(L, fee_growth_global_b, 64) - the
// same formula collect_fee's refresh uses internally - with zero accrued on
// side A, since every trade was priced in B.
func TestLiteralScenarioS4PositionAccrualMatchesMulShr(t *testing.T) {
	pool, _, _ := newScenarioPool(t, 1, 1000)

	index, err := pool.OpenPosition(testOwner, -10, 10)
	require.NoError(t, err)
	receipt, err := pool.AddLiquidity(testOwner, index, u128FromU64(1_000_000_000))
	require.NoError(t, err)
	require.NoError(t, RepayAddLiquidity(receipt,
		NewAsset(testTokenA, receipt.PayAmountA()), NewAsset(testTokenB, receipt.PayAmountB())))

	for i := 0; i < 1000; i++ {
		_, _, swapReceipt, err := pool.FlashSwap(testOwner, false, true, 5, MaxSqrtPrice, "")
		require.NoError(t, err)
		require.NoError(t, RepayFlashSwap(swapReceipt, ZeroAsset(testTokenA), NewAsset(testTokenB, swapReceipt.PayAmount())))
	}
	// 1000 small trades stay well inside [-10,10]: the swap never crosses a
	// boundary tick, so the position's whole range is active throughout.
	require.Equal(t, int32(0), pool.View().TickCurrent)

	pos := pool.positions[index]
	expectedB, err := u64FromU256(mulShr(pos.Liquidity, pool.feeGrowthGlobalB.U128(), 64), ErrFeeOverflow)
	require.NoError(t, err)
	require.Greater(t, expectedB, uint64(0))

	_, outB, err := pool.CollectFee(testOwner, index, true)
	require.NoError(t, err)
	require.Equal(t, expectedB, outB.Amount())

	view, err := pool.PositionView(index)
	require.NoError(t, err)
	require.Equal(t, uint64(0), view.FeeOwedA)
}

// TestLiteralScenarioS5FeeSplit pins the exact three-way split of a raw
// step fee of 1000 at protocol_fee_rate=2000 (20%) and ref_rate=3000 (30%
// of the protocol cut): protocol_raw=ceil(1000*2000/10000)=200,
// ref=floor(200*3000/10000)=60, protocol_kept=200-60=140,
// liquidity_fee=1000-200=800.
func TestLiteralScenarioS5FeeSplit(t *testing.T) {
	pool, _, _ := newTestPool(t)
	pool.liquidityActive = u128FromU64(1)

	ref, err := pool.applyFeeSplit(1000, true, 2000, 3000)
	require.NoError(t, err)
	require.Equal(t, uint64(60), ref)
	require.Equal(t, uint64(140), pool.feeProtocolA)

	expectedGrowth := new(big.Int).Lsh(big.NewInt(800), 64)
	require.Equal(t, expectedGrowth.String(), pool.feeGrowthGlobalA.U128().Big().String())
}
