package clmm

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// fakeVault is an in-memory TokenVault that tracks per-token balances and
// rejects a withdrawal above the balance, enough to exercise deposit/withdraw
// bookkeeping without a real custody layer.
type fakeVault struct {
	balances map[TokenId]uint64
}

func newFakeVault() *fakeVault {
	return &fakeVault{balances: make(map[TokenId]uint64)}
}

func (v *fakeVault) Symbol(t TokenId) string { return "TOK" }
func (v *fakeVault) Balance(t TokenId) uint64 { return v.balances[t] }
func (v *fakeVault) Withdraw(t TokenId, amount uint64) (Asset, error) {
	if v.balances[t] < amount {
		return Asset{}, ErrAmountIncorrect
	}
	v.balances[t] -= amount
	return NewAsset(t, amount), nil
}
func (v *fakeVault) Deposit(a Asset) error {
	v.balances[a.Token()] += a.Amount()
	return nil
}

type fakeClock struct{ now uint64 }

func (c *fakeClock) NowSeconds() uint64 { return c.now }

type openACL struct{}

func (openACL) IsProtocolAuthority(p Principal) bool        { return true }
func (openACL) IsPoolCreateAuthority(p Principal) bool       { return true }
func (openACL) IsProtocolFeeClaimAuthority(p Principal) bool { return true }
func (openACL) AllowResetInitialPrice(p Principal) bool      { return true }
func (openACL) AllowSetPositionURI(p Principal) bool         { return true }
func (openACL) PoolPaused() bool                             { return false }
func (openACL) ProtocolPaused() bool                         { return false }

type zeroProtocolFee struct{}

func (zeroProtocolFee) ProtocolFeeRate() uint64 { return 0 }

var (
	testTokenA = common.HexToAddress("0x0000000000000000000000000000000000000a")
	testTokenB = common.HexToAddress("0x0000000000000000000000000000000000000b")
	testOwner  = common.HexToAddress("0x00000000000000000000000000000000000001")
	testPool   = common.HexToAddress("0x00000000000000000000000000000000000c10")
)

func newTestPool(t *testing.T) (*Pool, *fakeVault, *fakeClock) {
	t.Helper()
	vault := newFakeVault()
	clock := &fakeClock{now: 1_000}
	cfg := PoolConfig{
		Address:           testPool,
		TokenA:            testTokenA,
		TokenB:            testTokenB,
		TickSpacing:       60,
		FeeRate:           3000,
		Vault:             vault,
		Clock:             clock,
		ACL:               openACL{},
		ProtocolFeeSource: zeroProtocolFee{},
	}
	sqrtAtZero, err := GetSqrtPriceAtTick(0)
	require.NoError(t, err)
	pool, err := CreatePool(cfg, testOwner, "test-collection", sqrtAtZero)
	require.NoError(t, err)
	vault.balances[testTokenA] = 1_000_000_000
	vault.balances[testTokenB] = 1_000_000_000
	return pool, vault, clock
}

func TestCreatePoolRejectsSameToken(t *testing.T) {
	cfg := PoolConfig{
		Address:     testPool,
		TokenA:      testTokenA,
		TokenB:      testTokenA,
		TickSpacing: 60,
		FeeRate:     3000,
		Vault:       newFakeVault(),
		Clock:       &fakeClock{},
	}
	sqrtAtZero, _ := GetSqrtPriceAtTick(0)
	_, err := CreatePool(cfg, testOwner, "x", sqrtAtZero)
	require.ErrorIs(t, err, ErrSameTokenType)
}

func TestCreatePoolRejectsBadFeeRate(t *testing.T) {
	cfg := PoolConfig{
		Address:     testPool,
		TokenA:      testTokenA,
		TokenB:      testTokenB,
		TickSpacing: 60,
		FeeRate:     MaxFeeRate + 1,
		Vault:       newFakeVault(),
		Clock:       &fakeClock{},
	}
	sqrtAtZero, _ := GetSqrtPriceAtTick(0)
	_, err := CreatePool(cfg, testOwner, "x", sqrtAtZero)
	require.ErrorIs(t, err, ErrInvalidFeeRate)
}

func TestOpenAddRemoveCloseLifecycle(t *testing.T) {
	pool, _, _ := newTestPool(t)

	index, err := pool.OpenPosition(testOwner, -600, 600)
	require.NoError(t, err)

	receipt, err := pool.AddLiquidity(testOwner, index, u128FromU64(1_000_000))
	require.NoError(t, err)
	require.Greater(t, receipt.PayAmountA(), uint64(0))
	require.Greater(t, receipt.PayAmountB(), uint64(0))

	assetA := NewAsset(testTokenA, receipt.PayAmountA())
	assetB := NewAsset(testTokenB, receipt.PayAmountB())
	require.NoError(t, RepayAddLiquidity(receipt, assetA, assetB))

	// Double-spend of the same receipt must fail (S6/must-use guard).
	require.ErrorIs(t, RepayAddLiquidity(receipt, assetA, assetB), ErrAmountIncorrect)

	view, err := pool.PositionView(index)
	require.NoError(t, err)
	require.Equal(t, "1000000", view.Liquidity.String())

	require.Equal(t, "1000000", pool.View().LiquidityActive.String())

	// Can't close while liquidity remains (S6).
	require.ErrorIs(t, pool.ClosePosition(testOwner, index), ErrPoolLiquidityIsNotZero)

	outA, outB, err := pool.RemoveLiquidity(testOwner, index, u128FromU64(1_000_000))
	require.NoError(t, err)
	require.Greater(t, outA.Amount()+outB.Amount(), uint64(0))

	_, _, err = pool.CollectFee(testOwner, index, true)
	require.NoError(t, err)

	require.NoError(t, pool.ClosePosition(testOwner, index))
	_, err = pool.PositionView(index)
	require.ErrorIs(t, err, ErrPositionNotExist)
}

func TestAddLiquidityUnknownPositionRejected(t *testing.T) {
	pool, _, _ := newTestPool(t)
	index, err := pool.OpenPosition(testOwner, -600, 600)
	require.NoError(t, err)

	// nft collaborator is nil in this harness, so authorizePosition is a
	// no-op and ownership can't be checked here; instead verify the position
	// lookup path itself rejects an unknown index.
	_, err = pool.AddLiquidity(testOwner, index+999, u128FromU64(100))
	require.ErrorIs(t, err, ErrPositionNotExist)
}

func TestFlashSwapRoundTrip(t *testing.T) {
	pool, _, _ := newTestPool(t)

	index, err := pool.OpenPosition(testOwner, -6000, 6000)
	require.NoError(t, err)
	receipt, err := pool.AddLiquidity(testOwner, index, u128FromU64(10_000_000))
	require.NoError(t, err)
	require.NoError(t, RepayAddLiquidity(receipt,
		NewAsset(testTokenA, receipt.PayAmountA()),
		NewAsset(testTokenB, receipt.PayAmountB())))

	sqrtLimit, err := GetSqrtPriceAtTick(-6000)
	require.NoError(t, err)

	outA, outB, swapReceipt, err := pool.FlashSwap(testOwner, true, true, 10_000, sqrtLimit, "")
	require.NoError(t, err)
	require.True(t, outB.Amount() > 0)
	require.True(t, outA.IsZero())
	require.Greater(t, swapReceipt.PayAmount(), uint64(0))

	payAsset := NewAsset(testTokenA, swapReceipt.PayAmount())
	zeroB := ZeroAsset(testTokenB)
	require.NoError(t, RepayFlashSwap(swapReceipt, payAsset, zeroB))

	// Receipt is single-use.
	require.ErrorIs(t, RepayFlashSwap(swapReceipt, payAsset, zeroB), ErrAmountIncorrect)
}

func TestFlashSwapRejectsZeroAmount(t *testing.T) {
	pool, _, _ := newTestPool(t)
	sqrtLimit, err := GetSqrtPriceAtTick(-600)
	require.NoError(t, err)
	_, _, _, err = pool.FlashSwap(testOwner, true, true, 0, sqrtLimit, "")
	require.ErrorIs(t, err, ErrAmountIncorrect)
}

func TestFlashSwapRejectsWrongDirectionLimit(t *testing.T) {
	pool, _, _ := newTestPool(t)
	sqrtLimit, err := GetSqrtPriceAtTick(600)
	require.NoError(t, err)
	// aToB with a limit above current price is invalid.
	_, _, _, err = pool.FlashSwap(testOwner, true, true, 1_000, sqrtLimit, "")
	require.ErrorIs(t, err, ErrWrongSqrtPriceLimit)
}

func TestFlashSwapInsufficientLiquidityExceedsRange(t *testing.T) {
	pool, _, _ := newTestPool(t)
	index, err := pool.OpenPosition(testOwner, -60, 60)
	require.NoError(t, err)
	receipt, err := pool.AddLiquidity(testOwner, index, u128FromU64(1_000))
	require.NoError(t, err)
	require.NoError(t, RepayAddLiquidity(receipt,
		NewAsset(testTokenA, receipt.PayAmountA()),
		NewAsset(testTokenB, receipt.PayAmountB())))

	_, _, _, err = pool.FlashSwap(testOwner, true, true, 1_000_000_000, MinSqrtPrice, "")
	require.ErrorIs(t, err, ErrNotEnoughLiquidity)
}

func TestCalculateSwapResultDoesNotMutatePool(t *testing.T) {
	pool, _, _ := newTestPool(t)
	index, err := pool.OpenPosition(testOwner, -6000, 6000)
	require.NoError(t, err)
	receipt, err := pool.AddLiquidity(testOwner, index, u128FromU64(10_000_000))
	require.NoError(t, err)
	require.NoError(t, RepayAddLiquidity(receipt,
		NewAsset(testTokenA, receipt.PayAmountA()),
		NewAsset(testTokenB, receipt.PayAmountB())))

	beforePrice := pool.View().SqrtPriceCurrent
	beforeTick := pool.View().TickCurrent
	beforeLiquidity := pool.View().LiquidityActive

	sqrtLimit, err := GetSqrtPriceAtTick(-6000)
	require.NoError(t, err)
	result, err := pool.CalculateSwapResult(true, true, 10_000, sqrtLimit)
	require.NoError(t, err)
	require.Greater(t, result.AmountOut, uint64(0))
	require.False(t, result.IsExceed)

	require.True(t, pool.View().SqrtPriceCurrent.Equals(beforePrice))
	require.Equal(t, beforeTick, pool.View().TickCurrent)
	require.Equal(t, beforeLiquidity.String(), pool.View().LiquidityActive.String())
}

func TestUpdateFeeRateAuthorityAndBounds(t *testing.T) {
	pool, _, _ := newTestPool(t)
	require.NoError(t, pool.UpdateFeeRate(testOwner, 500))
	require.Equal(t, uint32(500), pool.View().FeeRate)

	require.ErrorIs(t, pool.UpdateFeeRate(testOwner, MaxFeeRate+1), ErrInvalidFeeRate)
}

func TestResetInitialPriceOnlyBeforeLiquidity(t *testing.T) {
	pool, _, _ := newTestPool(t)
	newPrice, err := GetSqrtPriceAtTick(600)
	require.NoError(t, err)
	require.NoError(t, pool.ResetInitialPrice(testOwner, newPrice))
	require.Equal(t, int32(600), pool.View().TickCurrent)

	index, err := pool.OpenPosition(testOwner, -600, 1200)
	require.NoError(t, err)
	receipt, err := pool.AddLiquidity(testOwner, index, u128FromU64(1000))
	require.NoError(t, err)
	require.NoError(t, RepayAddLiquidity(receipt,
		NewAsset(testTokenA, receipt.PayAmountA()),
		NewAsset(testTokenB, receipt.PayAmountB())))

	require.ErrorIs(t, pool.ResetInitialPrice(testOwner, newPrice), ErrFuncDisabled)
}
