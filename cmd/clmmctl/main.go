// Command clmmctl demonstrates a pool's full lifecycle end to end: create,
// open a position, add liquidity, swap, and collect fees. In the teacher's
// no-framework main.go style — flag parsing, no subcommand library — wired
// against in-memory stand-ins for the §6 collaborators a real deployment
// would supply (vault, clock, ACL, NFT registry).
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	clmm "github.com/CoinSummer/clmm-core"
)

// memVault is an in-memory TokenVault stand-in: infinite supply, just tracks
// balances so Withdraw/Deposit round-trip.
type memVault struct {
	balances map[common.Address]uint64
}

func newMemVault() *memVault { return &memVault{balances: map[common.Address]uint64{}} }

func (v *memVault) Symbol(t common.Address) string { return t.Hex()[:8] }
func (v *memVault) Balance(t common.Address) uint64 { return v.balances[t] }
func (v *memVault) Withdraw(t common.Address, amount uint64) (clmm.Asset, error) {
	return clmm.NewAsset(t, amount), nil
}
func (v *memVault) Deposit(a clmm.Asset) error {
	v.balances[a.Token()] += a.Amount()
	return nil
}

type memClock struct{ now uint64 }

func (c *memClock) NowSeconds() uint64 { return c.now }

type openACL struct{}

func (openACL) IsProtocolAuthority(common.Address) bool        { return true }
func (openACL) IsPoolCreateAuthority(common.Address) bool      { return true }
func (openACL) IsProtocolFeeClaimAuthority(common.Address) bool { return true }
func (openACL) AllowResetInitialPrice(common.Address) bool     { return true }
func (openACL) AllowSetPositionURI(common.Address) bool        { return true }
func (openACL) PoolPaused() bool                               { return false }
func (openACL) ProtocolPaused() bool                            { return false }

type zeroProtocolFee struct{}

func (zeroProtocolFee) ProtocolFeeRate() uint64 { return 0 }

func main() {
	feeRate := flag.Uint("fee-rate", 3000, "pool fee rate, parts per million")
	tickSpacing := flag.Int("tick-spacing", 60, "pool tick spacing")
	swapAmount := flag.Uint64("swap-amount", 1_000_000, "amount to swap, token A in")
	flag.Parse()

	tokenA := common.HexToAddress("0x000000000000000000000000000000000000a0")
	tokenB := common.HexToAddress("0x000000000000000000000000000000000000b0")
	owner := common.HexToAddress("0x00000000000000000000000000000000000001")

	vault := newMemVault()
	clock := &memClock{now: 1_700_000_000}
	nft := clmm.NewDefaultPositionNFT()

	cfg := clmm.PoolConfig{
		Address:           common.HexToAddress("0x00000000000000000000000000000000000c10"),
		TokenA:            tokenA,
		TokenB:            tokenB,
		TickSpacing:       int32(*tickSpacing),
		FeeRate:           uint32(*feeRate),
		Vault:             vault,
		NFT:               nft,
		Clock:             clock,
		ACL:               openACL{},
		FeeTiers:          clmm.NewDefaultFeeTierRegistry(),
		ProtocolFeeSource: zeroProtocolFee{},
	}

	// sqrt_price = 1.0, the Q64.64 value at tick 0
	initialSqrtPrice, err := clmm.GetSqrtPriceAtTick(0)
	if err != nil {
		log.Fatalf("initial sqrt price: %v", err)
	}

	pool, err := clmm.CreatePool(cfg, owner, "demo-collection", initialSqrtPrice)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	fmt.Printf("pool created: tick=%d sqrt_price=%s\n", pool.View().TickCurrent, pool.View().SqrtPriceCurrent)

	lower, upper := -600, 600
	index, err := pool.OpenPosition(owner, int32(lower), int32(upper))
	if err != nil {
		log.Fatalf("open position: %v", err)
	}
	fmt.Printf("opened position %d [%d, %d]\n", index, lower, upper)

	deltaL := clmm.U128FromU64(1_000_000_000)
	receipt, err := pool.AddLiquidity(owner, index, deltaL)
	if err != nil {
		log.Fatalf("add liquidity: %v", err)
	}
	assetA := clmm.NewAsset(tokenA, receipt.PayAmountA())
	assetB := clmm.NewAsset(tokenB, receipt.PayAmountB())
	if err := clmm.RepayAddLiquidity(receipt, assetA, assetB); err != nil {
		log.Fatalf("repay add liquidity: %v", err)
	}
	fmt.Printf("added liquidity: paid %d token A, %d token B\n", assetA.Amount(), assetB.Amount())

	runtimeCfg, err := clmm.LoadRuntimeConfig()
	if err != nil {
		log.Fatalf("load runtime config: %v", err)
	}

	limit := clmm.MinSqrtPrice
	dryRun, err := pool.CalculateSwapResult(true, true, *swapAmount, limit)
	if err != nil {
		log.Fatalf("simulate flash swap: %v", err)
	}
	if uint32(len(dryRun.Steps)) > runtimeCfg.MaxSwapSteps {
		log.Fatalf("swap would cross %d ticks, above CLMM_MAX_SWAP_STEPS=%d", len(dryRun.Steps), runtimeCfg.MaxSwapSteps)
	}

	outA, outB, swapReceipt, err := pool.FlashSwap(owner, true, true, *swapAmount, limit, "")
	if err != nil {
		log.Fatalf("flash swap: %v", err)
	}
	inAsset := clmm.NewAsset(tokenA, swapReceipt.PayAmount())
	if err := clmm.RepayFlashSwap(swapReceipt, inAsset, clmm.ZeroAsset(tokenB)); err != nil {
		log.Fatalf("repay flash swap: %v", err)
	}
	fmt.Printf("swapped: out A=%d out B=%d\n", outA.Amount(), outB.Amount())

	feeA, feeB, err := pool.CollectFee(owner, index, true)
	if err != nil {
		log.Fatalf("collect fee: %v", err)
	}
	fmt.Printf("collected fees: A=%d B=%d\n", feeA.Amount(), feeB.Amount())

	price, err := decimal.NewFromString(pool.View().SqrtPriceCurrent.String())
	if err != nil {
		log.Fatalf("format price: %v", err)
	}
	fmt.Printf("final sqrt_price (raw Q64.64): %s\n", price.String())
}
