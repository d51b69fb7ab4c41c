package clmm

import "fmt"

// Pool is C7, the state machine that orchestrates C2–C6: tick/price math,
// the swap loop, position accounting, and rewarder accrual. It is the
// successor to the teacher's CorePool — same role (one struct per trading
// pair owning ticks, positions, and global accumulators), rebuilt around
// exact Q64.64 fixed-point state instead of decimal.Decimal.
type Pool struct {
	address     Principal
	tokenA      TokenId
	tokenB      TokenId
	tickSpacing int32
	feeRate     uint32

	sqrtPriceCurrent U128
	tickCurrent      int32
	liquidityActive  U128

	feeGrowthGlobalA GrowthAccumulator
	feeGrowthGlobalB GrowthAccumulator
	feeProtocolA     uint64
	feeProtocolB     uint64

	rewarders        [RewarderCount]Rewarder
	lastRewardUpdate uint64

	positionSeq PositionIndex
	positions   map[PositionIndex]*Position
	ticks       *tickManager

	vault             TokenVault
	partners          PartnerRegistry
	nft               PositionNFT
	clock             Clock
	acl               AccessControl
	feeTiers          FeeTierRegistry
	protocolFeeSource ProtocolFeeSource
	events            EventSink
}

// PoolConfig is the set of collaborators and static parameters a new pool is
// built from (spec §6-factory).
type PoolConfig struct {
	Address     Principal
	TokenA      TokenId
	TokenB      TokenId
	TickSpacing int32
	FeeRate     uint32

	Vault             TokenVault
	Partners          PartnerRegistry
	NFT               PositionNFT
	Clock             Clock
	ACL               AccessControl
	FeeTiers          FeeTierRegistry
	ProtocolFeeSource ProtocolFeeSource
	Events            EventSink

	RewarderTokens [RewarderCount]TokenId
}

// CreatePool constructs and initializes a pool at the given starting √price
// (spec §4.7/§6). It's the combined factory + initialize step: the spec
// treats the factory as an out-of-scope collaborator but still requires the
// core to emit CreatePool and establish tick_current/sqrt_price_current.
func CreatePool(cfg PoolConfig, creator Principal, collectionName string, initialSqrtPrice U128) (*Pool, error) {
	if cfg.TokenA == cfg.TokenB {
		return nil, ErrSameTokenType
	}
	if cfg.FeeRate > MaxFeeRate {
		return nil, ErrInvalidFeeRate
	}
	tick, err := GetTickAtSqrtPrice(initialSqrtPrice)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		address:           cfg.Address,
		tokenA:            cfg.TokenA,
		tokenB:            cfg.TokenB,
		tickSpacing:       cfg.TickSpacing,
		feeRate:           cfg.FeeRate,
		sqrtPriceCurrent:  initialSqrtPrice,
		tickCurrent:       tick,
		liquidityActive:   u128Zero,
		feeGrowthGlobalA:  zeroGrowth(),
		feeGrowthGlobalB:  zeroGrowth(),
		positions:         make(map[PositionIndex]*Position),
		ticks:             newTickManager(cfg.TickSpacing),
		vault:             cfg.Vault,
		partners:          cfg.Partners,
		nft:               cfg.NFT,
		clock:             cfg.Clock,
		acl:               cfg.ACL,
		feeTiers:          cfg.FeeTiers,
		protocolFeeSource: cfg.ProtocolFeeSource,
		events:            cfg.Events,
	}
	for k := 0; k < RewarderCount; k++ {
		p.rewarders[k] = Rewarder{Token: cfg.RewarderTokens[k], GrowthGlobal: zeroGrowth()}
	}
	if cfg.Clock != nil {
		p.lastRewardUpdate = cfg.Clock.NowSeconds()
	}

	if cfg.NFT != nil {
		if err := cfg.NFT.CreateCollection(cfg.Address, collectionName); err != nil {
			return nil, err
		}
	}
	p.emit(CreatePoolEvent{
		Creator:        creator,
		PoolAddress:    cfg.Address,
		CollectionName: collectionName,
		TokenA:         cfg.TokenA,
		TokenB:         cfg.TokenB,
		TickSpacing:    cfg.TickSpacing,
	})
	return p, nil
}

func (p *Pool) isPaused() bool {
	if p.acl == nil {
		return false
	}
	return p.acl.PoolPaused() || p.acl.ProtocolPaused()
}

// ResetInitialPrice lets an authorized caller re-seed sqrt_price_current /
// tick_current on a pool whose active liquidity is zero (positions wholly
// out of range do not block it). This resolves
// the spec's Open Question between "reset_init_price" and
// "reset_init_price_v2" in favor of the stricter variant: guarded on
// liquidity_active == 0, the only state under which moving price can't
// desynchronize a live position's accrual (see DESIGN.md).
func (p *Pool) ResetInitialPrice(caller Principal, newSqrtPrice U128) error {
	if p.acl == nil || !p.acl.AllowResetInitialPrice(caller) {
		return ErrNoPrivilege
	}
	if !p.liquidityActive.IsZero() {
		return ErrFuncDisabled
	}
	tick, err := GetTickAtSqrtPrice(newSqrtPrice)
	if err != nil {
		return err
	}
	p.sqrtPriceCurrent = newSqrtPrice
	p.tickCurrent = tick
	return nil
}

func (p *Pool) checkTicks(lower, upper int32) error {
	if lower >= upper {
		return ErrInvalidTick
	}
	if !IsValidTick(lower, p.tickSpacing) || !IsValidTick(upper, p.tickSpacing) {
		return ErrInvalidTick
	}
	return nil
}

// OpenPosition is spec §4.7's open_position.
func (p *Pool) OpenPosition(owner Principal, tickLower, tickUpper int32) (PositionIndex, error) {
	if p.isPaused() {
		return 0, ErrPoolIsPaused
	}
	if err := p.checkTicks(tickLower, tickUpper); err != nil {
		return 0, err
	}
	index := p.positionSeq
	p.positionSeq++
	p.positions[index] = newPosition(index, owner, tickLower, tickUpper)

	if p.nft != nil {
		if err := p.nft.Mint(p.address, index, owner); err != nil {
			return 0, err
		}
	}
	p.emit(OpenPositionEvent{User: owner, Pool: p.address, TickLower: tickLower, TickUpper: tickUpper, Index: index})
	return index, nil
}

// ClosePosition is spec §4.7's close_position: allowed only once L == 0 and
// every fee/reward owed has been drained (S6).
func (p *Pool) ClosePosition(caller Principal, index PositionIndex) error {
	pos, ok := p.positions[index]
	if !ok {
		return ErrPositionNotExist
	}
	if err := p.authorizePosition(caller, index); err != nil {
		return err
	}
	if !pos.isEmpty() {
		return ErrPoolLiquidityIsNotZero
	}
	delete(p.positions, index)
	if p.nft != nil {
		if err := p.nft.Burn(p.address, index); err != nil {
			return err
		}
	}
	p.emit(ClosePositionEvent{User: caller, Pool: p.address, Index: index})
	return nil
}

// authorizePosition enforces spec §6's rule: "the core authorises position
// operations by checking that the caller is the NFT holder."
func (p *Pool) authorizePosition(caller Principal, index PositionIndex) error {
	if p.nft == nil {
		return nil
	}
	holder, err := p.nft.HolderOf(p.address, index)
	if err != nil {
		return err
	}
	if holder != caller {
		return ErrPositionOwnerError
	}
	return nil
}

func (p *Pool) getPosition(index PositionIndex) (*Position, error) {
	pos, ok := p.positions[index]
	if !ok {
		return nil, ErrPositionNotExist
	}
	return pos, nil
}

// refreshPosition runs spec §4.5's refresh() for one position. A position
// with zero liquidity contributes nothing to the pool's ticks and can't
// accrue further (mul_shr(0, ·, 64) == 0), so it's skipped rather than
// requiring tick records that remove_liquidity may already have cleared.
// Its snapshots are not rolled forward here; applyLiquidityDelta sets them
// to the current growth inside when liquidity is next added.
func (p *Pool) refreshPosition(pos *Position) error {
	if pos.Liquidity.IsZero() {
		return nil
	}
	lower, ok := p.ticks.get(pos.TickLower)
	if !ok {
		return fmt.Errorf("refresh position %d: %w", pos.Index, ErrInvariantViolated)
	}
	upper, ok := p.ticks.get(pos.TickUpper)
	if !ok {
		return fmt.Errorf("refresh position %d: %w", pos.Index, ErrInvariantViolated)
	}
	return refresh(pos, lower, upper, p.ticks, p.tickCurrent, p.feeGrowthGlobalA, p.feeGrowthGlobalB, p.rewarderGlobals())
}

// PoolView is a read-only snapshot for external query (SPEC_FULL §3).
type PoolView struct {
	TokenA           TokenId
	TokenB           TokenId
	TickSpacing      int32
	FeeRate          uint32
	SqrtPriceCurrent U128
	TickCurrent      int32
	LiquidityActive  U128
	FeeGrowthGlobalA U128
	FeeGrowthGlobalB U128
	FeeProtocolA     uint64
	FeeProtocolB     uint64
}

func (p *Pool) View() PoolView {
	return PoolView{
		TokenA:           p.tokenA,
		TokenB:           p.tokenB,
		TickSpacing:      p.tickSpacing,
		FeeRate:          p.feeRate,
		SqrtPriceCurrent: p.sqrtPriceCurrent,
		TickCurrent:      p.tickCurrent,
		LiquidityActive:  p.liquidityActive,
		FeeGrowthGlobalA: p.feeGrowthGlobalA.U128(),
		FeeGrowthGlobalB: p.feeGrowthGlobalB.U128(),
		FeeProtocolA:     p.feeProtocolA,
		FeeProtocolB:     p.feeProtocolB,
	}
}

func (p *Pool) PositionView(index PositionIndex) (PositionView, error) {
	pos, err := p.getPosition(index)
	if err != nil {
		return PositionView{}, err
	}
	return pos.view(), nil
}

// PositionViews returns a snapshot of every open position, for external
// query and persistence.
func (p *Pool) PositionViews() []PositionView {
	out := make([]PositionView, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos.view())
	}
	return out
}

// TickViews returns a snapshot of every initialized tick record.
func (p *Pool) TickViews() []TickView {
	return p.ticks.views()
}

// UpdateFeeRate lets an authorized caller change the pool's fee rate.
func (p *Pool) UpdateFeeRate(caller Principal, newRate uint32) error {
	if p.acl == nil || !p.acl.IsProtocolAuthority(caller) {
		return ErrNoPrivilege
	}
	if newRate > MaxFeeRate {
		return ErrInvalidFeeRate
	}
	old := p.feeRate
	p.feeRate = newRate
	p.emit(UpdateFeeRateEvent{Pool: p.address, OldRate: old, NewRate: newRate})
	return nil
}
