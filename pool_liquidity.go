package clmm

import "github.com/holiman/uint256"

// AddLiquidityReceipt is the must-use two-phase settlement object from spec
// §4.7 step 6: add_liquidity never debits the caller's vault directly, it
// returns a receipt the caller must immediately pay off via
// RepayAddLiquidity in the same atomic operation. Its fields are
// unexported and it is only ever constructed by AddLiquidity and
// AddLiquidityFixToken, so the only
// way to produce the assets it demands is to call RepayAddLiquidity with
// it; Go has no compile-time linear-type enforcement, so "must-use" is
// backed by a runtime consumed flag instead.
type AddLiquidityReceipt struct {
	pool     *Pool
	amountA  uint64
	amountB  uint64
	consumed bool
}

func (r *AddLiquidityReceipt) PayAmountA() uint64 { return r.amountA }
func (r *AddLiquidityReceipt) PayAmountB() uint64 { return r.amountB }

// RepayAddLiquidity consumes an AddLiquidityReceipt: the two assets handed
// in must match the receipt's amounts exactly (spec §4.7's
// repay_add_liquidity contract), and are deposited to the pool vault.
func RepayAddLiquidity(receipt *AddLiquidityReceipt, assetA, assetB Asset) error {
	if receipt == nil || receipt.consumed {
		return ErrAmountIncorrect
	}
	if assetA.Token() != receipt.pool.tokenA || assetA.Amount() != receipt.amountA {
		return ErrAmountIncorrect
	}
	if assetB.Token() != receipt.pool.tokenB || assetB.Amount() != receipt.amountB {
		return ErrAmountIncorrect
	}
	receipt.consumed = true
	if !assetA.IsZero() {
		if err := receipt.pool.vault.Deposit(assetA); err != nil {
			return err
		}
	}
	if !assetB.IsZero() {
		if err := receipt.pool.vault.Deposit(assetB); err != nil {
			return err
		}
	}
	return nil
}

// deltaAmounts implements spec §4.7 step 2's three-region formula: given a
// ΔL magnitude and the position's range, compute (Δa, Δb) rounding up (amounts
// owed to the pool) or down (amounts owed by the pool) per §7's
// direction-aware rounding rule.
func (p *Pool) deltaAmounts(tickLower, tickUpper int32, deltaL U128, roundUp bool) (amountA, amountB uint64, err error) {
	sqrtLower, err := GetSqrtPriceAtTick(tickLower)
	if err != nil {
		return 0, 0, err
	}
	sqrtUpper, err := GetSqrtPriceAtTick(tickUpper)
	if err != nil {
		return 0, 0, err
	}

	var a, b U128
	switch {
	case p.tickCurrent < tickLower:
		a, err = getAmount0Delta(sqrtLower, sqrtUpper, deltaL, roundUp)
	case p.tickCurrent >= tickUpper:
		b, err = getAmount1Delta(sqrtLower, sqrtUpper, deltaL, roundUp)
	default:
		a, err = getAmount0Delta(p.sqrtPriceCurrent, sqrtUpper, deltaL, roundUp)
		if err == nil {
			b, err = getAmount1Delta(sqrtLower, p.sqrtPriceCurrent, deltaL, roundUp)
		}
	}
	if err != nil {
		return 0, 0, err
	}
	amountA, err = u64FromU128(a, ErrMultiplicationOverflow)
	if err != nil {
		return 0, 0, err
	}
	amountB, err = u64FromU128(b, ErrMultiplicationOverflow)
	if err != nil {
		return 0, 0, err
	}
	return amountA, amountB, nil
}

// applyLiquidityDelta is the shared tick/position bookkeeping for both
// add_liquidity and remove_liquidity (spec §4.7 steps 3–5): update the
// position's L, each endpoint's liquidity_gross/liquidity_net, seed or drop
// tick records, mark/unmark the directory, and adjust liquidity_active if
// the range straddles tick_current.
func (p *Pool) applyLiquidityDelta(pos *Position, deltaL U128, negative bool) error {
	if negative {
		var err error
		pos.Liquidity, err = checkedSubU128(pos.Liquidity, deltaL)
		if err != nil {
			return err
		}
	} else {
		var err error
		pos.Liquidity, err = checkedAddU128(pos.Liquidity, deltaL)
		if err != nil {
			return err
		}
	}

	for _, endpoint := range [2]struct {
		index   int32
		isUpper bool
	}{{pos.TickLower, false}, {pos.TickUpper, true}} {
		tick, created := p.ticks.ensure(endpoint.index)
		if created {
			tick.seedOutsideGrowth(p.tickCurrent, p.feeGrowthGlobalA, p.feeGrowthGlobalB, p.rewarderGlobals())
		}
		if err := tick.applyLiquidityDelta(deltaL, negative, endpoint.isUpper); err != nil {
			return err
		}
		if tick.isEmpty() {
			p.ticks.clear(endpoint.index)
		}
	}

	// A position that held no liquidity was skipped by refreshPosition, so
	// its snapshots start at the current growth inside once it holds some.
	if !negative && pos.Liquidity.Equals(deltaL) {
		lower, _ := p.ticks.get(pos.TickLower)
		upper, _ := p.ticks.get(pos.TickUpper)
		pos.FeeGrowthInsideSnapA, pos.FeeGrowthInsideSnapB = p.ticks.feeGrowthInside(lower, upper, p.tickCurrent, p.feeGrowthGlobalA, p.feeGrowthGlobalB)
		globals := p.rewarderGlobals()
		for k := 0; k < RewarderCount; k++ {
			pos.RewardGrowthSnap[k] = p.ticks.rewarderGrowthInside(lower, upper, p.tickCurrent, globals[k], k)
		}
	}

	if pos.TickLower <= p.tickCurrent && p.tickCurrent < pos.TickUpper {
		var err error
		if negative {
			p.liquidityActive, err = checkedSubU128(p.liquidityActive, deltaL)
		} else {
			p.liquidityActive, err = checkedAddU128(p.liquidityActive, deltaL)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// AddLiquidity is spec §4.7's add_liquidity: caller supplies ΔL directly.
func (p *Pool) AddLiquidity(caller Principal, index PositionIndex, deltaL U128) (*AddLiquidityReceipt, error) {
	if p.isPaused() {
		return nil, ErrPoolIsPaused
	}
	if deltaL.IsZero() {
		return nil, ErrLiquidityZero
	}
	pos, err := p.getPosition(index)
	if err != nil {
		return nil, err
	}
	if err := p.authorizePosition(caller, index); err != nil {
		return nil, err
	}
	if err := p.updateRewarders(); err != nil {
		return nil, err
	}
	if err := p.refreshPosition(pos); err != nil {
		return nil, err
	}

	amountA, amountB, err := p.deltaAmounts(pos.TickLower, pos.TickUpper, deltaL, true)
	if err != nil {
		return nil, err
	}
	if err := p.applyLiquidityDelta(pos, deltaL, false); err != nil {
		return nil, err
	}

	p.emit(AddLiquidityEvent{Pool: p.address, TickLower: pos.TickLower, TickUpper: pos.TickUpper, Liquidity: deltaL, AmountA: amountA, AmountB: amountB, Index: index})
	return &AddLiquidityReceipt{pool: p, amountA: amountA, amountB: amountB}, nil
}

// AddLiquidityFixToken is SPEC_FULL §3's add_liquidity_fix_token: caller
// fixes one side's amount, ΔL is solved by inverting §4.7 step 2's formula
// for whichever region the position's range/tick_current puts it in.
func (p *Pool) AddLiquidityFixToken(caller Principal, index PositionIndex, amount uint64, fixA bool) (*AddLiquidityReceipt, error) {
	if p.isPaused() {
		return nil, ErrPoolIsPaused
	}
	pos, err := p.getPosition(index)
	if err != nil {
		return nil, err
	}
	if err := p.authorizePosition(caller, index); err != nil {
		return nil, err
	}
	if err := p.updateRewarders(); err != nil {
		return nil, err
	}
	if err := p.refreshPosition(pos); err != nil {
		return nil, err
	}

	sqrtLower, err := GetSqrtPriceAtTick(pos.TickLower)
	if err != nil {
		return nil, err
	}
	sqrtUpper, err := GetSqrtPriceAtTick(pos.TickUpper)
	if err != nil {
		return nil, err
	}

	var deltaL U128
	switch {
	case p.tickCurrent < pos.TickLower:
		if !fixA {
			return nil, ErrAmountIncorrect
		}
		deltaL, err = invertAmount0ToL(sqrtLower, sqrtUpper, amount, false)
	case p.tickCurrent >= pos.TickUpper:
		if fixA {
			return nil, ErrAmountIncorrect
		}
		deltaL, err = invertAmount1ToL(sqrtLower, sqrtUpper, amount, false)
	default:
		if fixA {
			deltaL, err = invertAmount0ToL(p.sqrtPriceCurrent, sqrtUpper, amount, false)
		} else {
			deltaL, err = invertAmount1ToL(sqrtLower, p.sqrtPriceCurrent, amount, false)
		}
	}
	if err != nil {
		return nil, err
	}
	if deltaL.IsZero() {
		return nil, ErrLiquidityZero
	}

	amountA, amountB, err := p.deltaAmounts(pos.TickLower, pos.TickUpper, deltaL, true)
	if err != nil {
		return nil, err
	}
	if err := p.applyLiquidityDelta(pos, deltaL, false); err != nil {
		return nil, err
	}

	p.emit(AddLiquidityEvent{Pool: p.address, TickLower: pos.TickLower, TickUpper: pos.TickUpper, Liquidity: deltaL, AmountA: amountA, AmountB: amountB, Index: index})
	return &AddLiquidityReceipt{pool: p, amountA: amountA, amountB: amountB}, nil
}

// invertAmount0ToL solves Δx = L·(√Pb−√Pa)/(√Pa·√Pb) for L given Δx.
func invertAmount0ToL(sqrtLower, sqrtUpper U128, amount uint64, roundUp bool) (U128, error) {
	diff, err := checkedSubU128(sqrtUpper, sqrtLower)
	if err != nil {
		return u128Zero, err
	}
	if diff.IsZero() {
		return u128Zero, ErrInvariantViolated
	}
	product := new(uint256.Int).Mul(u256FromU128(sqrtLower), u256FromU128(sqrtUpper))
	x := uint256.NewInt(amount)
	diffU := u256FromU128(diff)
	var q *uint256.Int
	if roundUp {
		q, err = mulDivCeilU256(x, product, diffU)
	} else {
		q, err = mulDivFloorU256(x, product, diffU)
	}
	if err != nil {
		return u128Zero, err
	}
	return u128FromU256(q)
}

// invertAmount1ToL solves Δy = L·(√Pb−√Pa) for L given Δy.
func invertAmount1ToL(sqrtLower, sqrtUpper U128, amount uint64, roundUp bool) (U128, error) {
	diff, err := checkedSubU128(sqrtUpper, sqrtLower)
	if err != nil {
		return u128Zero, err
	}
	if diff.IsZero() {
		return u128Zero, ErrInvariantViolated
	}
	shifted := new(uint256.Int).Lsh(uint256.NewInt(amount), 64)
	diffU := u256FromU128(diff)
	var q *uint256.Int
	if roundUp {
		q, err = divCeilU256(shifted, diffU)
		if err != nil {
			return u128Zero, err
		}
	} else {
		q = new(uint256.Int).Div(shifted, diffU)
	}
	return u128FromU256(q)
}

// RemoveLiquidity is spec §4.7's remove_liquidity: symmetric to
// AddLiquidity, rounding the withdrawn amounts down (owed by the pool).
func (p *Pool) RemoveLiquidity(caller Principal, index PositionIndex, deltaL U128) (assetA, assetB Asset, err error) {
	if deltaL.IsZero() {
		return Asset{}, Asset{}, ErrLiquidityZero
	}
	pos, err := p.getPosition(index)
	if err != nil {
		return Asset{}, Asset{}, err
	}
	if err := p.authorizePosition(caller, index); err != nil {
		return Asset{}, Asset{}, err
	}
	if deltaL.Cmp(pos.Liquidity) > 0 {
		return Asset{}, Asset{}, ErrInvalidDeltaLiquidity
	}
	if err := p.updateRewarders(); err != nil {
		return Asset{}, Asset{}, err
	}
	if err := p.refreshPosition(pos); err != nil {
		return Asset{}, Asset{}, err
	}

	amountA, amountB, err := p.deltaAmounts(pos.TickLower, pos.TickUpper, deltaL, false)
	if err != nil {
		return Asset{}, Asset{}, err
	}
	if err := p.applyLiquidityDelta(pos, deltaL, true); err != nil {
		return Asset{}, Asset{}, err
	}

	withdrawnA, err := p.vault.Withdraw(p.tokenA, amountA)
	if err != nil {
		return Asset{}, Asset{}, err
	}
	withdrawnB, err := p.vault.Withdraw(p.tokenB, amountB)
	if err != nil {
		return Asset{}, Asset{}, err
	}

	p.emit(RemoveLiquidityEvent{Pool: p.address, TickLower: pos.TickLower, TickUpper: pos.TickUpper, Liquidity: deltaL, AmountA: amountA, AmountB: amountB, Index: index})
	return withdrawnA, withdrawnB, nil
}

// CollectFee is spec §4.7's collect_fee.
func (p *Pool) CollectFee(caller Principal, index PositionIndex, recalculate bool) (assetA, assetB Asset, err error) {
	pos, err := p.getPosition(index)
	if err != nil {
		return Asset{}, Asset{}, err
	}
	if err := p.authorizePosition(caller, index); err != nil {
		return Asset{}, Asset{}, err
	}
	if recalculate {
		if err := p.updateRewarders(); err != nil {
			return Asset{}, Asset{}, err
		}
		if err := p.refreshPosition(pos); err != nil {
			return Asset{}, Asset{}, err
		}
	}

	owedA, owedB := pos.FeeOwedA, pos.FeeOwedB
	pos.FeeOwedA, pos.FeeOwedB = 0, 0

	withdrawnA, err := p.vault.Withdraw(p.tokenA, owedA)
	if err != nil {
		return Asset{}, Asset{}, err
	}
	withdrawnB, err := p.vault.Withdraw(p.tokenB, owedB)
	if err != nil {
		return Asset{}, Asset{}, err
	}

	p.emit(CollectFeeEvent{Pool: p.address, Index: index, AmountA: owedA, AmountB: owedB})
	return withdrawnA, withdrawnB, nil
}

// CollectRewarder is spec §4.7's collect_rewarder, for a single slot.
func (p *Pool) CollectRewarder(caller Principal, index PositionIndex, slot int, recalculate bool) (Asset, error) {
	if slot < 0 || slot >= RewarderCount {
		return Asset{}, ErrInvalidRewardIndex
	}
	pos, err := p.getPosition(index)
	if err != nil {
		return Asset{}, err
	}
	if err := p.authorizePosition(caller, index); err != nil {
		return Asset{}, err
	}
	if recalculate {
		if err := p.updateRewarders(); err != nil {
			return Asset{}, err
		}
		if err := p.refreshPosition(pos); err != nil {
			return Asset{}, err
		}
	}

	owed := pos.RewardOwed[slot]
	pos.RewardOwed[slot] = 0

	asset, err := p.vault.Withdraw(p.rewarders[slot].Token, owed)
	if err != nil {
		return Asset{}, err
	}
	p.emit(CollectRewardEvent{Pool: p.address, Index: index, Slot: slot, Amount: owed})
	return asset, nil
}

// CollectProtocolFee drains the pool's accrued protocol-fee counters. Only
// the protocol fee-claim authority may call it.
func (p *Pool) CollectProtocolFee(caller Principal) (assetA, assetB Asset, err error) {
	if p.acl == nil || !p.acl.IsProtocolFeeClaimAuthority(caller) {
		return Asset{}, Asset{}, ErrNoPrivilege
	}
	owedA, owedB := p.feeProtocolA, p.feeProtocolB
	p.feeProtocolA, p.feeProtocolB = 0, 0

	withdrawnA, err := p.vault.Withdraw(p.tokenA, owedA)
	if err != nil {
		return Asset{}, Asset{}, err
	}
	withdrawnB, err := p.vault.Withdraw(p.tokenB, owedB)
	if err != nil {
		return Asset{}, Asset{}, err
	}
	p.emit(CollectProtocolFeeEvent{Pool: p.address, Caller: caller, AmountA: owedA, AmountB: owedB})
	return withdrawnA, withdrawnB, nil
}
