package clmm

import "github.com/holiman/uint256"

// protocolFeeSplitDenominator is D=10_000 in spec §4.7's fee-split formula
// (distinct from SwapFeeDenominator, which is the per-step fee rate's own
// D=1_000_000).
const protocolFeeSplitDenominator = 10_000

// FlashSwapReceipt is flash_swap's must-use settlement object (spec §4.7
// step 6), the swap-side analogue of AddLiquidityReceipt.
type FlashSwapReceipt struct {
	pool         *Pool
	payAmount    uint64
	refFeeAmount uint64
	aToB         bool
	partner      string
	consumed     bool
}

func (r *FlashSwapReceipt) PayAmount() uint64    { return r.payAmount }
func (r *FlashSwapReceipt) RefFeeAmount() uint64 { return r.refFeeAmount }

// RepayFlashSwap consumes a FlashSwapReceipt: the paid-in asset must match
// pay_amount exactly; the referral share is extracted and routed to the
// partner collaborator, the remainder deposited to the vault, and the
// zero-value asset on the untouched side is required to actually be zero.
func RepayFlashSwap(receipt *FlashSwapReceipt, assetA, assetB Asset) error {
	if receipt == nil || receipt.consumed {
		return ErrAmountIncorrect
	}
	var in *Asset
	var outSide *Asset
	if receipt.aToB {
		in, outSide = &assetA, &assetB
	} else {
		in, outSide = &assetB, &assetA
	}
	if in.token != (receipt.pool.sideToken(receipt.aToB)) || in.Amount() != receipt.payAmount {
		return ErrAmountIncorrect
	}
	if !outSide.IsZero() {
		return ErrAmountIncorrect
	}
	receipt.consumed = true

	if receipt.refFeeAmount > 0 {
		refAsset, err := in.Extract(receipt.refFeeAmount)
		if err != nil {
			return err
		}
		if receipt.pool.partners != nil {
			if err := receipt.pool.partners.ReceiveRefFee(receipt.partner, refAsset); err != nil {
				return err
			}
		}
	}
	if !in.IsZero() {
		if err := receipt.pool.vault.Deposit(*in); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) sideToken(aToB bool) TokenId {
	if aToB {
		return p.tokenA
	}
	return p.tokenB
}

func maxU128(a, b U128) U128 {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func minU128(a, b U128) U128 {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// applySignedLiquidity applies a signed liquidity_net contribution to
// liquidity_active, checked per I2/§4.7 step 4e.
func (p *Pool) applySignedLiquidity(delta Int128) error {
	if delta.Sign() >= 0 {
		na, err := checkedAddU128(p.liquidityActive, delta.AsU128())
		if err != nil {
			return err
		}
		p.liquidityActive = na
		return nil
	}
	na, err := checkedSubU128(p.liquidityActive, delta.Neg().AsU128())
	if err != nil {
		return err
	}
	p.liquidityActive = na
	return nil
}

// applyFeeSplit is spec §4.7's "Fee split": carve the step's fee into
// protocol/referral/liquidity-provider shares, crediting each.
func (p *Pool) applyFeeSplit(stepFee uint64, aToB bool, protocolFeeRate, refFeeRate uint64) (refFee uint64, err error) {
	protocolFee := mulDivCeilU64(stepFee, protocolFeeRate, protocolFeeSplitDenominator)
	liquidityFee := stepFee - protocolFee
	refFee = mulDivFloorU64(protocolFee, refFeeRate, protocolFeeSplitDenominator)
	protocolFee -= refFee

	if aToB {
		p.feeProtocolA += protocolFee
	} else {
		p.feeProtocolB += protocolFee
	}

	if liquidityFee > 0 && !p.liquidityActive.IsZero() {
		shifted := new(uint256.Int).Lsh(uint256.NewInt(liquidityFee), 64)
		q := new(uint256.Int).Div(shifted, u256FromU128(p.liquidityActive))
		growthDelta, err := u128FromU256(q)
		if err != nil {
			return 0, err
		}
		if aToB {
			p.feeGrowthGlobalA = p.feeGrowthGlobalA.Add(growthDelta)
		} else {
			p.feeGrowthGlobalB = p.feeGrowthGlobalB.Add(growthDelta)
		}
	}
	return refFee, nil
}

// FlashSwap is spec §4.7's flash_swap.
func (p *Pool) FlashSwap(caller Principal, aToB, byAmountIn bool, amount uint64, sqrtPriceLimit U128, partner string) (assetA, assetB Asset, receipt *FlashSwapReceipt, err error) {
	if p.isPaused() {
		return Asset{}, Asset{}, nil, ErrPoolIsPaused
	}
	if amount == 0 {
		return Asset{}, Asset{}, nil, ErrAmountIncorrect
	}

	var refFeeRate uint64
	if partner != "" && p.partners != nil {
		refFeeRate, err = p.partners.PartnerRefFeeRate(partner)
		if err != nil {
			return Asset{}, Asset{}, nil, err
		}
	}
	var protocolFeeRate uint64
	if p.protocolFeeSource != nil {
		protocolFeeRate = p.protocolFeeSource.ProtocolFeeRate()
	}

	if err := p.updateRewarders(); err != nil {
		return Asset{}, Asset{}, nil, err
	}

	if aToB {
		if p.sqrtPriceCurrent.Cmp(sqrtPriceLimit) <= 0 || sqrtPriceLimit.Cmp(MinSqrtPrice) < 0 {
			return Asset{}, Asset{}, nil, ErrWrongSqrtPriceLimit
		}
	} else {
		if p.sqrtPriceCurrent.Cmp(sqrtPriceLimit) >= 0 || sqrtPriceLimit.Cmp(MaxSqrtPrice) > 0 {
			return Asset{}, Asset{}, nil, ErrWrongSqrtPriceLimit
		}
	}

	remaining := amount
	var totalIn, totalOut, totalFee, totalRef uint64

	for remaining > 0 && !p.sqrtPriceCurrent.Equals(sqrtPriceLimit) {
		nextTickIdx, ok := p.ticks.nextInitializedTick(p.tickCurrent, aToB)
		if !ok {
			return Asset{}, Asset{}, nil, ErrNotEnoughLiquidity
		}
		priceAtNext, err := GetSqrtPriceAtTick(nextTickIdx)
		if err != nil {
			return Asset{}, Asset{}, nil, err
		}
		var target U128
		if aToB {
			target = maxU128(sqrtPriceLimit, priceAtNext)
		} else {
			target = minU128(sqrtPriceLimit, priceAtNext)
		}

		step, err := ComputeSwapStep(p.sqrtPriceCurrent, target, p.liquidityActive, remaining, p.feeRate, aToB, byAmountIn)
		if err != nil {
			return Asset{}, Asset{}, nil, err
		}

		var consumed uint64
		if byAmountIn {
			consumed = step.AmountIn + step.FeeAmount
		} else {
			consumed = step.AmountOut
		}
		remaining, err = checkedSubU64(remaining, consumed)
		if err != nil {
			return Asset{}, Asset{}, nil, err
		}
		totalIn += step.AmountIn
		totalOut += step.AmountOut
		totalFee += step.FeeAmount

		ref, err := p.applyFeeSplit(step.FeeAmount, aToB, protocolFeeRate, refFeeRate)
		if err != nil {
			return Asset{}, Asset{}, nil, err
		}
		totalRef += ref

		if step.SqrtPriceNext.Equals(priceAtNext) {
			tick, ok := p.ticks.get(nextTickIdx)
			if !ok {
				return Asset{}, Asset{}, nil, ErrInvariantViolated
			}
			if aToB {
				p.tickCurrent = nextTickIdx - 1
			} else {
				p.tickCurrent = nextTickIdx
			}
			net := tick.cross(p.feeGrowthGlobalA, p.feeGrowthGlobalB, p.rewarderGlobals())
			if aToB {
				net = net.Neg()
			}
			if err := p.applySignedLiquidity(net); err != nil {
				return Asset{}, Asset{}, nil, err
			}
			p.sqrtPriceCurrent = step.SqrtPriceNext
		} else {
			p.sqrtPriceCurrent = step.SqrtPriceNext
			p.tickCurrent, err = GetTickAtSqrtPrice(step.SqrtPriceNext)
			if err != nil {
				return Asset{}, Asset{}, nil, err
			}
		}
	}

	outToken := p.tokenB
	if !aToB {
		outToken = p.tokenA
	}
	out, err := p.vault.Withdraw(outToken, totalOut)
	if err != nil {
		return Asset{}, Asset{}, nil, err
	}
	if aToB {
		assetB = out
		assetA = ZeroAsset(p.tokenA)
	} else {
		assetA = out
		assetB = ZeroAsset(p.tokenB)
	}

	p.emit(SwapEvent{
		AToB:      aToB,
		Pool:      p.address,
		SwapFrom:  caller,
		Partner:   partner,
		AmountIn:  totalIn,
		AmountOut: totalOut,
		RefAmount: totalRef,
		FeeAmount: totalFee,
	})

	receipt = &FlashSwapReceipt{
		pool:         p,
		payAmount:    totalIn + totalFee,
		refFeeAmount: totalRef,
		aToB:         aToB,
		partner:      partner,
	}
	return assetA, assetB, receipt, nil
}

// SwapStepTrace is one recorded step of a CalculateSwapResult dry run.
type SwapStepTrace struct {
	TickNext      int32
	SqrtPriceNext U128
	AmountIn      uint64
	AmountOut     uint64
	FeeAmount     uint64
}

// SwapResult is CalculateSwapResult's return value (SPEC_FULL §3).
type SwapResult struct {
	Steps     []SwapStepTrace
	AmountIn  uint64
	AmountOut uint64
	FeeAmount uint64
	IsExceed  bool
}

// CalculateSwapResult is the read-only simulation named in spec §4.7's last
// bullet: it replays the swap loop's price/amount math without mutating
// pool state (no tick crossing side effects, no fee-growth or
// liquidity_active writes), returning a step trace and an IsExceed flag if
// it runs off the end of the initialized tick range.
func (p *Pool) CalculateSwapResult(aToB, byAmountIn bool, amount uint64, sqrtPriceLimit U128) (SwapResult, error) {
	sqrtPriceCurrent := p.sqrtPriceCurrent
	tickCurrent := p.tickCurrent
	liquidityActive := p.liquidityActive

	var result SwapResult
	remaining := amount

	for remaining > 0 && !sqrtPriceCurrent.Equals(sqrtPriceLimit) {
		nextTickIdx, ok := p.ticks.nextInitializedTick(tickCurrent, aToB)
		if !ok {
			result.IsExceed = true
			break
		}
		priceAtNext, err := GetSqrtPriceAtTick(nextTickIdx)
		if err != nil {
			return SwapResult{}, err
		}
		var target U128
		if aToB {
			target = maxU128(sqrtPriceLimit, priceAtNext)
		} else {
			target = minU128(sqrtPriceLimit, priceAtNext)
		}

		step, err := ComputeSwapStep(sqrtPriceCurrent, target, liquidityActive, remaining, p.feeRate, aToB, byAmountIn)
		if err != nil {
			return SwapResult{}, err
		}
		var consumed uint64
		if byAmountIn {
			consumed = step.AmountIn + step.FeeAmount
		} else {
			consumed = step.AmountOut
		}
		remaining, err = checkedSubU64(remaining, consumed)
		if err != nil {
			return SwapResult{}, err
		}

		result.Steps = append(result.Steps, SwapStepTrace{
			TickNext:      nextTickIdx,
			SqrtPriceNext: step.SqrtPriceNext,
			AmountIn:      step.AmountIn,
			AmountOut:     step.AmountOut,
			FeeAmount:     step.FeeAmount,
		})
		result.AmountIn += step.AmountIn
		result.AmountOut += step.AmountOut
		result.FeeAmount += step.FeeAmount

		if step.SqrtPriceNext.Equals(priceAtNext) {
			tick, ok := p.ticks.get(nextTickIdx)
			if !ok {
				return SwapResult{}, ErrInvariantViolated
			}
			if aToB {
				tickCurrent = nextTickIdx - 1
			} else {
				tickCurrent = nextTickIdx
			}
			net := tick.LiquidityNet
			if aToB {
				net = net.Neg()
			}
			if net.Sign() >= 0 {
				sum, err := checkedAddU128(liquidityActive, net.AsU128())
				if err != nil {
					return SwapResult{}, err
				}
				liquidityActive = sum
			} else {
				diff, err := checkedSubU128(liquidityActive, net.Neg().AsU128())
				if err != nil {
					return SwapResult{}, err
				}
				liquidityActive = diff
			}
			sqrtPriceCurrent = step.SqrtPriceNext
		} else {
			sqrtPriceCurrent = step.SqrtPriceNext
			tickCurrent, err = GetTickAtSqrtPrice(step.SqrtPriceNext)
			if err != nil {
				return SwapResult{}, err
			}
		}
	}

	return result, nil
}
