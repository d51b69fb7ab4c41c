package clmm

import (
	"github.com/holiman/uint256"
)

// SwapFeeDenominator is D in spec §4.3/§4.7's fee arithmetic.
const SwapFeeDenominator uint64 = 1_000_000

// MaxFeeRate is the largest fee_rate a pool may be configured with (20%).
const MaxFeeRate uint32 = 200_000

// getAmount0Delta returns the exact token-A amount needed to move the price
// between sqrtLower and sqrtUpper (sqrtUpper >= sqrtLower) at liquidity L:
// Δx = L·(√Pb − √Pa)/(√Pa·√Pb), computed as
// mulDivCeil/Floor(L<<64, diff, sqrtUpper) / sqrtLower to keep every
// intermediate product within a 512-bit window (the same two-division shape
// Uniswap v3's SqrtPriceMath.getAmount0Delta uses for its Q96 format).
func getAmount0Delta(sqrtLower, sqrtUpper, liquidity U128, roundUp bool) (U128, error) {
	diff, err := checkedSubU128(sqrtUpper, sqrtLower)
	if err != nil {
		return u128Zero, err
	}
	if diff.IsZero() || liquidity.IsZero() {
		return u128Zero, nil
	}
	numerator1 := new(uint256.Int).Lsh(u256FromU128(liquidity), 64)
	diffU := u256FromU128(diff)
	sqrtUpperU := u256FromU128(sqrtUpper)
	sqrtLowerU := u256FromU128(sqrtLower)

	var inter *uint256.Int
	if roundUp {
		inter, err = mulDivCeilU256(numerator1, diffU, sqrtUpperU)
	} else {
		inter, err = mulDivFloorU256(numerator1, diffU, sqrtUpperU)
	}
	if err != nil {
		return u128Zero, err
	}

	var result *uint256.Int
	if roundUp {
		result, err = divCeilU256(inter, sqrtLowerU)
		if err != nil {
			return u128Zero, err
		}
	} else {
		result = new(uint256.Int).Div(inter, sqrtLowerU)
	}
	return u128FromU256(result)
}

// getAmount1Delta returns the exact token-B amount needed to move the price
// between sqrtLower and sqrtUpper at liquidity L: Δy = L·(√Pb − √Pa).
func getAmount1Delta(sqrtLower, sqrtUpper, liquidity U128, roundUp bool) (U128, error) {
	diff, err := checkedSubU128(sqrtUpper, sqrtLower)
	if err != nil {
		return u128Zero, err
	}
	if diff.IsZero() || liquidity.IsZero() {
		return u128Zero, nil
	}
	product := new(uint256.Int).Mul(u256FromU128(liquidity), u256FromU128(diff))
	shifted := new(uint256.Int).Rsh(product, 64)
	if roundUp {
		mask := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 64), uint256.NewInt(1))
		rem := new(uint256.Int).And(product, mask)
		if !rem.IsZero() {
			shifted = new(uint256.Int).AddUint64(shifted, 1)
		}
	}
	return u128FromU256(shifted)
}

// nextSqrtPriceFromAmount0 inverts getAmount0Delta: given a known amount of
// token A entering (add) or leaving (!add) the pool, returns the resulting
// √price. sqrtQ = ceil((L<<64)·sqrtP / ((L<<64) ± amount·sqrtP)).
func nextSqrtPriceFromAmount0(sqrtP, liquidity U128, amount uint64, add bool) (U128, error) {
	if amount == 0 {
		return sqrtP, nil
	}
	numerator1 := new(uint256.Int).Lsh(u256FromU128(liquidity), 64)
	sqrtPu := u256FromU128(sqrtP)
	product := new(uint256.Int).Mul(uint256.NewInt(amount), sqrtPu)

	var denom *uint256.Int
	if add {
		denom = new(uint256.Int).Add(numerator1, product)
	} else {
		if product.Cmp(numerator1) >= 0 {
			return u128Zero, ErrNotEnoughLiquidity
		}
		denom = new(uint256.Int).Sub(numerator1, product)
	}
	q, err := mulDivCeilU256(numerator1, sqrtPu, denom)
	if err != nil {
		return u128Zero, err
	}
	return u128FromU256(q)
}

// nextSqrtPriceFromAmount1 inverts getAmount1Delta: given a known amount of
// token B entering (add) or leaving (!add) the pool, returns the resulting
// √price. sqrtQ = sqrtP ± amount<<64/L.
func nextSqrtPriceFromAmount1(sqrtP, liquidity U128, amount uint64, add bool) (U128, error) {
	if amount == 0 {
		return sqrtP, nil
	}
	shifted := new(uint256.Int).Lsh(uint256.NewInt(amount), 64)
	Lu := u256FromU128(liquidity)
	sqrtPu := u256FromU128(sqrtP)

	if add {
		quotient := new(uint256.Int).Div(shifted, Lu)
		result := new(uint256.Int).Add(sqrtPu, quotient)
		return u128FromU256(result)
	}
	quotient, err := divCeilU256(shifted, Lu)
	if err != nil {
		return u128Zero, err
	}
	if quotient.Cmp(sqrtPu) >= 0 {
		return u128Zero, ErrNotEnoughLiquidity
	}
	result := new(uint256.Int).Sub(sqrtPu, quotient)
	return u128FromU256(result)
}

func nextSqrtPriceFromInput(sqrtP, liquidity U128, amountIn uint64, aToB bool) (U128, error) {
	if aToB {
		return nextSqrtPriceFromAmount0(sqrtP, liquidity, amountIn, true)
	}
	return nextSqrtPriceFromAmount1(sqrtP, liquidity, amountIn, true)
}

func nextSqrtPriceFromOutput(sqrtP, liquidity U128, amountOut uint64, aToB bool) (U128, error) {
	if aToB {
		return nextSqrtPriceFromAmount1(sqrtP, liquidity, amountOut, false)
	}
	return nextSqrtPriceFromAmount0(sqrtP, liquidity, amountOut, false)
}

// SwapStepResult is C3's return value.
type SwapStepResult struct {
	AmountIn      uint64
	AmountOut     uint64
	FeeAmount     uint64
	SqrtPriceNext U128
}

// ComputeSwapStep is C3: given the current and target √price, the active
// liquidity, a remaining amount, a fee rate (over SwapFeeDenominator), the
// swap direction, and whether amountRemaining is denominated in the input or
// output token, advances the price by at most one step (never past
// sqrtPriceTarget) and reports the amounts crossed and the fee taken.
func ComputeSwapStep(sqrtPriceCurrent, sqrtPriceTarget, liquidity U128, amountRemaining uint64, feeRate uint32, aToB bool, byAmountIn bool) (SwapStepResult, error) {
	if aToB && sqrtPriceCurrent.Cmp(sqrtPriceTarget) < 0 {
		return SwapStepResult{}, ErrWrongSqrtPriceLimit
	}
	if !aToB && sqrtPriceCurrent.Cmp(sqrtPriceTarget) >= 0 {
		return SwapStepResult{}, ErrWrongSqrtPriceLimit
	}
	if feeRate > MaxFeeRate {
		return SwapStepResult{}, ErrInvalidFeeRate
	}
	if liquidity.IsZero() {
		return SwapStepResult{SqrtPriceNext: sqrtPriceTarget}, nil
	}

	feeRateU64 := uint64(feeRate)
	D := SwapFeeDenominator

	var res SwapStepResult

	if byAmountIn {
		amountRemainNet := mulDivFloorU64(amountRemaining, D-feeRateU64, D)

		var maxInToTarget U128
		var err error
		if aToB {
			maxInToTarget, err = getAmount0Delta(sqrtPriceTarget, sqrtPriceCurrent, liquidity, true)
		} else {
			maxInToTarget, err = getAmount1Delta(sqrtPriceCurrent, sqrtPriceTarget, liquidity, true)
		}
		if err != nil {
			return SwapStepResult{}, err
		}
		maxInU64, err := u64FromU128(maxInToTarget, ErrMultiplicationOverflow)
		if err != nil {
			return SwapStepResult{}, err
		}

		if maxInU64 > amountRemainNet {
			res.AmountIn = amountRemainNet
			res.SqrtPriceNext, err = nextSqrtPriceFromInput(sqrtPriceCurrent, liquidity, amountRemainNet, aToB)
			if err != nil {
				return SwapStepResult{}, err
			}
			res.FeeAmount = amountRemaining - amountRemainNet
		} else {
			res.AmountIn = maxInU64
			res.SqrtPriceNext = sqrtPriceTarget
			res.FeeAmount = mulDivCeilU64(maxInU64, feeRateU64, D-feeRateU64)
		}

		var amountOutU128 U128
		if aToB {
			amountOutU128, err = getAmount1Delta(res.SqrtPriceNext, sqrtPriceCurrent, liquidity, false)
		} else {
			amountOutU128, err = getAmount0Delta(sqrtPriceCurrent, res.SqrtPriceNext, liquidity, false)
		}
		if err != nil {
			return SwapStepResult{}, err
		}
		res.AmountOut, err = u64FromU128(amountOutU128, ErrMultiplicationOverflow)
		if err != nil {
			return SwapStepResult{}, err
		}
	} else {
		var maxOutToTarget U128
		var err error
		if aToB {
			maxOutToTarget, err = getAmount1Delta(sqrtPriceTarget, sqrtPriceCurrent, liquidity, false)
		} else {
			maxOutToTarget, err = getAmount0Delta(sqrtPriceCurrent, sqrtPriceTarget, liquidity, false)
		}
		if err != nil {
			return SwapStepResult{}, err
		}
		maxOutU64, err := u64FromU128(maxOutToTarget, ErrMultiplicationOverflow)
		if err != nil {
			return SwapStepResult{}, err
		}

		if maxOutU64 > amountRemaining {
			res.AmountOut = amountRemaining
			res.SqrtPriceNext, err = nextSqrtPriceFromOutput(sqrtPriceCurrent, liquidity, amountRemaining, aToB)
			if err != nil {
				return SwapStepResult{}, err
			}
		} else {
			res.AmountOut = maxOutU64
			res.SqrtPriceNext = sqrtPriceTarget
		}

		var amountInU128 U128
		if aToB {
			amountInU128, err = getAmount0Delta(res.SqrtPriceNext, sqrtPriceCurrent, liquidity, true)
		} else {
			amountInU128, err = getAmount1Delta(sqrtPriceCurrent, res.SqrtPriceNext, liquidity, true)
		}
		if err != nil {
			return SwapStepResult{}, err
		}
		res.AmountIn, err = u64FromU128(amountInU128, ErrMultiplicationOverflow)
		if err != nil {
			return SwapStepResult{}, err
		}
		res.FeeAmount = mulDivCeilU64(res.AmountIn, feeRateU64, D-feeRateU64)
	}

	return res, nil
}
