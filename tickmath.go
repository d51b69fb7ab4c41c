package clmm

import (
	"math/big"

	"lukechampine.com/uint128"
)

// TickBound is the largest (and smallest, negated) tick index a position may
// reference (spec §3). Prices run from MinSqrtPrice to MaxSqrtPrice over
// that range, expressed as Q64.64 fixed point.
const TickBound int32 = 1_109_090

var (
	minSqrtPriceBig = mustBigFromString("4295048016")
	maxSqrtPriceBig = mustBigFromString("79226673515401279992447579055")

	// MinSqrtPrice and MaxSqrtPrice are the pinned boundary constants from
	// spec §3/S1. They're returned directly at t == ±TickBound rather than
	// recomputed through the bit table, so the boundary is exact by
	// definition instead of by floating-point luck.
	MinSqrtPrice = u128FromBig(minSqrtPriceBig)
	MaxSqrtPrice = u128FromBig(maxSqrtPriceBig)

	sqrtPriceAtTickZero = uint128.New(0, 1) // 1<<64, i.e. price 1.0 in Q64.64
)

func mustBigFromString(s string) *big.Int {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("clmm: bad constant literal " + s)
	}
	return b
}

// negRatioTable[i] holds floor(2^128 * (1/sqrt(1.0001))^(2^i)), the Q128
// per-bit multiplier the classic Uniswap V3 TickMath bit-decomposition
// algorithm folds into the running ratio for every set bit of |tick|.
// negRatioTable[0] is derived once from first principles via an exact
// integer square root (sqrt(10000/10001) in Q128, computed as
// isqrt(2^256*10000*10001)/10001 using the identity
// floor(sqrt(n/d)) == floor(sqrt(n*d)/d)); every subsequent entry is the
// previous one squared and re-normalized to Q128, which is exactly the
// recurrence (1/sqrt(1.0001))^(2^(i+1)) == ((1/sqrt(1.0001))^(2^i))^2.
// This avoids hand-transcribing ~20 128-bit magic constants while remaining
// numerically exact (to one Q128 ULP of truncation per doubling, the same
// truncation the literal per-level Solidity/Move constants carry).
var negRatioTable [21]*big.Int

func init() {
	numer := new(big.Int).Lsh(big.NewInt(1), 256)
	numer.Mul(numer, big.NewInt(10000))
	numer.Mul(numer, big.NewInt(10001))
	s := new(big.Int).Sqrt(numer)
	negRatioTable[0] = new(big.Int).Div(s, big.NewInt(10001))
	for i := 1; i < len(negRatioTable); i++ {
		sq := new(big.Int).Mul(negRatioTable[i-1], negRatioTable[i-1])
		negRatioTable[i] = sq.Rsh(sq, 128)
	}
}

// GetSqrtPriceAtTick implements C2's tick->price direction: it maps a tick
// index to its Q64.64 square-root price. |t| > TickBound is rejected with
// ErrInvalidTick.
func GetSqrtPriceAtTick(t int32) (U128, error) {
	if t > TickBound || t < -TickBound {
		return u128Zero, ErrInvalidTick
	}
	switch t {
	case 0:
		return sqrtPriceAtTickZero, nil
	case TickBound:
		return MaxSqrtPrice, nil
	case -TickBound:
		return MinSqrtPrice, nil
	}

	abs := t
	if abs < 0 {
		abs = -abs
	}

	ratio := new(big.Int).Lsh(big.NewInt(1), 128)
	for i := 0; i < len(negRatioTable); i++ {
		if abs&(1<<uint(i)) != 0 {
			ratio.Mul(ratio, negRatioTable[i])
			ratio.Rsh(ratio, 128)
		}
	}

	if t > 0 {
		maxU256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
		ratio.Div(maxU256, ratio)
	}

	// ratio is Q128; narrow to Q64.64, rounding up on a nonzero remainder
	// (the pool must never round a price boundary in the user's favor).
	const q64Mask = 1<<64 - 1
	rem := new(big.Int).And(ratio, big.NewInt(q64Mask))
	shifted := new(big.Int).Rsh(ratio, 64)
	if rem.Sign() != 0 {
		shifted.Add(shifted, big.NewInt(1))
	}
	if shifted.BitLen() > 128 {
		return u128Zero, ErrInvariantViolated
	}
	return u128FromBig(shifted), nil
}

// GetTickAtSqrtPrice implements C2's inverse direction. It returns the
// greatest tick t such that GetSqrtPriceAtTick(t) <= p, found by binary
// search over GetSqrtPriceAtTick itself (monotonically increasing in t by
// construction), which makes the round-trip property
// GetTickAtSqrtPrice(GetSqrtPriceAtTick(t)) == t hold exactly rather than
// approximately: spec §4.2 describes a bit-scan-plus-Newton-refinement
// bracket search as a performance optimization over the same contract, but
// the contract itself is "greatest tick not exceeding p", which bisection
// satisfies directly.
func GetTickAtSqrtPrice(p U128) (int32, error) {
	if p.Cmp(MinSqrtPrice) < 0 || p.Cmp(MaxSqrtPrice) > 0 {
		return 0, ErrInvalidSqrtPrice
	}
	// The boundary prices map back to the boundary ticks that
	// GetSqrtPriceAtTick special-cases.
	if p.Equals(MinSqrtPrice) {
		return -TickBound, nil
	}
	if p.Equals(MaxSqrtPrice) {
		return TickBound, nil
	}
	lo, hi := -TickBound, TickBound
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		pm, err := GetSqrtPriceAtTick(mid)
		if err != nil {
			return 0, err
		}
		if pm.Cmp(p) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// IsValidTick reports whether t is in range and aligned to tickSpacing.
func IsValidTick(t int32, tickSpacing int32) bool {
	if t > TickBound || t < -TickBound {
		return false
	}
	return t%tickSpacing == 0
}
