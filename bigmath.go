package clmm

import (
	"math/big"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// U128 is the engine's unsigned 128-bit type: liquidity, sqrt prices, and
// growth accumulators are all stored this way. lukechampine.com/uint128
// already gives Add/Sub/Cmp with native-uint wraparound semantics, which is
// exactly what the wrapping growth accumulators in spec I3 require, so this
// is a thin alias rather than a reimplementation.
type U128 = uint128.Uint128

var (
	u128Zero = uint128.Zero
	u128One  = uint128.From64(1)
	u128Max  = uint128.Max
)

func u128FromU64(v uint64) U128 { return uint128.From64(v) }

// U128FromU64 is the exported constructor for collaborators and CLI callers
// outside the package that need to build a raw Q64.64 value.
func U128FromU64(v uint64) U128 { return uint128.From64(v) }

func u128FromBig(b *big.Int) U128 {
	if b.Sign() < 0 || b.BitLen() > 128 {
		panic("clmm: value out of range for U128")
	}
	return uint128.FromBig(b)
}

func bigFromU128(v U128) *big.Int {
	return v.Big()
}

// checkedAddU128 adds two U128 values, failing with ErrLiquidityOverflow if
// the true sum does not fit in 128 bits. Used for liquidity_gross and
// position.L, which must never silently wrap (I2).
func checkedAddU128(a, b U128) (U128, error) {
	sum := a.Add(b)
	if sum.Cmp(a) < 0 {
		return u128Zero, ErrLiquidityOverflow
	}
	return sum, nil
}

// checkedSubU128 subtracts b from a, failing with ErrLiquidityUnderflow on
// borrow.
func checkedSubU128(a, b U128) (U128, error) {
	if a.Cmp(b) < 0 {
		return u128Zero, ErrLiquidityUnderflow
	}
	return a.Sub(b), nil
}

// wrappingAddU128 and wrappingSubU128 are the explicit wrapping counterparts
// used by growth accumulators (I3). They exist purely for call-site clarity;
// lukechampine's Add/Sub already wrap.
func wrappingAddU128(a, b U128) U128 { return a.Add(b) }
func wrappingSubU128(a, b U128) U128 { return a.Sub(b) }

// checkedAddU64 / checkedSubU64 are the native-width equivalents:
// checkedAddU64 for fee_owed_*/reward_owed_* accrual and Asset.Merge,
// checkedSubU64 for the swap loop's remaining amount. The protocol fee
// counters are added to with plain (wrapping) uint64 addition.
func checkedAddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrFeeOverflow
	}
	return sum, nil
}

func checkedSubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrRemainderUnderflow
	}
	return a - b, nil
}

// Int128 is a signed 128-bit integer, used only for tick.liquidity_net.
// There is no native Go int128, and wrapping signed semantics are never
// required here (I2's checked arithmetic is), so this is backed by a bounded
// math/big.Int rather than a hand-rolled two's-complement type — the same
// representation guidebee-SolRoute's Whirlpool port uses for LiquidityNet.
type Int128 struct {
	v *big.Int
}

var (
	int128Min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	int128Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
)

func zeroInt128() Int128 { return Int128{v: new(big.Int)} }

func int128FromU128(magnitude U128, negative bool) Int128 {
	b := bigFromU128(magnitude)
	if negative {
		b = new(big.Int).Neg(b)
	}
	return Int128{v: b}
}

func (i Int128) IsZero() bool { return i.v.Sign() == 0 }
func (i Int128) Neg() Int128  { return Int128{v: new(big.Int).Neg(i.v)} }
func (i Int128) Sign() int    { return i.v.Sign() }
func (i Int128) String() string { return i.v.String() }

// Add returns i+j, failing with ErrLiquidityOverflow/ErrLiquidityUnderflow if
// the result falls outside [-2^127, 2^127-1].
func (i Int128) Add(j Int128) (Int128, error) {
	sum := new(big.Int).Add(i.v, j.v)
	if sum.Cmp(int128Max) > 0 {
		return Int128{}, ErrLiquidityOverflow
	}
	if sum.Cmp(int128Min) < 0 {
		return Int128{}, ErrLiquidityUnderflow
	}
	return Int128{v: sum}, nil
}

// AsU128 converts a signed value known to be non-negative into a
// U128, panicking otherwise (callers must check Sign() first).
func (i Int128) AsU128() U128 {
	if i.v.Sign() < 0 {
		panic("clmm: AsU128 called on negative Int128")
	}
	return u128FromBig(i.v)
}

// ---- 256-bit intermediate math (mul_div / mul_shr) ----

func u256FromU128(v U128) *uint256.Int {
	b := bigFromU128(v)
	z, _ := uint256.FromBig(b)
	return z
}

func u128FromU256(z *uint256.Int) (U128, error) {
	if z.BitLen() > 128 {
		return u128Zero, ErrMultiplicationOverflow
	}
	return u128FromBig(z.ToBig()), nil
}

// mulDivFloor computes floor(a*b/denom) using a 256-bit intermediate product,
// matching the C1 contract. Division by zero returns ErrDivByZero.
func mulDivFloor(a, b, denom U128) (U128, error) {
	if denom.IsZero() {
		return u128Zero, ErrDivByZero
	}
	x, y, d := u256FromU128(a), u256FromU128(b), u256FromU128(denom)
	q := new(uint256.Int)
	overflow := q.MulDivOverflow(x, y, d)
	if overflow {
		return u128Zero, ErrMultiplicationOverflow
	}
	return u128FromU256(q)
}

// mulDivCeil computes ceil(a*b/denom).
func mulDivCeil(a, b, denom U128) (U128, error) {
	if denom.IsZero() {
		return u128Zero, ErrDivByZero
	}
	x, y, d := u256FromU128(a), u256FromU128(b), u256FromU128(denom)
	q := new(uint256.Int)
	if q.MulDivOverflow(x, y, d) {
		return u128Zero, ErrMultiplicationOverflow
	}
	rem := new(uint256.Int).MulMod(x, y, d)
	if !rem.IsZero() {
		q = new(uint256.Int).AddUint64(q, 1)
	}
	return u128FromU256(q)
}

// mulDivRound computes round-half-up(a*b/denom), acceptable per spec ("half
// to even not required").
func mulDivRound(a, b, denom U128) (U128, error) {
	if denom.IsZero() {
		return u128Zero, ErrDivByZero
	}
	x, y, d := u256FromU128(a), u256FromU128(b), u256FromU128(denom)
	q := new(uint256.Int)
	if q.MulDivOverflow(x, y, d) {
		return u128Zero, ErrMultiplicationOverflow
	}
	rem := new(uint256.Int).MulMod(x, y, d)
	twiceRem := new(uint256.Int).Lsh(rem, 1)
	if twiceRem.Cmp(d) >= 0 {
		q = new(uint256.Int).AddUint64(q, 1)
	}
	return u128FromU256(q)
}

// mulShr computes floor((a*b) >> n) through a 256-bit intermediate product
// and returns the raw uint256 result: a and b are each at most 128 bits, so
// the product never overflows 256 bits, but the shifted result can still
// exceed 128 bits (e.g. two near-max liquidity/growth values shifted by only
// 64). Callers narrow with u64FromU256 (checked) once they know the value is
// expected to fit a u64 owed-amount field.
func mulShr(a, b U128, n uint) *uint256.Int {
	x, y := u256FromU128(a), u256FromU128(b)
	product := new(uint256.Int).Mul(x, y)
	product.Rsh(product, n)
	return product
}

// u64FromU256 narrows a uint256 result to uint64, failing with the supplied
// error tag (FeeOverflow/RewardOverflow) if it does not fit.
func u64FromU256(z *uint256.Int, overflowErr error) (uint64, error) {
	if !z.IsUint64() {
		return 0, overflowErr
	}
	return z.Uint64(), nil
}

// u64FromU128 narrows a U128 to uint64, failing with the supplied error tag
// if the high word is nonzero. Used for swap-step amounts, which spec §4.3
// types as u64.
func u64FromU128(v U128, overflowErr error) (uint64, error) {
	if v.Hi != 0 {
		return 0, overflowErr
	}
	return v.Lo, nil
}

// ---- wide helpers taking raw *uint256.Int operands (up to 256 bits each),
// used by the swap-step math in swapmath.go where intermediates like L<<64
// routinely exceed 128 bits. ----

func mulDivFloorU256(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivByZero
	}
	q := new(uint256.Int)
	if q.MulDivOverflow(x, y, d) {
		return nil, ErrMultiplicationOverflow
	}
	return q, nil
}

func mulDivCeilU256(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivByZero
	}
	q := new(uint256.Int)
	if q.MulDivOverflow(x, y, d) {
		return nil, ErrMultiplicationOverflow
	}
	rem := new(uint256.Int).MulMod(x, y, d)
	if !rem.IsZero() {
		q = new(uint256.Int).AddUint64(q, 1)
	}
	return q, nil
}

func divCeilU256(x, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivByZero
	}
	q, rem := new(uint256.Int), new(uint256.Int)
	q.DivMod(x, d, rem)
	if !rem.IsZero() {
		q = new(uint256.Int).AddUint64(q, 1)
	}
	return q, nil
}

// mulDivFloorU64 / mulDivCeilU64 are the native-width scalar equivalents used
// for fee-rate arithmetic (amount*(D-fee_rate)/D and friends), where the
// product of two uint64 values can exceed 64 bits but the result is known to
// fit back in one.
func mulDivFloorU64(a, b, d uint64) uint64 {
	x := new(big.Int).SetUint64(a)
	x.Mul(x, new(big.Int).SetUint64(b))
	x.Div(x, new(big.Int).SetUint64(d))
	return x.Uint64()
}

func mulDivCeilU64(a, b, d uint64) uint64 {
	x := new(big.Int).SetUint64(a)
	x.Mul(x, new(big.Int).SetUint64(b))
	q, r := new(big.Int), new(big.Int)
	q.DivMod(x, new(big.Int).SetUint64(d), r)
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.Uint64()
}
