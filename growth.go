package clmm

// GrowthAccumulator is the "per unit liquidity ever earned" running total
// used for fee_growth_global_{a,b} and each rewarder's growth_global. It is
// a Q64.64 value that is expected to wrap modulo 2^128 (spec I3): a position
// that hasn't refreshed in a long time still recovers its correct accrual
// because `growth_inside = global - below - above` is computed with the same
// modular arithmetic on both sides. The type exists so call sites can't
// accidentally reach for a checked add/sub where only wrapping is correct.
type GrowthAccumulator struct {
	value U128
}

func zeroGrowth() GrowthAccumulator { return GrowthAccumulator{value: u128Zero} }

func growthFromU128(v U128) GrowthAccumulator { return GrowthAccumulator{value: v} }

func (g GrowthAccumulator) U128() U128 { return g.value }

// Add wraps modulo 2^128, matching lukechampine/uint128's native overflow
// behavior.
func (g GrowthAccumulator) Add(delta U128) GrowthAccumulator {
	return GrowthAccumulator{value: wrappingAddU128(g.value, delta)}
}

// Sub wraps modulo 2^128. This is the "outside" bookkeeping operation used
// on every tick cross (fee_growth_outside := global - outside) and every
// position refresh (growth - snapshot): both are expected to wrap when the
// side being subtracted is numerically larger, by I3.
func (g GrowthAccumulator) Sub(other GrowthAccumulator) U128 {
	return wrappingSubU128(g.value, other.value)
}

func (g GrowthAccumulator) Equal(other GrowthAccumulator) bool {
	return g.value.Equals(other.value)
}
