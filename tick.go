package clmm

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// RewarderCount is K from spec §3: "K = 3 in the reference configuration;
// treat K as a compile-time small constant."
const RewarderCount = 3

// Tick is one tick record (spec §3). liquidity_net is signed because a
// position's lower endpoint adds to active liquidity on an upward cross and
// its upper endpoint subtracts.
type Tick struct {
	Index                  int32
	LiquidityGross         U128
	LiquidityNet           Int128
	FeeGrowthOutsideA      GrowthAccumulator
	FeeGrowthOutsideB      GrowthAccumulator
	RewarderGrowthsOutside [RewarderCount]GrowthAccumulator
}

// TickView is a read-only snapshot of one tick record, exposed for external
// query and persistence (internal/storage) without handing out the live
// *Tick pointer.
type TickView struct {
	Index          int32
	LiquidityGross U128
	LiquidityNet   string
}

func (t *Tick) view() TickView {
	return TickView{Index: t.Index, LiquidityGross: t.LiquidityGross, LiquidityNet: t.LiquidityNet.String()}
}

// views returns every initialized tick record, ordered by index, for
// snapshot export.
func (m *tickManager) views() []TickView {
	out := make([]TickView, 0, len(m.ticks))
	for _, t := range m.ticks {
		out = append(out, t.view())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func newTick(index int32) *Tick {
	return &Tick{Index: index, LiquidityNet: zeroInt128()}
}

// tickManager owns every Tick record for one pool plus the directory that
// makes them enumerable during a swap. It mirrors the teacher's
// TickManager/CorePool split: the manager is the single place tick records
// are created, mutated, and destroyed.
type tickManager struct {
	tickSpacing int32
	ticks       map[int32]*Tick
	directory   *tickDirectory
}

func newTickManager(tickSpacing int32) *tickManager {
	return &tickManager{
		tickSpacing: tickSpacing,
		ticks:       make(map[int32]*Tick),
		directory:   newTickDirectory(tickSpacing),
	}
}

func (m *tickManager) get(index int32) (*Tick, bool) {
	t, ok := m.ticks[index]
	return t, ok
}

// ensure returns the tick at index, creating it if absent. created reports
// whether this call created it, so the caller (pool_liquidity.go) knows
// whether to seed the outside accumulators (spec §4.7 step 4).
func (m *tickManager) ensure(index int32) (tick *Tick, created bool) {
	if t, ok := m.ticks[index]; ok {
		return t, false
	}
	t := newTick(index)
	m.ticks[index] = t
	m.directory.mark(index)
	return t, true
}

// seedOutsideGrowth initializes a freshly created tick's outside accumulators
// per spec §4.7 step 4: to the current globals if tick_current >= t, else to
// zero (zero is the Tick's natural zero value, so only the >= branch does
// anything).
func (t *Tick) seedOutsideGrowth(tickCurrent int32, feeGlobalA, feeGlobalB GrowthAccumulator, rewarderGlobal [RewarderCount]GrowthAccumulator) {
	if tickCurrent >= t.Index {
		t.FeeGrowthOutsideA = feeGlobalA
		t.FeeGrowthOutsideB = feeGlobalB
		for k := 0; k < RewarderCount; k++ {
			t.RewarderGrowthsOutside[k] = rewarderGlobal[k]
		}
	}
}

// applyLiquidityDelta updates liquidity_gross (checked) and liquidity_net
// (signed, checked) for one endpoint of an add/remove-liquidity call.
// isUpper selects the sign of the net contribution: +ΔL at the lower
// endpoint, −ΔL at the upper endpoint.
func (t *Tick) applyLiquidityDelta(deltaL U128, negativeDeltaL bool, isUpper bool) error {
	var err error
	if negativeDeltaL {
		t.LiquidityGross, err = checkedSubU128(t.LiquidityGross, deltaL)
	} else {
		t.LiquidityGross, err = checkedAddU128(t.LiquidityGross, deltaL)
	}
	if err != nil {
		return err
	}

	signed := int128FromU128(deltaL, negativeDeltaL)
	if isUpper {
		signed = signed.Neg()
	}
	t.LiquidityNet, err = t.LiquidityNet.Add(signed)
	return err
}

// isEmpty reports whether this tick record can be dropped (liquidity_gross
// has returned to zero).
func (t *Tick) isEmpty() bool {
	return t.LiquidityGross.IsZero()
}

// clear drops a tick record entirely, unmarking its directory bit. Spec
// §4.7 remove_liquidity: "possibly deleting when gross reaches zero."
func (m *tickManager) clear(index int32) {
	delete(m.ticks, index)
	m.directory.unmark(index)
}

// cross applies a tick crossing (spec §4.7 step 4e): flips the tick's
// outside accumulators to global-minus-outside (wrapping, I3) and returns
// the signed liquidity_net contribution the caller applies to
// liquidity_active (with the a→b sign flip already the caller's job).
func (t *Tick) cross(feeGlobalA, feeGlobalB GrowthAccumulator, rewarderGlobal [RewarderCount]GrowthAccumulator) Int128 {
	t.FeeGrowthOutsideA = growthFromU128(feeGlobalA.Sub(t.FeeGrowthOutsideA))
	t.FeeGrowthOutsideB = growthFromU128(feeGlobalB.Sub(t.FeeGrowthOutsideB))
	for k := 0; k < RewarderCount; k++ {
		t.RewarderGrowthsOutside[k] = growthFromU128(rewarderGlobal[k].Sub(t.RewarderGrowthsOutside[k]))
	}
	logrus.Debugf("tick cross: index=%d liquidity_net=%s", t.Index, t.LiquidityNet.String())
	return t.LiquidityNet
}

// below/above implement the I3 helper of the same name: the "outside" value
// as seen from the pool's current side of the tick.
func below(tick *Tick, tickCurrent int32, global GrowthAccumulator, outside GrowthAccumulator) U128 {
	if tickCurrent >= tick.Index {
		return outside.U128()
	}
	return global.Sub(outside)
}

func above(tick *Tick, tickCurrent int32, global GrowthAccumulator, outside GrowthAccumulator) U128 {
	if tickCurrent < tick.Index {
		return outside.U128()
	}
	return global.Sub(outside)
}

// feeGrowthInside computes growth_inside(lo, hi) for the fee accumulators
// (I3): global − below(lo) − above(hi), both subtractions wrapping.
func (m *tickManager) feeGrowthInside(lower, upper *Tick, tickCurrent int32, globalA, globalB GrowthAccumulator) (GrowthAccumulator, GrowthAccumulator) {
	belowA := below(lower, tickCurrent, globalA, lower.FeeGrowthOutsideA)
	aboveA := above(upper, tickCurrent, globalA, upper.FeeGrowthOutsideA)
	insideA := wrappingSubU128(wrappingSubU128(globalA.U128(), belowA), aboveA)

	belowB := below(lower, tickCurrent, globalB, lower.FeeGrowthOutsideB)
	aboveB := above(upper, tickCurrent, globalB, upper.FeeGrowthOutsideB)
	insideB := wrappingSubU128(wrappingSubU128(globalB.U128(), belowB), aboveB)

	return growthFromU128(insideA), growthFromU128(insideB)
}

// rewarderGrowthInside is the same computation for a single rewarder slot.
func (m *tickManager) rewarderGrowthInside(lower, upper *Tick, tickCurrent int32, global GrowthAccumulator, k int) GrowthAccumulator {
	b := below(lower, tickCurrent, global, lower.RewarderGrowthsOutside[k])
	a := above(upper, tickCurrent, global, upper.RewarderGrowthsOutside[k])
	return growthFromU128(wrappingSubU128(wrappingSubU128(global.U128(), b), a))
}

// nextInitializedTick delegates to the directory (C4) to find the next tick
// with a record in the given swap direction, bounded by ±TickBound.
func (m *tickManager) nextInitializedTick(from int32, aToB bool) (int32, bool) {
	bound := TickBound
	if aToB {
		bound = -TickBound
	}
	return m.directory.nextActive(from, aToB, bound)
}
