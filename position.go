package clmm

import "github.com/ethereum/go-ethereum/common"

// PositionIndex is the sequence number assigned by open_position.
type PositionIndex uint64

// Position is C5's ledger entry: one liquidity range owned by one principal.
// Every mutation of Liquidity, and every fee/reward collection, must be
// preceded by refresh() (spec §4.5).
type Position struct {
	Index     PositionIndex
	Owner     common.Address
	TickLower int32
	TickUpper int32
	Liquidity U128

	FeeGrowthInsideSnapA GrowthAccumulator
	FeeGrowthInsideSnapB GrowthAccumulator
	RewardGrowthSnap     [RewarderCount]GrowthAccumulator

	FeeOwedA uint64
	FeeOwedB uint64
	RewardOwed [RewarderCount]uint64
}

func newPosition(index PositionIndex, owner common.Address, tickLower, tickUpper int32) *Position {
	return &Position{
		Index:     index,
		Owner:     owner,
		TickLower: tickLower,
		TickUpper: tickUpper,
		Liquidity: u128Zero,
	}
}

// isEmpty reports whether a position may be closed: zero liquidity and
// nothing owed (spec §3 Lifecycles, §4.7 close_position).
func (p *Position) isEmpty() bool {
	if !p.Liquidity.IsZero() || p.FeeOwedA != 0 || p.FeeOwedB != 0 {
		return false
	}
	for _, r := range p.RewardOwed {
		if r != 0 {
			return false
		}
	}
	return true
}

// refresh implements spec §4.5 exactly: recompute growth-inside for fees and
// every rewarder slot, accrue the delta against this position's liquidity
// since the last snapshot, and roll the snapshot forward. Growth diffs wrap
// (I3); owed-amount accumulation is overflow-checked.
func refresh(pos *Position, lowerTick, upperTick *Tick, tm *tickManager, tickCurrent int32, feeGlobalA, feeGlobalB GrowthAccumulator, rewarderGlobal [RewarderCount]GrowthAccumulator) error {
	fga, fgb := tm.feeGrowthInside(lowerTick, upperTick, tickCurrent, feeGlobalA, feeGlobalB)

	diffA := fga.Sub(pos.FeeGrowthInsideSnapA)
	accruedA := mulShr(pos.Liquidity, diffA, 64)
	deltaA, err := u64FromU256(accruedA, ErrFeeOverflow)
	if err != nil {
		return err
	}
	pos.FeeOwedA, err = checkedAddU64(pos.FeeOwedA, deltaA)
	if err != nil {
		return err
	}

	diffB := fgb.Sub(pos.FeeGrowthInsideSnapB)
	accruedB := mulShr(pos.Liquidity, diffB, 64)
	deltaB, err := u64FromU256(accruedB, ErrFeeOverflow)
	if err != nil {
		return err
	}
	pos.FeeOwedB, err = checkedAddU64(pos.FeeOwedB, deltaB)
	if err != nil {
		return err
	}

	var rg [RewarderCount]GrowthAccumulator
	for k := 0; k < RewarderCount; k++ {
		rg[k] = tm.rewarderGrowthInside(lowerTick, upperTick, tickCurrent, rewarderGlobal[k], k)
		diffK := rg[k].Sub(pos.RewardGrowthSnap[k])
		accruedK := mulShr(diffK, pos.Liquidity, 64)
		deltaK, err := u64FromU256(accruedK, ErrRewardOverflow)
		if err != nil {
			return err
		}
		pos.RewardOwed[k], err = checkedAddU64(pos.RewardOwed[k], deltaK)
		if err != nil {
			return err
		}
	}

	pos.FeeGrowthInsideSnapA = fga
	pos.FeeGrowthInsideSnapB = fgb
	pos.RewardGrowthSnap = rg
	return nil
}

// PositionView is a read-only snapshot for external query (SPEC_FULL §3),
// grounded in the teacher's GetPositionReadonly: callers get a value copy,
// never the live pointer into the pool's internal map.
type PositionView struct {
	Index      PositionIndex
	Owner      common.Address
	TickLower  int32
	TickUpper  int32
	Liquidity  U128
	FeeOwedA   uint64
	FeeOwedB   uint64
	RewardOwed [RewarderCount]uint64
}

func (p *Position) view() PositionView {
	return PositionView{
		Index:      p.Index,
		Owner:      p.Owner,
		TickLower:  p.TickLower,
		TickUpper:  p.TickUpper,
		Liquidity:  p.Liquidity,
		FeeOwedA:   p.FeeOwedA,
		FeeOwedB:   p.FeeOwedB,
		RewardOwed: p.RewardOwed,
	}
}
