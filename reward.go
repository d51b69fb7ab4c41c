package clmm

// Rewarder is one of the pool's K=RewarderCount emission slots (spec §3,
// §4.6).
type Rewarder struct {
	Token              TokenId
	Authority          Principal
	PendingAuthority   Principal
	EmissionsPerSecond U128 // Q64.64, tokens per second
	GrowthGlobal       GrowthAccumulator
}

// secondsPerDay is the window a rate change must be pre-funded for.
const secondsPerDay = 86_400

// updateRewarders is C6's update(pool). It runs at the start of FlashSwap,
// AddLiquidity, AddLiquidityFixToken, RemoveLiquidity and SetEmission, and
// of CollectFee/CollectRewarder when recalculate is set; the reward
// authority transfer and accept calls do not run it. It is a no-op if the
// clock hasn't advanced or there's no active liquidity to accrue against.
func (p *Pool) updateRewarders() error {
	now := p.clock.NowSeconds()
	if now == p.lastRewardUpdate || p.liquidityActive.IsZero() {
		p.lastRewardUpdate = now
		return nil
	}
	if now < p.lastRewardUpdate {
		return ErrInvalidTime
	}
	dt := now - p.lastRewardUpdate
	for k := 0; k < RewarderCount; k++ {
		if p.rewarders[k].EmissionsPerSecond.IsZero() {
			continue
		}
		delta, err := mulDivFloor(u128FromU64(dt), p.rewarders[k].EmissionsPerSecond, p.liquidityActive)
		if err != nil {
			return err
		}
		p.rewarders[k].GrowthGlobal = p.rewarders[k].GrowthGlobal.Add(delta)
	}
	p.lastRewardUpdate = now
	return nil
}

// requireOneDayFunded enforces spec §4.6: "changes to emission rate require
// the pool to hold at least one day's worth of the reward token."
func (p *Pool) requireOneDayFunded(slot int, rate U128) error {
	needed, err := u64FromU256(mulShr(rate, u128FromU64(secondsPerDay), 64), ErrMultiplicationOverflow)
	if err != nil {
		return err
	}
	if p.vault.Balance(p.rewarders[slot].Token) < needed {
		return ErrRewardAmountInsufficient
	}
	return nil
}

// SetEmission updates a rewarder slot's per-second emission rate. Only the
// slot's current authority may call it.
func (p *Pool) SetEmission(slot int, caller Principal, newRate U128) error {
	if slot < 0 || slot >= RewarderCount {
		return ErrInvalidRewardIndex
	}
	if p.rewarders[slot].Authority != caller {
		return ErrRewardAuthError
	}
	if err := p.requireOneDayFunded(slot, newRate); err != nil {
		return err
	}
	if err := p.updateRewarders(); err != nil {
		return err
	}
	p.rewarders[slot].EmissionsPerSecond = newRate
	p.emit(UpdateEmissionEvent{Pool: p.address, Slot: slot, EmissionsPerSec: newRate})
	return nil
}

// TransferRewardAuth begins the two-phase authority handover for one
// rewarder slot (spec §4.6): it only records the pending authority.
func (p *Pool) TransferRewardAuth(slot int, caller, newAuthority Principal) error {
	if slot < 0 || slot >= RewarderCount {
		return ErrInvalidRewardIndex
	}
	if p.rewarders[slot].Authority != caller {
		return ErrRewardAuthError
	}
	p.rewarders[slot].PendingAuthority = newAuthority
	p.emit(TransferRewardAuthEvent{Pool: p.address, Slot: slot, From: caller, To: newAuthority})
	return nil
}

// AcceptRewardAuth completes the handover: only the recorded pending
// authority may call it.
func (p *Pool) AcceptRewardAuth(slot int, caller Principal) error {
	if slot < 0 || slot >= RewarderCount {
		return ErrInvalidRewardIndex
	}
	var zero Principal
	if p.rewarders[slot].PendingAuthority == zero || p.rewarders[slot].PendingAuthority != caller {
		return ErrRewardAuthError
	}
	p.rewarders[slot].Authority = caller
	p.rewarders[slot].PendingAuthority = zero
	p.emit(AcceptRewardAuthEvent{Pool: p.address, Slot: slot, NewOwner: caller})
	return nil
}

func (p *Pool) rewarderGlobals() [RewarderCount]GrowthAccumulator {
	var out [RewarderCount]GrowthAccumulator
	for k := 0; k < RewarderCount; k++ {
		out[k] = p.rewarders[k].GrowthGlobal
	}
	return out
}
