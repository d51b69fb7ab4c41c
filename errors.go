package clmm

import "errors"

// Error codes surfaced to collaborators (spec §6). Each is a distinct
// sentinel so callers can use errors.Is against a stable identity instead of
// string-matching messages.
var (
	ErrInvalidTick              = errors.New("clmm: invalid tick")
	ErrInvalidSqrtPrice         = errors.New("clmm: invalid sqrt price")
	ErrInvalidFeeRate           = errors.New("clmm: invalid fee rate")
	ErrInvalidTime              = errors.New("clmm: invalid time")
	ErrSameTokenType            = errors.New("clmm: same token type")
	ErrAmountIncorrect          = errors.New("clmm: amount incorrect")
	ErrAmountInAboveLimit       = errors.New("clmm: amount in above limit")
	ErrAmountOutBelowLimit      = errors.New("clmm: amount out below limit")
	ErrLiquidityZero            = errors.New("clmm: liquidity zero")
	ErrLiquidityOverflow        = errors.New("clmm: liquidity overflow")
	ErrLiquidityUnderflow       = errors.New("clmm: liquidity underflow")
	ErrNotEnoughLiquidity       = errors.New("clmm: not enough liquidity")
	ErrRemainderUnderflow       = errors.New("clmm: remainder underflow")
	ErrWrongSqrtPriceLimit      = errors.New("clmm: wrong sqrt price limit")
	ErrPositionNotExist         = errors.New("clmm: position does not exist")
	ErrPositionOwnerError       = errors.New("clmm: caller does not own position")
	ErrPoolIsPaused             = errors.New("clmm: pool is paused")
	ErrPoolLiquidityIsNotZero   = errors.New("clmm: position is not empty")
	ErrInvalidDeltaLiquidity    = errors.New("clmm: invalid delta liquidity")
	ErrInvalidRewardIndex       = errors.New("clmm: invalid reward index")
	ErrRewardAmountInsufficient = errors.New("clmm: reward amount insufficient")
	ErrRewardAuthError          = errors.New("clmm: caller is not the reward authority")
	ErrFeeOverflow              = errors.New("clmm: fee accrual overflow")
	ErrRewardOverflow           = errors.New("clmm: reward accrual overflow")
	ErrMultiplicationOverflow   = errors.New("clmm: multiplication overflow")
	ErrDivByZero                = errors.New("clmm: division by zero")
	ErrFuncDisabled             = errors.New("clmm: function disabled")
	ErrNoPrivilege              = errors.New("clmm: caller lacks required privilege")

	// ErrInvariantViolated is the single catch-all tag for engine states that
	// are unreachable by construction (spec §7: "an implementation chooses a
	// single InvariantViolated tag when reaching them is impossible by
	// design"). It should never surface in practice; if it does, it is a bug
	// in the engine, not a user error.
	ErrInvariantViolated = errors.New("clmm: invariant violated")
)
