package clmm

import "github.com/daoleno/uniswapv3-sdk/constants"

// defaultFeeTierRegistry is the built-in FeeTierRegistry, grounded on the
// teacher's own constants.FeeAmount/TickSpacings tables (pool.go used these
// to drive utils.ComputeSwapStep's fee-tier argument). constants.FeeAmount
// is already a parts-per-million rate, the same unit our feeRate uint32
// fields use, so no conversion is needed beyond the type narrowing.
type defaultFeeTierRegistry struct{}

// NewDefaultFeeTierRegistry returns the standard four-tier schedule
// (lowest/low/medium/high) used across the Uniswap v3 deployments the
// example pack's SDK bindings target.
func NewDefaultFeeTierRegistry() FeeTierRegistry {
	return defaultFeeTierRegistry{}
}

func (defaultFeeTierRegistry) FeeRateForSpacing(tickSpacing int32) (uint32, error) {
	for fee, spacing := range constants.TickSpacings {
		if int32(spacing) == tickSpacing {
			return uint32(fee), nil
		}
	}
	return 0, ErrInvalidTick
}
