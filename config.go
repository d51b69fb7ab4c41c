package clmm

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// RuntimeConfig is the engine's ambient configuration: it carries the
// host-tunable bounds the spec leaves to the deployment (§5's "host runtime
// may bound total work via gas/step limits", §9's clock-skew tolerance)
// rather than anything that changes pool semantics. Grounded on the
// envconfig.Process pattern the example repos use for a single flat struct
// of env-derived settings.
type RuntimeConfig struct {
	// MaxSwapSteps bounds the number of tick crossings a single FlashSwap
	// call will traverse before the host should treat it as exceeding its
	// resource budget. The core itself does not enforce this (a swap that
	// legitimately needs more steps is not a bug); it is surfaced for a host
	// to wrap FlashSwap in a deadline/step counter.
	MaxSwapSteps uint32 `envconfig:"CLMM_MAX_SWAP_STEPS" default:"500"`

	// RewarderCount mirrors the compiled-in K (tick.go's RewarderCount) for
	// display/validation purposes; it is not consulted by the engine, which
	// always uses the constant.
	RewarderCount int `envconfig:"CLMM_REWARDER_COUNT" default:"3"`

	// ClockSkewToleranceSeconds is the maximum amount a Clock's NowSeconds()
	// is allowed to have moved backwards between consecutive reads before
	// updateRewarders treats it as a hard ErrInvalidTime rather than a
	// rounding artifact worth tolerating. The engine does not currently use
	// this (reward.go's updateRewarders rejects any decrease outright); it
	// is kept here for a host that wants a softer policy at its collaborator
	// boundary.
	ClockSkewToleranceSeconds uint32 `envconfig:"CLMM_CLOCK_SKEW_TOLERANCE" default:"0"`
}

// LoadRuntimeConfig reads RuntimeConfig from the process environment,
// following the example pack's envconfig.Process convention.
func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}
	if err := envconfig.Process("clmm", cfg); err != nil {
		return nil, fmt.Errorf("clmm: loading runtime config: %w", err)
	}
	return cfg, nil
}
