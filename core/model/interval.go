package model

import "fmt"

// Interval is one discrete step of the optimization horizon. Power values are
// in MW; intervals are unit duration so power numerically equals energy.
type Interval struct {
	// Label identifies the interval within its horizon (e.g. "t0").
	Label string `json:"label"`
	// ForecastMW is the expected generation for this interval.
	ForecastMW float64 `json:"forecast_mw"`
	// GridLimitMW caps the power exported to the grid this interval.
	GridLimitMW float64 `json:"grid_limit_mw"`
	// CurtailmentWeight is the objective cost per MW of curtailed generation.
	CurtailmentWeight float64 `json:"curtailment_weight"`
	// CyclePenalty is the objective cost per MW of battery throughput.
	CyclePenalty float64 `json:"cycle_penalty"`

	// Diagnostic pass-through fields, carried for output only.
	IrradianceFactor   *float64 `json:"irradiance_factor,omitempty"`
	ForecastConfidence *float64 `json:"forecast_confidence,omitempty"`
}

// Validate checks the interval parameters against the solver contract.
func (iv Interval) Validate() error {
	if iv.ForecastMW < 0 {
		return fmt.Errorf("interval %q: forecast_mw must be non-negative", iv.Label)
	}
	if iv.GridLimitMW < 0 {
		return fmt.Errorf("interval %q: grid_limit_mw must be non-negative", iv.Label)
	}
	if iv.CurtailmentWeight <= 0 {
		return fmt.Errorf("interval %q: curtailment_weight must be positive", iv.Label)
	}
	if iv.CyclePenalty < 0 {
		return fmt.Errorf("interval %q: cycle_penalty must be non-negative", iv.Label)
	}
	return nil
}

// Horizon is the ordered, non-empty sequence of intervals being jointly
// optimized. Order defines the temporal sequence over which state of charge
// evolves. A Horizon is built fresh per solve and never reused.
type Horizon []Interval

// Validate checks every interval and the horizon shape.
func (h Horizon) Validate() error {
	if len(h) == 0 {
		return fmt.Errorf("horizon must contain at least one interval")
	}
	for _, iv := range h {
		if err := iv.Validate(); err != nil {
			return err
		}
	}
	return nil
}
