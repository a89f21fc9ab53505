package model

// IntervalResult is the solved dispatch decision for one interval. The
// invariants below hold for every returned plan, within solver tolerance:
//
//	0 <= DispatchMW <= GridLimitMW
//	0 <= ChargeMW <= MaxChargeMW, 0 <= DischargeMW <= MaxDischargeMW
//	min(ChargeMW, DischargeMW) == 0
//	DispatchMW + ChargeMW + CurtailmentMW == ForecastMW + DischargeMW
//	0 <= SoCMWhEnd <= CapacityMWh
type IntervalResult struct {
	Label         string  `json:"label"`
	ForecastMW    float64 `json:"forecast_mw"`
	GridLimitMW   float64 `json:"grid_limit_mw"`
	DispatchMW    float64 `json:"dispatch_mw"`
	ChargeMW      float64 `json:"charge_mw"`
	DischargeMW   float64 `json:"discharge_mw"`
	CurtailmentMW float64 `json:"curtailment_mw"`
	SoCMWhEnd     float64 `json:"soc_mwh_end"`

	IrradianceFactor   *float64 `json:"irradiance_factor,omitempty"`
	ForecastConfidence *float64 `json:"forecast_confidence,omitempty"`
}

// DispatchPlan is the solved schedule for a full horizon. The top-level
// dispatch fields mirror the first interval as a convenience for single-step
// callers; Intervals always carries the full schedule.
type DispatchPlan struct {
	DispatchMW    float64 `json:"dispatch_mw"`
	ChargeMW      float64 `json:"charge_mw"`
	DischargeMW   float64 `json:"discharge_mw"`
	CurtailmentMW float64 `json:"curtailment_mw"`

	Intervals          []IntervalResult `json:"intervals"`
	TotalCurtailmentMW float64          `json:"total_curtailment_mw"`
	FinalSoCMWh        float64          `json:"final_soc_mwh"`
}

// First returns the first interval of the plan. It panics on an empty plan,
// which cannot be produced by the optimizer.
func (p DispatchPlan) First() IntervalResult { return p.Intervals[0] }
