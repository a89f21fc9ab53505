package horizon

import "github.com/sunpeak/dispatchd/core/model"

// ResolvePlant performs the trusted merge of plant parameters with the
// documented precedence: live telemetry > explicit plant config > defaults.
// This is the single place plant inputs are reconciled; callers must not
// overwrite individual fields elsewhere. Optimization parameters supplied by
// untrusted callers (forecast values, weights) are never accepted here at
// all: they simply have no representation in PlantOverride.
//
// Explicit fields merge on nil-ness, not on zero: an operator reporting an
// empty battery (soc 0) must not be handed the configured default.
func ResolvePlant(defaults model.PlantState, explicit *model.PlantOverride, tel *model.PlantTelemetry) model.PlantState {
	p := defaults
	if explicit != nil {
		if explicit.CapacityMWh != nil {
			p.CapacityMWh = *explicit.CapacityMWh
		}
		if explicit.InitialSoCFraction != nil {
			p.InitialSoCFraction = *explicit.InitialSoCFraction
		}
		if explicit.MaxChargeMW != nil {
			p.MaxChargeMW = *explicit.MaxChargeMW
		}
		if explicit.MaxDischargeMW != nil {
			p.MaxDischargeMW = *explicit.MaxDischargeMW
		}
		if explicit.InterconnectLimitMW != nil {
			p.InterconnectLimitMW = *explicit.InterconnectLimitMW
		}
		if explicit.PlantRatingMW != nil {
			p.PlantRatingMW = *explicit.PlantRatingMW
		}
	}
	if tel != nil {
		if tel.SoCFraction != nil {
			p.InitialSoCFraction = clamp(*tel.SoCFraction, 0, 1)
		}
		if tel.MaxChargeMW != nil {
			p.MaxChargeMW = *tel.MaxChargeMW
		}
		if tel.MaxDischargeMW != nil {
			p.MaxDischargeMW = *tel.MaxDischargeMW
		}
		if tel.InterconnectLimitMW != nil {
			p.InterconnectLimitMW = *tel.InterconnectLimitMW
		}
	}
	return p
}
