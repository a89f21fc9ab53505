package model

import "fmt"

// PlantState holds the scalar battery and site parameters, constant across a
// horizon.
type PlantState struct {
	// CapacityMWh is the total usable battery capacity.
	CapacityMWh float64 `json:"capacity_mwh"`
	// InitialSoCFraction is the state of charge at the start of the horizon,
	// between 0 and 1.
	InitialSoCFraction float64 `json:"initial_soc_fraction"`
	// MaxChargeMW and MaxDischargeMW bound battery power per interval.
	MaxChargeMW    float64 `json:"max_charge_mw"`
	MaxDischargeMW float64 `json:"max_discharge_mw"`

	// InterconnectLimitMW caps grid export at the point of interconnection.
	// Zero means unknown.
	InterconnectLimitMW float64 `json:"interconnect_limit_mw,omitempty"`
	// PlantRatingMW is the nameplate rating of the solar plant. Zero means
	// unknown.
	PlantRatingMW float64 `json:"plant_rating_mw,omitempty"`
}

// PlantOverride carries caller-supplied plant configuration for the trusted
// merge. Nil fields are unset; a set field is honored even at zero, so an
// operator can report an empty battery explicitly.
type PlantOverride struct {
	CapacityMWh         *float64 `json:"capacity_mwh,omitempty"`
	InitialSoCFraction  *float64 `json:"initial_soc_fraction,omitempty"`
	MaxChargeMW         *float64 `json:"max_charge_mw,omitempty"`
	MaxDischargeMW      *float64 `json:"max_discharge_mw,omitempty"`
	InterconnectLimitMW *float64 `json:"interconnect_limit_mw,omitempty"`
	PlantRatingMW       *float64 `json:"plant_rating_mw,omitempty"`
}

// InitialEnergyMWh returns the stored energy at the start of the horizon.
func (p PlantState) InitialEnergyMWh() float64 {
	return p.InitialSoCFraction * p.CapacityMWh
}

// Validate checks the plant parameters against the solver contract.
func (p PlantState) Validate() error {
	if p.CapacityMWh <= 0 {
		return fmt.Errorf("capacity_mwh must be positive, got %v", p.CapacityMWh)
	}
	if p.InitialSoCFraction < 0 || p.InitialSoCFraction > 1 {
		return fmt.Errorf("initial_soc_fraction must be within [0,1], got %v", p.InitialSoCFraction)
	}
	if p.MaxChargeMW < 0 {
		return fmt.Errorf("max_charge_mw must be non-negative, got %v", p.MaxChargeMW)
	}
	if p.MaxDischargeMW < 0 {
		return fmt.Errorf("max_discharge_mw must be non-negative, got %v", p.MaxDischargeMW)
	}
	return nil
}
