package horizon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sunpeak/dispatchd/core/model"
)

func f64(v float64) *float64 { return &v }

var defaults = model.PlantState{
	CapacityMWh:        50,
	InitialSoCFraction: 0.35,
	MaxChargeMW:        5,
	MaxDischargeMW:     5,
	PlantRatingMW:      100,
}

func TestResolvePlantDefaultsOnly(t *testing.T) {
	assert.Equal(t, defaults, ResolvePlant(defaults, nil, nil))
}

func TestResolvePlantExplicitOverridesDefaults(t *testing.T) {
	explicit := &model.PlantOverride{CapacityMWh: f64(80), InitialSoCFraction: f64(0.5)}
	p := ResolvePlant(defaults, explicit, nil)
	assert.Equal(t, 80.0, p.CapacityMWh)
	assert.Equal(t, 0.5, p.InitialSoCFraction)
	// Unset explicit fields keep the defaults.
	assert.Equal(t, 5.0, p.MaxChargeMW)
	assert.Equal(t, 100.0, p.PlantRatingMW)
}

func TestResolvePlantExplicitZeroSoC(t *testing.T) {
	// An empty battery reported explicitly must survive the merge instead
	// of collapsing into the 0.35 default.
	explicit := &model.PlantOverride{InitialSoCFraction: f64(0)}
	p := ResolvePlant(defaults, explicit, nil)
	assert.Equal(t, 0.0, p.InitialSoCFraction)
	assert.Equal(t, 0.0, p.InitialEnergyMWh())
}

func TestResolvePlantTelemetryWins(t *testing.T) {
	explicit := &model.PlantOverride{InitialSoCFraction: f64(0.5), MaxChargeMW: f64(8)}
	tel := &model.PlantTelemetry{SoCFraction: f64(0.62), MaxChargeMW: f64(4.5)}
	p := ResolvePlant(defaults, explicit, tel)
	assert.Equal(t, 0.62, p.InitialSoCFraction)
	assert.Equal(t, 4.5, p.MaxChargeMW)
}

func TestResolvePlantClampsTelemetrySoC(t *testing.T) {
	tel := &model.PlantTelemetry{SoCFraction: f64(1.4)}
	p := ResolvePlant(defaults, nil, tel)
	assert.Equal(t, 1.0, p.InitialSoCFraction)
}
