package config

import (
	"fmt"

	"github.com/sunpeak/dispatchd/core/horizon"
	"github.com/sunpeak/dispatchd/core/model"
)

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown level %s", c.Level)
}

// ServerConfig controls the HTTP API and metrics listeners.
type ServerConfig struct {
	Addr        string `json:"addr"`
	MetricsAddr string `json:"metrics_addr"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
}

func (c ServerConfig) Validate() error {
	if c.Addr == c.MetricsAddr {
		return fmt.Errorf("addr and metrics_addr must differ")
	}
	return nil
}

// PlantConfig is the configured default plant state. State-of-charge and
// power limits are pointers so a configured zero (empty battery, disabled
// charge or discharge) survives defaulting instead of collapsing into the
// stock values.
type PlantConfig struct {
	CapacityMWh         float64  `json:"capacity_mwh"`
	InitialSoCFraction  *float64 `json:"initial_soc_fraction"`
	MaxChargeMW         *float64 `json:"max_charge_mw"`
	MaxDischargeMW      *float64 `json:"max_discharge_mw"`
	InterconnectLimitMW float64  `json:"interconnect_limit_mw"`
	PlantRatingMW       float64  `json:"plant_rating_mw"`
}

// State materializes the configured plant. Call after SetDefaults.
func (c PlantConfig) State() model.PlantState {
	p := model.PlantState{
		CapacityMWh:         c.CapacityMWh,
		InterconnectLimitMW: c.InterconnectLimitMW,
		PlantRatingMW:       c.PlantRatingMW,
	}
	if c.InitialSoCFraction != nil {
		p.InitialSoCFraction = *c.InitialSoCFraction
	}
	if c.MaxChargeMW != nil {
		p.MaxChargeMW = *c.MaxChargeMW
	}
	if c.MaxDischargeMW != nil {
		p.MaxDischargeMW = *c.MaxDischargeMW
	}
	return p
}

// OptimizerConfig carries the plant defaults and the payload builder knobs.
type OptimizerConfig struct {
	Plant PlantConfig `json:"plant"`

	HorizonLength int     `json:"horizon_length"`
	Padding       string  `json:"padding"`
	BaseWeight    float64 `json:"base_weight"`
	BasePenalty   float64 `json:"base_penalty"`
	WeightFloor   float64 `json:"weight_floor"`
	PenaltyFloor  float64 `json:"penalty_floor"`
	MaxNodes      int     `json:"max_nodes"`
}

// Stock plant parameters used when the config file leaves them unset.
const (
	defaultCapacityMWh    = 10.0
	defaultInitialSoC     = 0.35
	defaultMaxChargeMW    = 5.0
	defaultMaxDischargeMW = 5.0
)

func (c *OptimizerConfig) SetDefaults() {
	if c.Plant.CapacityMWh == 0 {
		c.Plant.CapacityMWh = defaultCapacityMWh
	}
	if c.Plant.InitialSoCFraction == nil {
		soc := defaultInitialSoC
		c.Plant.InitialSoCFraction = &soc
	}
	if c.Plant.MaxChargeMW == nil {
		mc := defaultMaxChargeMW
		c.Plant.MaxChargeMW = &mc
	}
	if c.Plant.MaxDischargeMW == nil {
		md := defaultMaxDischargeMW
		c.Plant.MaxDischargeMW = &md
	}
	if c.HorizonLength == 0 {
		c.HorizonLength = horizon.DefaultLength
	}
	if c.Padding == "" {
		c.Padding = string(horizon.PadFlat)
	}
	if c.BaseWeight == 0 {
		c.BaseWeight = horizon.DefaultBaseWeight
	}
	if c.BasePenalty == 0 {
		c.BasePenalty = horizon.DefaultBasePenalty
	}
	if c.WeightFloor == 0 {
		c.WeightFloor = horizon.DefaultWeightFloor
	}
	if c.PenaltyFloor == 0 {
		c.PenaltyFloor = horizon.DefaultPenaltyFloor
	}
}

func (c OptimizerConfig) Validate() error {
	if c.HorizonLength < 1 {
		return fmt.Errorf("horizon_length must be positive")
	}
	switch horizon.PaddingPolicy(c.Padding) {
	case horizon.PadFlat, horizon.PadDecay:
	default:
		return fmt.Errorf("unknown padding policy %s", c.Padding)
	}
	if err := c.Plant.State().Validate(); err != nil {
		return fmt.Errorf("plant: %w", err)
	}
	return nil
}

// Builder materializes the configured payload builder.
func (c OptimizerConfig) Builder() horizon.Builder {
	b := horizon.NewBuilder()
	b.Length = c.HorizonLength
	b.Padding = horizon.PaddingPolicy(c.Padding)
	b.BaseWeight = c.BaseWeight
	b.BasePenalty = c.BasePenalty
	b.WeightFloor = c.WeightFloor
	b.PenaltyFloor = c.PenaltyFloor
	return b
}
