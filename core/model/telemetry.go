package model

import "time"

// WeatherSnapshot carries live site conditions used to estimate the
// irradiance clipping factor.
type WeatherSnapshot struct {
	TempC      float64   `json:"temp_c"`
	WindMS     float64   `json:"wind_ms"`
	CloudPct   float64   `json:"cloud_pct"`
	Location   string    `json:"location,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// PlantTelemetry is a live reading from the plant SCADA feed. Non-nil fields
// take precedence over configured plant defaults during the trusted merge.
type PlantTelemetry struct {
	SoCFraction         *float64  `json:"soc_fraction,omitempty"`
	MaxChargeMW         *float64  `json:"max_charge_mw,omitempty"`
	MaxDischargeMW      *float64  `json:"max_discharge_mw,omitempty"`
	InterconnectLimitMW *float64  `json:"interconnect_limit_mw,omitempty"`
	ReportedAt          time.Time `json:"reported_at"`
}
