package forecast

import (
	"context"
	"time"

	"github.com/sunpeak/dispatchd/core/logger"
)

// SubForecast is one future interval of a multi-step forecast.
type SubForecast struct {
	Label string `json:"label"`
	// MW is the expected generation for the interval.
	MW float64 `json:"mw"`
	// GridLimitMW optionally carries an upstream export cap for the
	// interval. Nil means the payload builder derives one.
	GridLimitMW *float64 `json:"grid_limit_mw,omitempty"`
	// Confidence optionally overrides the horizon-level confidence.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Result is the forecast signal consumed by the interval payload builder.
type Result struct {
	// MW is the scalar expected generation, used when Intervals is empty.
	MW float64 `json:"mw"`
	// Confidence is the forecast trust level in [0,1].
	Confidence float64 `json:"confidence"`
	// Intervals optionally carries an ordered multi-step forecast.
	Intervals []SubForecast `json:"intervals,omitempty"`
	// Note carries provider diagnostics (e.g. fallback reasons).
	Note string `json:"note,omitempty"`
}

// Observation is one historical or future feature row used by projection
// based providers.
type Observation struct {
	Timestamp     time.Time `json:"forecast_timestamp"`
	MeanTempC     float64   `json:"mean_temperature"`
	MeanWindMS    float64   `json:"mean_wind_speed"`
	SolarOutputMW float64   `json:"target_solar_output"`
}

// Engine produces generation forecasts for the dispatch pipeline.
type Engine interface {
	Forecast(ctx context.Context) (Result, error)
}

// fallbackEngine tries the primary engine and degrades to the secondary on
// error, annotating the result.
type fallbackEngine struct {
	primary   Engine
	secondary Engine
	log       logger.Logger
}

// WithFallback wraps primary so that forecast errors degrade to the
// secondary engine instead of failing the pipeline.
func WithFallback(primary, secondary Engine, log logger.Logger) Engine {
	return &fallbackEngine{primary: primary, secondary: secondary, log: log}
}

func (e *fallbackEngine) Forecast(ctx context.Context) (Result, error) {
	res, err := e.primary.Forecast(ctx)
	if err == nil {
		return res, nil
	}
	if e.log != nil {
		e.log.Warnf("forecast provider failed, using fallback: %v", err)
	}
	res, ferr := e.secondary.Forecast(ctx)
	if ferr != nil {
		return Result{}, ferr
	}
	res.Note = "primary forecast failed: " + err.Error()
	return res, nil
}
