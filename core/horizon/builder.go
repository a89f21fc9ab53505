package horizon

import (
	"fmt"

	"github.com/sunpeak/dispatchd/core/forecast"
	"github.com/sunpeak/dispatchd/core/model"
	"github.com/sunpeak/dispatchd/core/optimize"
)

// Defaults for the builder knobs. The floors keep the program well-posed
// when forecast confidence collapses to zero.
const (
	DefaultLength       = 6
	DefaultBaseWeight   = 1000.0
	DefaultBasePenalty  = 1.0
	DefaultWeightFloor  = 10.0
	DefaultPenaltyFloor = 0.05
)

// Builder normalizes forecast, weather and plant inputs into a solve
// request. A zero-value Builder is not usable; construct with NewBuilder.
type Builder struct {
	// Length is the fixed horizon length intervals are truncated or padded
	// to.
	Length int
	// Padding selects how short sub-forecast lists are extended.
	Padding PaddingPolicy
	// GridLimit derives per-interval export caps.
	GridLimit GridLimitPolicy

	// BaseWeight and BasePenalty anchor the confidence scaling; WeightFloor
	// and PenaltyFloor clamp the results.
	BaseWeight   float64
	BasePenalty  float64
	WeightFloor  float64
	PenaltyFloor float64
}

// NewBuilder returns a Builder with default knobs and the default grid-limit
// policy.
func NewBuilder() Builder {
	return Builder{
		Length:       DefaultLength,
		Padding:      PadFlat,
		GridLimit:    DefaultGridLimit,
		BaseWeight:   DefaultBaseWeight,
		BasePenalty:  DefaultBasePenalty,
		WeightFloor:  DefaultWeightFloor,
		PenaltyFloor: DefaultPenaltyFloor,
	}
}

// Build produces a normalized solve request. The forecast and plant state
// are the trusted sources; the optional weather snapshot only influences the
// derived grid limits. Build is deterministic for identical inputs.
func (b Builder) Build(fc forecast.Result, plant model.PlantState, wx *model.WeatherSnapshot) (optimize.Request, error) {
	if err := plant.Validate(); err != nil {
		return optimize.Request{}, fmt.Errorf("plant state: %w", err)
	}
	length := b.Length
	if length <= 0 {
		length = DefaultLength
	}
	policy := b.GridLimit
	if policy == nil {
		policy = DefaultGridLimit
	}

	subs := b.normalizeSubs(fc, length)

	h := make(model.Horizon, length)
	for i, sub := range subs {
		mw := sub.MW
		if mw < 0 {
			mw = 0
		}
		conf := fc.Confidence
		if sub.Confidence != nil {
			conf = *sub.Confidence
		}
		conf = clamp(conf, 0, 1)

		var limit float64
		var irr *float64
		if sub.GridLimitMW != nil && *sub.GridLimitMW >= 0 {
			limit = *sub.GridLimitMW
		} else {
			limit, irr = policy(mw, plant, wx)
		}

		confVal := conf
		h[i] = model.Interval{
			Label:              sub.Label,
			ForecastMW:         mw,
			GridLimitMW:        limit,
			CurtailmentWeight:  b.curtailmentWeight(conf),
			CyclePenalty:       b.cyclePenalty(conf),
			IrradianceFactor:   irr,
			ForecastConfidence: &confVal,
		}
	}

	return optimize.Request{Plant: plant, Horizon: h}, nil
}

// normalizeSubs yields exactly length sub-forecasts: the upstream list
// truncated or padded per the padding policy, or the scalar forecast
// replicated when no list exists.
func (b Builder) normalizeSubs(fc forecast.Result, length int) []forecast.SubForecast {
	subs := fc.Intervals
	if len(subs) == 0 {
		mw := fc.MW
		if mw < 0 {
			mw = 0
		}
		out := make([]forecast.SubForecast, length)
		for i := range out {
			out[i] = forecast.SubForecast{Label: fmt.Sprintf("t%d", i), MW: mw}
		}
		return out
	}

	if len(subs) >= length {
		return subs[:length]
	}

	out := append([]forecast.SubForecast(nil), subs...)
	last := subs[len(subs)-1]
	mw := last.MW
	for i := len(subs); i < length; i++ {
		if b.Padding == PadDecay {
			mw *= decayRatio
		}
		pad := forecast.SubForecast{Label: fmt.Sprintf("t%d", i), MW: mw, Confidence: last.Confidence}
		out = append(out, pad)
	}
	return out
}

func (b Builder) curtailmentWeight(conf float64) float64 {
	w := b.BaseWeight * conf
	if w < b.WeightFloor {
		w = b.WeightFloor
	}
	return w
}

func (b Builder) cyclePenalty(conf float64) float64 {
	p := b.BasePenalty * (1 - conf)
	if p < b.PenaltyFloor {
		p = b.PenaltyFloor
	}
	return p
}
