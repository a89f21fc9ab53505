package horizon

import "github.com/sunpeak/dispatchd/core/model"

// defaultGridRatio caps export at a fraction of the raw forecast when no
// plant rating or interconnect data is available. Empirical clipping value
// carried over from plant operations.
const defaultGridRatio = 0.9

// GridLimitPolicy derives the per-interval export cap. The returned
// irradiance factor is nil when the policy did not estimate one. Policies are
// replaceable; DefaultGridLimit is an empirical fit, not physical law.
type GridLimitPolicy func(forecastMW float64, plant model.PlantState, wx *model.WeatherSnapshot) (limitMW float64, irradiance *float64)

// estimateIrradianceFactor maps site weather onto a 0..1 inverter output
// factor. Cloud cover dominates; high ambient temperature derates panels and
// wind recovers part of that through cooling.
func estimateIrradianceFactor(wx model.WeatherSnapshot) float64 {
	factor := 1.0

	cloud := clamp(wx.CloudPct, 0, 100)
	factor *= 1 - 0.7*cloud/100

	if wx.TempC > 25 {
		factor *= 1 - 0.004*(wx.TempC-25)
	}
	if wx.WindMS > 0 {
		cooling := 0.002 * wx.WindMS
		if cooling > 0.05 {
			cooling = 0.05
		}
		factor *= 1 + cooling
	}

	return clamp(factor, 0.05, 1)
}

// DefaultGridLimit derives min(interconnect, irradiance*rating), falling back
// to a normalized forecast ratio when no weather snapshot exists and to a
// fixed fraction of the forecast when the plant rating itself is unknown.
func DefaultGridLimit(forecastMW float64, plant model.PlantState, wx *model.WeatherSnapshot) (float64, *float64) {
	if plant.PlantRatingMW <= 0 {
		limit := defaultGridRatio * forecastMW
		if plant.InterconnectLimitMW > 0 && plant.InterconnectLimitMW < limit {
			limit = plant.InterconnectLimitMW
		}
		return limit, nil
	}

	var factor float64
	if wx != nil {
		factor = estimateIrradianceFactor(*wx)
	} else {
		factor = clamp(forecastMW/plant.PlantRatingMW, 0, 1)
	}

	limit := factor * plant.PlantRatingMW
	if plant.InterconnectLimitMW > 0 && plant.InterconnectLimitMW < limit {
		limit = plant.InterconnectLimitMW
	}
	return limit, &factor
}

// PaddingPolicy extends a short sub-forecast list to the horizon length.
type PaddingPolicy string

const (
	// PadFlat repeats the last known interval.
	PadFlat PaddingPolicy = "flat"
	// PadDecay geometrically decays the last known interval toward zero.
	PadDecay PaddingPolicy = "decay"
)

// decayRatio is the per-step multiplier used by PadDecay.
const decayRatio = 0.5

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
