package forecast

import (
	"context"
	"fmt"
)

// naiveConfidence is the trust assigned to projected values. Projection is a
// coarse trend extrapolation, so it ranks well below a real model endpoint.
const naiveConfidence = 0.6

// Naive extrapolates recent solar output linearly over the requested future
// steps using the mean slope of the observation window.
type Naive struct {
	History []Observation
	Future  []Observation
}

// Project returns the future observations with SolarOutputMW filled in by
// linear extrapolation. The slope is averaged over the whole history window
// rather than taken from the last pair, which smooths single-interval noise.
func Project(history, future []Observation) ([]Observation, error) {
	if len(history) < 2 {
		return nil, fmt.Errorf("projection needs at least two historical observations, got %d", len(history))
	}
	first := history[0].SolarOutputMW
	last := history[len(history)-1].SolarOutputMW
	slope := (last - first) / float64(len(history)-1)

	out := make([]Observation, len(future))
	value := last
	for i, f := range future {
		value += slope
		f.SolarOutputMW = value
		out[i] = f
	}
	return out, nil
}

// Forecast implements Engine.
func (n Naive) Forecast(context.Context) (Result, error) {
	projected, err := Project(n.History, n.Future)
	if err != nil {
		return Result{}, err
	}
	if len(projected) == 0 {
		return Result{}, fmt.Errorf("projection produced no intervals")
	}

	res := Result{Confidence: naiveConfidence}
	for i, p := range projected {
		mw := p.SolarOutputMW
		if mw < 0 {
			mw = 0
		}
		res.Intervals = append(res.Intervals, SubForecast{
			Label: fmt.Sprintf("t%d", i),
			MW:    mw,
		})
	}
	res.MW = res.Intervals[0].MW
	return res, nil
}
