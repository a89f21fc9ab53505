package optimize

import (
	"math"

	"github.com/sunpeak/dispatchd/core/model"
)

// clean snaps solver noise to zero and onto the given bounds.
func clean(v, lo, hi float64) float64 {
	if v < lo+solveTol && v > lo-solveTol {
		return lo
	}
	if v > hi-solveTol && v < hi+solveTol {
		return hi
	}
	return v
}

// project maps solved variable values back into the dispatch plan structure:
// the per-interval schedule, horizon aggregates, and the first interval
// mirrored at the top level for single-step callers.
func project(req Request, x []float64) model.DispatchPlan {
	n := len(req.Horizon)
	plan := model.DispatchPlan{Intervals: make([]model.IntervalResult, n)}

	for t, iv := range req.Horizon {
		res := model.IntervalResult{
			Label:              iv.Label,
			ForecastMW:         iv.ForecastMW,
			GridLimitMW:        iv.GridLimitMW,
			DispatchMW:         clean(x[varIndex(blockDispatch, t, n)], 0, iv.GridLimitMW),
			ChargeMW:           clean(x[varIndex(blockCharge, t, n)], 0, req.Plant.MaxChargeMW),
			DischargeMW:        clean(x[varIndex(blockDischarge, t, n)], 0, req.Plant.MaxDischargeMW),
			CurtailmentMW:      clean(x[varIndex(blockCurtail, t, n)], 0, math.Inf(1)),
			SoCMWhEnd:          clean(x[varIndex(blockSoC, t, n)], 0, req.Plant.CapacityMWh),
			IrradianceFactor:   iv.IrradianceFactor,
			ForecastConfidence: iv.ForecastConfidence,
		}
		plan.Intervals[t] = res
		plan.TotalCurtailmentMW += res.CurtailmentMW
	}

	first := plan.Intervals[0]
	plan.DispatchMW = first.DispatchMW
	plan.ChargeMW = first.ChargeMW
	plan.DischargeMW = first.DischargeMW
	plan.CurtailmentMW = first.CurtailmentMW
	plan.FinalSoCMWh = plan.Intervals[n-1].SoCMWhEnd
	return plan
}
