package agent

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sunpeak/dispatchd/core/forecast"
	"github.com/sunpeak/dispatchd/core/horizon"
	"github.com/sunpeak/dispatchd/core/knowledge"
	"github.com/sunpeak/dispatchd/core/metrics"
	"github.com/sunpeak/dispatchd/core/model"
	"github.com/sunpeak/dispatchd/core/optimize"
	"github.com/sunpeak/dispatchd/internal/eventbus"
)

// Tool names exposed to the model.
const (
	ToolSolarForecast = "get_solar_forecast"
	ToolRAGInsights   = "get_rag_insights"
	ToolSolveDispatch = "solve_dispatch"
)

// Retriever is the knowledge subsystem as seen by the agent.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]knowledge.Hit, error)
}

// Solver is the optimizer as seen by the agent.
type Solver interface {
	Solve(req optimize.Request) (model.DispatchPlan, error)
}

// TelemetrySource yields the most recent live plant and weather readings,
// or nils when none have been received.
type TelemetrySource interface {
	Latest() (*model.PlantTelemetry, *model.WeatherSnapshot)
}

// toolResult is what a tool returns to the model: a payload or a structured
// error, never a Go error (the model is expected to reason about failures).
type toolResult map[string]any

// runState carries per-run values shared between tool invocations.
type runState struct {
	runID    string
	plant    *model.PlantOverride // explicit caller plant config
	forecast *forecast.Result     // cached by the forecast tool
}

func (a *Agent) toolDefs() []ToolDef {
	obj := func(props string) json.RawMessage {
		return json.RawMessage(`{"type":"object","properties":{` + props + `},"required":[]}`)
	}
	return []ToolDef{
		{
			Name:        ToolSolarForecast,
			Description: "Retrieve the short-term solar generation forecast.",
			Parameters:  obj(``),
		},
		{
			Name:        ToolRAGInsights,
			Description: "Retrieve grounded engineering knowledge for the query.",
			Parameters:  obj(`"query":{"type":"string"}`),
		},
		{
			Name:        ToolSolveDispatch,
			Description: "Run the multi-interval BESS dispatch optimization. Plant and forecast parameters come from trusted telemetry and configuration, not from this call.",
			Parameters:  obj(``),
		},
	}
}

// runTool routes one tool call. Unknown tools yield an error payload.
func (a *Agent) runTool(ctx context.Context, st *runState, name string, args json.RawMessage) toolResult {
	switch name {
	case ToolSolarForecast:
		return a.forecastTool(ctx, st)
	case ToolRAGInsights:
		var p struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(args, &p)
		return a.ragTool(ctx, p.Query)
	case ToolSolveDispatch:
		return a.solveTool(ctx, st)
	default:
		return toolResult{"error": "unknown tool " + name}
	}
}

func (a *Agent) forecastTool(ctx context.Context, st *runState) toolResult {
	res, err := a.forecaster.Forecast(ctx)
	if err != nil {
		a.log.Errorf("forecast tool: %v", err)
		return toolResult{"error": "forecasting error: " + err.Error(), "mw": 0.0, "confidence": 0.0}
	}
	st.forecast = &res
	out := toolResult{"mw": res.MW, "confidence": res.Confidence}
	if len(res.Intervals) > 0 {
		out["intervals"] = res.Intervals
	}
	if res.Note != "" {
		out["note"] = res.Note
	}
	return out
}

func (a *Agent) ragTool(ctx context.Context, query string) toolResult {
	hits, err := a.retriever.Search(ctx, query, knowledge.DefaultTopK)
	if err != nil {
		a.log.Errorf("rag tool: %v", err)
		return toolResult{"error": "retrieval error: " + err.Error(), "query": query, "results": []knowledge.Hit{}}
	}
	return toolResult{"query": query, "results": hits}
}

// solveTool runs the payload builder and optimizer. Model-supplied
// optimization parameters are deliberately ignored: forecast values come
// from the forecast subsystem and plant parameters from the trusted merge of
// telemetry, explicit config and defaults.
func (a *Agent) solveTool(ctx context.Context, st *runState) toolResult {
	fc := st.forecast
	if fc == nil {
		res, err := a.forecaster.Forecast(ctx)
		if err != nil {
			return toolResult{"error": "forecast unavailable for dispatch: " + err.Error()}
		}
		st.forecast = &res
		fc = &res
	}

	tel, wx := a.latestTelemetry()
	plant := horizon.ResolvePlant(a.plantDefaults, st.plant, tel)

	req, err := a.builder.Build(*fc, plant, wx)
	if err != nil {
		a.recordSolve(st.runID, metrics.SolveInvalid, 0, model.DispatchPlan{}, 0)
		return toolResult{"error": "payload build failed: " + err.Error()}
	}

	start := time.Now()
	plan, err := a.solver.Solve(req)
	elapsed := time.Since(start)
	if err != nil {
		a.recordSolve(st.runID, solveStatus(err), len(req.Horizon), model.DispatchPlan{}, elapsed)
		a.log.Errorf("solve tool: %v", err)
		return toolResult{"error": "dispatch optimization failed: " + err.Error()}
	}

	a.recordSolve(st.runID, metrics.SolveOK, len(req.Horizon), plan, elapsed)
	if a.bus != nil {
		a.bus.Publish(eventbus.SolveEvent{RunID: st.runID, Plan: plan, At: time.Now()})
	}
	return toolResult{
		"dispatch_mw":          plan.DispatchMW,
		"charge_mw":            plan.ChargeMW,
		"discharge_mw":         plan.DischargeMW,
		"curtailment_mw":       plan.CurtailmentMW,
		"soc_mwh":              plan.FinalSoCMWh,
		"total_curtailment_mw": plan.TotalCurtailmentMW,
		"intervals":            plan.Intervals,
	}
}

func (a *Agent) latestTelemetry() (*model.PlantTelemetry, *model.WeatherSnapshot) {
	if a.telemetry == nil {
		return nil, nil
	}
	return a.telemetry.Latest()
}

func solveStatus(err error) metrics.SolveStatus {
	switch {
	case err == nil:
		return metrics.SolveOK
	case errors.Is(err, optimize.ErrInvalidInput):
		return metrics.SolveInvalid
	case errors.Is(err, optimize.ErrInfeasible):
		return metrics.SolveInfeasible
	default:
		return metrics.SolveFailed
	}
}

func (a *Agent) recordSolve(runID string, status metrics.SolveStatus, n int, plan model.DispatchPlan, d time.Duration) {
	if a.sink == nil {
		return
	}
	ev := metrics.SolveEvent{
		RunID:              runID,
		Status:             status,
		Intervals:          n,
		TotalCurtailmentMW: plan.TotalCurtailmentMW,
		FinalSoCMWh:        plan.FinalSoCMWh,
		Duration:           d,
		Time:               time.Now(),
	}
	if err := a.sink.RecordSolve(ev); err != nil {
		a.log.Warnf("metrics sink: %v", err)
	}
	if status == metrics.SolveOK {
		if err := a.sink.RecordPlan(runID, plan); err != nil {
			a.log.Warnf("metrics sink: %v", err)
		}
	}
}
