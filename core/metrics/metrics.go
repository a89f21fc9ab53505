package metrics

import (
	"time"

	"github.com/sunpeak/dispatchd/core/model"
)

// SolveStatus classifies the outcome of one optimization run.
type SolveStatus string

const (
	SolveOK         SolveStatus = "ok"
	SolveInvalid    SolveStatus = "invalid_input"
	SolveInfeasible SolveStatus = "infeasible"
	SolveFailed     SolveStatus = "failed"
)

// SolveEvent captures one optimizer invocation for observability purposes.
type SolveEvent struct {
	RunID              string
	Status             SolveStatus
	Intervals          int
	TotalCurtailmentMW float64
	FinalSoCMWh        float64
	Duration           time.Duration
	Time               time.Time
}

// Sink records solve events and plans. Implementations must be safe for
// concurrent use.
type Sink interface {
	RecordSolve(ev SolveEvent) error
	RecordPlan(runID string, plan model.DispatchPlan) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error                { return nil }
func (NopSink) RecordPlan(string, model.DispatchPlan) error { return nil }
