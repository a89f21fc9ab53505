package metrics

import (
	"errors"

	"github.com/sunpeak/dispatchd/core/model"
)

// MultiSink fans records out to several sinks, joining their errors.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordSolve(ev SolveEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordSolve(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordPlan(runID string, plan model.DispatchPlan) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordPlan(runID, plan); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
