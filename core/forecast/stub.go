package forecast

import "context"

// Stub returns a fixed forecast. It keeps the pipeline runnable when no
// prediction endpoint or observation history is configured.
type Stub struct {
	MW         float64
	Confidence float64
}

// NewStub returns the default stub provider.
func NewStub() Stub { return Stub{MW: 42.5, Confidence: 0.87} }

// Forecast implements Engine.
func (s Stub) Forecast(context.Context) (Result, error) {
	return Result{MW: s.MW, Confidence: s.Confidence}, nil
}
