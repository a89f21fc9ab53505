package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/sunpeak/dispatchd/core/metrics"
	"github.com/sunpeak/dispatchd/core/model"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	metric:
		for _, m := range fam.GetMetric() {
			for k, v := range labels {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
						break
					}
				}
				if !found {
					continue metric
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestPromSinkRecordSolve(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	err = sink.RecordSolve(coremetrics.SolveEvent{
		RunID:     "r1",
		Status:    coremetrics.SolveOK,
		Intervals: 6,
		Duration:  120 * time.Millisecond,
		Time:      time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{Status: coremetrics.SolveInfeasible}))

	assert.Equal(t, 1.0, gatherValue(t, reg, "dispatch_solves_total", map[string]string{"status": "ok"}))
	assert.Equal(t, 1.0, gatherValue(t, reg, "dispatch_solves_total", map[string]string{"status": "infeasible"}))
	assert.Equal(t, 2.0, gatherValue(t, reg, "dispatch_solve_seconds", nil))
}

func TestPromSinkRecordPlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	err = sink.RecordPlan("r1", model.DispatchPlan{TotalCurtailmentMW: 3.25, FinalSoCMWh: 7.5})
	require.NoError(t, err)

	assert.Equal(t, 3.25, gatherValue(t, reg, "dispatch_total_curtailment_mw", nil))
	assert.Equal(t, 7.5, gatherValue(t, reg, "dispatch_final_soc_mwh", nil))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	// A second sink on the same registry reuses the existing collectors.
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{Status: coremetrics.SolveOK}))
}
