package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/sunpeak/dispatchd/core/metrics"
	"github.com/sunpeak/dispatchd/core/model"
)

// PromSink records solve outcomes in Prometheus metrics.
type PromSink struct {
	solves      *prometheus.CounterVec
	latency     prometheus.Histogram
	curtailment prometheus.Gauge
	finalSoC    prometheus.Gauge
	intervals   prometheus.Gauge
}

// NewPromSink registers solve metrics on the default Prometheus registerer.
// The metrics HTTP server is started separately by the application.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_solves_total",
		Help: "Total number of dispatch optimization runs by outcome",
	}, []string{"status"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_solve_seconds",
		Help:    "Wall-clock duration of one dispatch optimization",
		Buckets: prometheus.DefBuckets,
	})
	curtailment := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_total_curtailment_mw",
		Help: "Horizon-total curtailment of the most recent successful solve",
	})
	finalSoC := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_final_soc_mwh",
		Help: "End-of-horizon battery state of charge of the most recent solve",
	})
	intervals := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_horizon_intervals",
		Help: "Number of intervals in the most recent solve request",
	})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	gauges := []struct {
		c   prometheus.Collector
		set func(prometheus.Collector)
	}{
		{latency, func(c prometheus.Collector) { latency = c.(prometheus.Histogram) }},
		{curtailment, func(c prometheus.Collector) { curtailment = c.(prometheus.Gauge) }},
		{finalSoC, func(c prometheus.Collector) { finalSoC = c.(prometheus.Gauge) }},
		{intervals, func(c prometheus.Collector) { intervals = c.(prometheus.Gauge) }},
	}
	for _, g := range gauges {
		if err := reg.Register(g.c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				g.set(are.ExistingCollector)
			} else {
				return nil, err
			}
		}
	}

	return &PromSink{
		solves:      solves,
		latency:     latency,
		curtailment: curtailment,
		finalSoC:    finalSoC,
		intervals:   intervals,
	}, nil
}

// RecordSolve increments the outcome counter and observes the duration.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(string(ev.Status)).Inc()
	s.latency.Observe(ev.Duration.Seconds())
	s.intervals.Set(float64(ev.Intervals))
	return nil
}

// RecordPlan exposes the headline figures of the latest schedule.
func (s *PromSink) RecordPlan(_ string, plan model.DispatchPlan) error {
	s.curtailment.Set(plan.TotalCurtailmentMW)
	s.finalSoC.Set(plan.FinalSoCMWh)
	return nil
}
