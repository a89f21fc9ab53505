package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/sunpeak/dispatchd/core/metrics"
	"github.com/sunpeak/dispatchd/core/model"
	"github.com/sunpeak/dispatchd/infra/logger"
)

// InfluxSink writes solve events and per-interval schedules to an InfluxDB
// instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSolve writes the solve outcome as one point.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_solve").
		AddTag("run_id", ev.RunID).
		AddTag("status", string(ev.Status)).
		AddField("intervals", ev.Intervals).
		AddField("total_curtailment_mw", round3(ev.TotalCurtailmentMW)).
		AddField("final_soc_mwh", round3(ev.FinalSoCMWh)).
		AddField("duration_ms", float64(ev.Duration.Milliseconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordPlan writes one point per scheduled interval.
func (s *InfluxSink) RecordPlan(runID string, plan model.DispatchPlan) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	now := time.Now()
	for i, iv := range plan.Intervals {
		p := write.NewPointWithMeasurement("dispatch_interval").
			AddTag("run_id", runID).
			AddTag("label", iv.Label).
			AddField("position", i).
			AddField("forecast_mw", round3(iv.ForecastMW)).
			AddField("grid_limit_mw", round3(iv.GridLimitMW)).
			AddField("dispatch_mw", round3(iv.DispatchMW)).
			AddField("charge_mw", round3(iv.ChargeMW)).
			AddField("discharge_mw", round3(iv.DischargeMW)).
			AddField("curtailment_mw", round3(iv.CurtailmentMW)).
			AddField("soc_mwh_end", round3(iv.SoCMWhEnd)).
			SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
