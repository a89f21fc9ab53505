// Package app wires the configured subsystems into a runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sunpeak/dispatchd/api"
	"github.com/sunpeak/dispatchd/config"
	"github.com/sunpeak/dispatchd/core/agent"
	"github.com/sunpeak/dispatchd/core/factory"
	"github.com/sunpeak/dispatchd/core/forecast"
	"github.com/sunpeak/dispatchd/core/knowledge"
	coremetrics "github.com/sunpeak/dispatchd/core/metrics"
	"github.com/sunpeak/dispatchd/core/model"
	"github.com/sunpeak/dispatchd/core/optimize"
	"github.com/sunpeak/dispatchd/infra/embed"
	"github.com/sunpeak/dispatchd/infra/llm"
	"github.com/sunpeak/dispatchd/infra/logger"
	"github.com/sunpeak/dispatchd/infra/metrics"
	"github.com/sunpeak/dispatchd/infra/mqtt"
	"github.com/sunpeak/dispatchd/infra/weather"
	"github.com/sunpeak/dispatchd/internal/eventbus"

	// Registers the remote forecast provider.
	_ "github.com/sunpeak/dispatchd/connectors/prediction"
)

// weatherPollInterval is how often the OpenWeather poller refreshes.
const weatherPollInterval = 10 * time.Minute

// Service orchestrates the agent, its collaborators and the HTTP surface.
type Service struct {
	Agent *agent.Agent

	cfg  *config.Config
	bus  *eventbus.Bus
	sub  *mqtt.Subscriber
	wx   *weather.Client
	src  *telemetrySource
	log  logger.Logger
	prom bool
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	logg := logger.New("service")

	engine, err := forecast.NewEngine(factory.ModuleConfig{Type: cfg.Forecast.Type, Conf: cfg.Forecast.Conf})
	if err != nil {
		return nil, fmt.Errorf("forecast engine: %w", err)
	}

	retriever, err := newRetriever(cfg.Knowledge, logg)
	if err != nil {
		return nil, fmt.Errorf("knowledge engine: %w", err)
	}

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New()
	svc := &Service{cfg: cfg, bus: bus, log: logg, prom: hasPromSink(cfg)}

	src := &telemetrySource{}
	if cfg.MQTT.Enabled {
		sub, err := mqtt.NewSubscriber(cfg.MQTT.Config, bus)
		if err != nil {
			bus.Close()
			return nil, fmt.Errorf("mqtt subscriber: %w", err)
		}
		svc.sub = sub
		src.sub = sub
	}
	if cfg.Weather.Enabled {
		wx, err := weather.NewClient(cfg.Weather.Config)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("weather client: %w", err)
		}
		svc.wx = wx
	}
	svc.src = src

	solver := optimize.New(logger.New("optimizer"))
	if cfg.Optimizer.MaxNodes > 0 {
		solver.MaxNodes = cfg.Optimizer.MaxNodes
	}

	opts := []agent.Option{
		agent.WithTelemetry(src),
		agent.WithMetrics(sink),
		agent.WithEventBus(bus),
	}
	if cfg.LLM.Enabled {
		chat, err := llm.NewClient(cfg.LLM.Config)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("llm client: %w", err)
		}
		opts = append(opts, agent.WithLLM(chat))
	}

	ag, err := agent.New(engine, retriever, cfg.Optimizer.Builder(), solver,
		cfg.Optimizer.Plant.State(), logger.New("agent"), opts...)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("agent: %w", err)
	}
	svc.Agent = ag
	return svc, nil
}

// Run serves the HTTP API until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.prom {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Server.MetricsAddr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.wx != nil {
		go s.pollWeather(ctx)
	}

	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: api.NewHandler(s.Agent, logger.New("api")),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("api shutdown: %v", err)
		}
	}()

	s.log.Infof("serving dispatch API on %s", s.cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// pollWeather refreshes the cached weather snapshot on a fixed interval.
func (s *Service) pollWeather(ctx context.Context) {
	tick := time.NewTicker(weatherPollInterval)
	defer tick.Stop()
	for {
		wx, err := s.wx.Current(ctx)
		if err != nil {
			s.log.Warnf("weather poll: %v", err)
		} else {
			s.src.setWeather(wx)
			s.bus.Publish(eventbus.WeatherEvent{Weather: wx, At: time.Now()})
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.sub != nil {
		s.sub.Close()
	}
	s.bus.Close()
	return nil
}

// hasPromSink reports whether a prometheus sink is configured, which decides
// whether the /metrics listener starts.
func hasPromSink(cfg *config.Config) bool {
	for _, sc := range cfg.Metrics.Sinks {
		if sc.Type == "prometheus" {
			return true
		}
	}
	return false
}

// NewEmbedder selects the configured embedder: the HTTP client when a
// base_url is set, the built-in hashing embedder otherwise.
func NewEmbedder(cfg config.KnowledgeConfig) (knowledge.Embedder, error) {
	if cfg.Embed.BaseURL != "" {
		return embed.NewClient(cfg.Embed)
	}
	dim := cfg.Embed.Dimension
	if dim <= 0 {
		dim = knowledge.DefaultHashDim
	}
	return knowledge.HashEmbedder{Dim: dim}, nil
}

// newRetriever loads the knowledge index when present; a missing index file
// yields an empty engine so retrieval degrades instead of failing startup.
func newRetriever(cfg config.KnowledgeConfig, log logger.Logger) (*knowledge.Engine, error) {
	emb, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	index, err := knowledge.LoadIndex(cfg.IndexPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Warnf("knowledge index %s not found, retrieval starts empty", cfg.IndexPath)
		index = knowledge.NewIndex(emb.Dimension())
	}
	return knowledge.NewEngine(index, emb, log), nil
}

// telemetrySource merges the MQTT feed with the polled weather snapshot. The
// MQTT weather topic wins over the poller when both are live.
type telemetrySource struct {
	sub *mqtt.Subscriber

	mu   sync.RWMutex
	wx   *model.WeatherSnapshot
	wxAt time.Time
}

func (t *telemetrySource) setWeather(wx model.WeatherSnapshot) {
	t.mu.Lock()
	t.wx = &wx
	t.wxAt = time.Now()
	t.mu.Unlock()
}

func (t *telemetrySource) Latest() (*model.PlantTelemetry, *model.WeatherSnapshot) {
	var tel *model.PlantTelemetry
	var wx *model.WeatherSnapshot
	if t.sub != nil {
		tel, wx = t.sub.Latest()
	}
	if wx == nil {
		t.mu.RLock()
		if t.wx != nil && time.Since(t.wxAt) < time.Hour {
			c := *t.wx
			wx = &c
		}
		t.mu.RUnlock()
	}
	return tel, wx
}
