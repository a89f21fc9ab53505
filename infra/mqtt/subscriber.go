package mqtt

import (
	"encoding/json"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sunpeak/dispatchd/core/model"
	"github.com/sunpeak/dispatchd/infra/logger"
	"github.com/sunpeak/dispatchd/internal/eventbus"
)

// staleAfter drops snapshots older than this from Latest so a dead feed
// cannot keep steering the trusted merge.
const staleAfter = 15 * time.Minute

// Subscriber consumes plant telemetry and weather messages and retains the
// latest reading of each.
type Subscriber struct {
	cli Client
	log logger.Logger
	bus *eventbus.Bus

	mu      sync.RWMutex
	tel     *model.PlantTelemetry
	telAt   time.Time
	wx      *model.WeatherSnapshot
	wxAt    time.Time
	nowFunc func() time.Time
}

// Client is satisfied by the connected paho client.
type Client = pahoClient

// NewSubscriber connects to the broker and subscribes to the configured
// topics. bus may be nil.
func NewSubscriber(cfg Config, bus *eventbus.Bus) (*Subscriber, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt-subscriber")
	s := &Subscriber{log: log, bus: bus, nowFunc: time.Now}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if tok := c.Subscribe(cfg.TelemetryTopic, cfg.QoS, s.onTelemetry); tok.Wait() && tok.Error() != nil {
			log.Errorf("subscribe %s: %v", cfg.TelemetryTopic, tok.Error())
		}
		if tok := c.Subscribe(cfg.WeatherTopic, cfg.QoS, s.onWeather); tok.Wait() && tok.Error() != nil {
			log.Errorf("subscribe %s: %v", cfg.WeatherTopic, tok.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	cli := newMQTTClient(opts)
	if err := waitToken(cli.Connect()); err != nil {
		return nil, err
	}
	s.cli = cli
	return s, nil
}

func (s *Subscriber) onTelemetry(_ paho.Client, msg paho.Message) {
	var tel model.PlantTelemetry
	if err := json.Unmarshal(msg.Payload(), &tel); err != nil {
		s.log.Errorf("decode telemetry: %v", err)
		return
	}
	if tel.ReportedAt.IsZero() {
		tel.ReportedAt = s.nowFunc()
	}
	s.mu.Lock()
	s.tel = &tel
	s.telAt = s.nowFunc()
	s.mu.Unlock()
	s.log.Debugw("plant telemetry", map[string]any{"topic": msg.Topic()})
	if s.bus != nil {
		s.bus.Publish(eventbus.TelemetryEvent{Telemetry: tel, At: s.nowFunc()})
	}
}

func (s *Subscriber) onWeather(_ paho.Client, msg paho.Message) {
	var wx model.WeatherSnapshot
	if err := json.Unmarshal(msg.Payload(), &wx); err != nil {
		s.log.Errorf("decode weather: %v", err)
		return
	}
	if wx.ObservedAt.IsZero() {
		wx.ObservedAt = s.nowFunc()
	}
	s.mu.Lock()
	s.wx = &wx
	s.wxAt = s.nowFunc()
	s.mu.Unlock()
	s.log.Debugw("weather snapshot", map[string]any{"topic": msg.Topic()})
	if s.bus != nil {
		s.bus.Publish(eventbus.WeatherEvent{Weather: wx, At: s.nowFunc()})
	}
}

// Latest returns the freshest plant telemetry and weather snapshots, or
// nils for feeds that are silent or stale.
func (s *Subscriber) Latest() (*model.PlantTelemetry, *model.WeatherSnapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.nowFunc()
	var tel *model.PlantTelemetry
	if s.tel != nil && now.Sub(s.telAt) < staleAfter {
		c := *s.tel
		tel = &c
	}
	var wx *model.WeatherSnapshot
	if s.wx != nil && now.Sub(s.wxAt) < staleAfter {
		c := *s.wx
		wx = &c
	}
	return tel, wx
}

// Close disconnects from the broker.
func (s *Subscriber) Close() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}
