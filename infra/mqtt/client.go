// Package mqtt subscribes to the plant SCADA and weather feeds over MQTT
// and keeps the most recent snapshot of each for the trusted merge.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker         string      `json:"broker"`
	ClientID       string      `json:"client_id"`
	Username       string      `json:"username"`
	Password       string      `json:"password"`
	TelemetryTopic string      `json:"telemetry_topic"`
	WeatherTopic   string      `json:"weather_topic"`
	QoS            byte        `json:"qos"`
	UseTLS         bool        `json:"use_tls"`
	ClientCert     string      `json:"client_cert"`
	ClientKey      string      `json:"client_key"`
	CABundle       string      `json:"ca_bundle"`
	TLSConfig      *tls.Config `json:"-"`
}

// SetDefaults fills unset fields with sensible values.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatchd-" + uuid.NewString()[:8]
	}
	if c.TelemetryTopic == "" {
		c.TelemetryTopic = "plant/telemetry"
	}
	if c.WeatherTopic == "" {
		c.WeatherTopic = "plant/weather"
	}
}

// Validate checks the connection parameters.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	if c.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2")
	}
	return nil
}

// pahoClient is the slice of the Paho API this package uses. Tests swap it
// out through newMQTTClient.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// waitTimeout bounds how long connect and subscribe tokens may block.
const waitTimeout = 10 * time.Second

func waitToken(tok paho.Token) error {
	if !tok.WaitTimeout(waitTimeout) {
		return fmt.Errorf("mqtt operation timed out")
	}
	return tok.Error()
}
