// Package config loads the service configuration from a yaml or json file
// with SD_ environment variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sunpeak/dispatchd/core/metrics"
	"github.com/sunpeak/dispatchd/infra/embed"
	"github.com/sunpeak/dispatchd/infra/llm"
	"github.com/sunpeak/dispatchd/infra/mqtt"
	"github.com/sunpeak/dispatchd/infra/weather"
)

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Server    ServerConfig    `json:"server"`
	MQTT      MQTTConfig      `json:"mqtt"`
	Metrics   metrics.Config  `json:"metrics"`
	Forecast  ForecastConfig  `json:"forecast"`
	Weather   WeatherConfig   `json:"weather"`
	Knowledge KnowledgeConfig `json:"knowledge"`
	LLM       LLMConfig       `json:"llm"`
	Optimizer OptimizerConfig `json:"optimizer"`
}

// Load reads the file at path, applies SD_ environment overrides (SD_A__B
// maps to key a.b), fills defaults and validates.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("SD_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "sd_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields across all sections.
func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	c.Server.SetDefaults()
	c.Knowledge.SetDefaults()
	c.Optimizer.SetDefaults()
	if c.MQTT.Enabled {
		c.MQTT.Config.SetDefaults()
	}
}

// Validate checks all enabled sections.
func (c Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if c.MQTT.Enabled {
		if err := c.MQTT.Config.Validate(); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if c.Weather.Enabled {
		if err := c.Weather.Config.Validate(); err != nil {
			return fmt.Errorf("weather: %w", err)
		}
	}
	if c.LLM.Enabled {
		if err := c.LLM.Config.Validate(); err != nil {
			return fmt.Errorf("llm: %w", err)
		}
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	return nil
}

// MQTTConfig gates the paho subscriber behind an enabled flag.
type MQTTConfig struct {
	Enabled     bool `json:"enabled"`
	mqtt.Config `json:",squash"`
}

// WeatherConfig gates the OpenWeather client behind an enabled flag.
type WeatherConfig struct {
	Enabled        bool `json:"enabled"`
	weather.Config `json:",squash"`
}

// LLMConfig gates the chat client behind an enabled flag. Disabled means
// the agent answers offline.
type LLMConfig struct {
	Enabled    bool `json:"enabled"`
	llm.Config `json:",squash"`
}

// KnowledgeConfig selects the retrieval index and embedder. An empty
// embeddings base_url selects the built-in hashing embedder.
type KnowledgeConfig struct {
	IndexPath string       `json:"index_path"`
	DocsDir   string       `json:"docs_dir"`
	TopK      int          `json:"top_k"`
	Embed     embed.Config `json:"embed"`
}

func (c *KnowledgeConfig) SetDefaults() {
	if c.IndexPath == "" {
		c.IndexPath = "knowledge.idx.json"
	}
	if c.TopK <= 0 {
		c.TopK = 3
	}
}

// ForecastConfig selects a forecast provider by type name.
type ForecastConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}
