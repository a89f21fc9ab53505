// Package weather fetches live site conditions from the OpenWeather
// current-conditions API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sunpeak/dispatchd/core/model"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Config defines the OpenWeather connection.
type Config struct {
	APIKey   string `json:"api_key"`
	Location string `json:"location"`
	BaseURL  string `json:"base_url"`
	TimeoutS int    `json:"timeout_s"`
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("weather api_key is required")
	}
	if c.Location == "" {
		return fmt.Errorf("weather location is required")
	}
	return nil
}

// Client queries current conditions for a fixed location.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a Client from config.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := 10 * time.Second
	if cfg.TimeoutS > 0 {
		timeout = time.Duration(cfg.TimeoutS) * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}, nil
}

type owmResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Name string `json:"name"`
}

// Current fetches the current conditions. Errors are surfaced; the caller
// decides whether to run without weather.
func (c *Client) Current(ctx context.Context) (model.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("q", c.cfg.Location)
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return model.WeatherSnapshot{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.WeatherSnapshot{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return model.WeatherSnapshot{}, fmt.Errorf("weather status %d: %s", resp.StatusCode, b)
	}

	var out owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.WeatherSnapshot{}, fmt.Errorf("decode weather: %w", err)
	}
	return model.WeatherSnapshot{
		TempC:      out.Main.Temp,
		WindMS:     out.Wind.Speed,
		CloudPct:   out.Clouds.All,
		Location:   out.Name,
		ObservedAt: time.Now(),
	}, nil
}
