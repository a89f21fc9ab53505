// Package prediction implements the remote forecast provider speaking to a
// trained regression endpoint over HTTP.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sunpeak/dispatchd/core/factory"
	"github.com/sunpeak/dispatchd/core/forecast"
)

const defaultTimeout = 10 * time.Second

// Config defines the prediction endpoint connection.
type Config struct {
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`
	Location string `json:"location"`
	Horizon  int    `json:"horizon"`
	TimeoutS int    `json:"timeout_s"`
}

// Client queries the prediction endpoint for a multi-step generation
// forecast.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a Client from config. Endpoint is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("prediction endpoint is required")
	}
	timeout := defaultTimeout
	if cfg.TimeoutS > 0 {
		timeout = time.Duration(cfg.TimeoutS) * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}, nil
}

type request struct {
	Location string                 `json:"location,omitempty"`
	Horizon  int                    `json:"horizon,omitempty"`
	Rows     []forecast.Observation `json:"rows,omitempty"`
}

type response struct {
	Predictions []float64 `json:"predictions"`
	Confidence  float64   `json:"confidence"`
}

// Forecast posts the feature request and maps the returned prediction rows
// onto a forecast result.
func (c *Client) Forecast(ctx context.Context) (forecast.Result, error) {
	return c.ForecastRows(ctx, nil)
}

// ForecastRows is Forecast with explicit historical feature rows.
func (c *Client) ForecastRows(ctx context.Context, rows []forecast.Observation) (forecast.Result, error) {
	body, err := json.Marshal(request{Location: c.cfg.Location, Horizon: c.cfg.Horizon, Rows: rows})
	if err != nil {
		return forecast.Result{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return forecast.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return forecast.Result{}, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return forecast.Result{}, fmt.Errorf("prediction status %d: %s", resp.StatusCode, b)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return forecast.Result{}, fmt.Errorf("decode prediction: %w", err)
	}
	if len(out.Predictions) == 0 {
		return forecast.Result{}, fmt.Errorf("prediction returned no rows")
	}

	res := forecast.Result{Confidence: out.Confidence}
	for i, mw := range out.Predictions {
		if mw < 0 {
			mw = 0
		}
		res.Intervals = append(res.Intervals, forecast.SubForecast{
			Label: fmt.Sprintf("t%d", i),
			MW:    mw,
		})
	}
	res.MW = res.Intervals[0].MW
	return res, nil
}

// init registers the remote provider. It degrades to the stub when the
// endpoint fails so a dead model server never blocks dispatch.
func init() {
	_ = forecast.RegisterEngine("remote", func(conf map[string]any) (forecast.Engine, error) {
		var cfg Config
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		cli, err := NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return forecast.WithFallback(cli, forecast.NewStub(), nil), nil
	})
}
