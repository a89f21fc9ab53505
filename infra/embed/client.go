// Package embed implements the knowledge embedder against an
// OpenAI-compatible embeddings endpoint.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config defines the embeddings endpoint connection.
type Config struct {
	BaseURL   string `json:"base_url"`
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
	TimeoutS  int    `json:"timeout_s"`
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("embeddings base_url is required")
	}
	if c.Model == "" {
		return fmt.Errorf("embeddings model is required")
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("embeddings dimension must be positive")
	}
	return nil
}

// Client embeds text through the HTTP endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a Client from config.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := 30 * time.Second
	if cfg.TimeoutS > 0 {
		timeout = time.Duration(cfg.TimeoutS) * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Model: c.cfg.Model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("encode embeddings request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings status %d: %s", resp.StatusCode, b)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("embeddings response has no data")
	}
	vec := out.Data[0].Embedding
	if len(vec) != c.cfg.Dimension {
		return nil, fmt.Errorf("embedding dimension %d, expected %d", len(vec), c.cfg.Dimension)
	}
	return vec, nil
}

// Dimension returns the configured vector width.
func (c *Client) Dimension() int { return c.cfg.Dimension }
