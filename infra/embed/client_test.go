package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	var gotReq embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	cli, err := NewClient(Config{BaseURL: srv.URL, Model: "text-embedding-3-small", Dimension: 3})
	require.NoError(t, err)

	vec, err := cli.Embed(context.Background(), "battery curtailment")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, []string{"battery curtailment"}, gotReq.Input)
	assert.Equal(t, 3, cli.Dimension())
}

func TestEmbedDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2]}]}`))
	}))
	defer srv.Close()

	cli, err := NewClient(Config{BaseURL: srv.URL, Model: "m", Dimension: 3})
	require.NoError(t, err)

	_, err = cli.Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "dimension 2, expected 3")
}

func TestEmbedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	cli, err := NewClient(Config{BaseURL: srv.URL, Model: "m", Dimension: 3})
	require.NoError(t, err)

	_, err = cli.Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "embeddings status 403")
}

func TestConfigValidate(t *testing.T) {
	_, err := NewClient(Config{Model: "m", Dimension: 3})
	assert.ErrorContains(t, err, "base_url")
	_, err = NewClient(Config{BaseURL: "http://x", Dimension: 3})
	assert.ErrorContains(t, err, "model")
	_, err = NewClient(Config{BaseURL: "http://x", Model: "m"})
	assert.ErrorContains(t, err, "dimension")
}
