package prediction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunpeak/dispatchd/core/factory"
	"github.com/sunpeak/dispatchd/core/forecast"
)

func TestForecastMapsPredictions(t *testing.T) {
	var gotAuth string
	var gotReq request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(response{Predictions: []float64{45.5, 50.0, -1}, Confidence: 0.6})
	}))
	defer srv.Close()

	cli, err := NewClient(Config{Endpoint: srv.URL, APIKey: "k", Location: "alice-springs", Horizon: 3})
	require.NoError(t, err)

	res, err := cli.Forecast(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer k", gotAuth)
	assert.Equal(t, "alice-springs", gotReq.Location)
	assert.Equal(t, 3, gotReq.Horizon)

	require.Len(t, res.Intervals, 3)
	assert.InDelta(t, 45.5, res.MW, 1e-9)
	assert.InDelta(t, 50.0, res.Intervals[1].MW, 1e-9)
	assert.Equal(t, 0.0, res.Intervals[2].MW) // negative predictions clamp to zero
	assert.InDelta(t, 0.6, res.Confidence, 1e-9)
	assert.Equal(t, "t1", res.Intervals[1].Label)
}

func TestForecastErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not deployed", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cli, err := NewClient(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = cli.Forecast(context.Background())
	assert.ErrorContains(t, err, "prediction status 503")
}

func TestForecastEmptyPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	cli, err := NewClient(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = cli.Forecast(context.Background())
	assert.ErrorContains(t, err, "no rows")
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestRemoteRegistrationFallsBackToStub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	eng, err := forecast.NewEngine(factory.ModuleConfig{
		Type: "remote",
		Conf: map[string]any{"endpoint": srv.URL},
	})
	require.NoError(t, err)

	res, err := eng.Forecast(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 42.5, res.MW, 1e-9)
	assert.Contains(t, res.Note, "primary forecast failed")
}
