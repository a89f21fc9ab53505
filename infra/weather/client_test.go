package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Alice Springs", r.URL.Query().Get("q"))
		assert.Equal(t, "key123", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(`{
			"main": {"temp": 33.2},
			"wind": {"speed": 4.1},
			"clouds": {"all": 15},
			"name": "Alice Springs"
		}`))
	}))
	defer srv.Close()

	cli, err := NewClient(Config{APIKey: "key123", Location: "Alice Springs", BaseURL: srv.URL})
	require.NoError(t, err)

	wx, err := cli.Current(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 33.2, wx.TempC, 1e-9)
	assert.InDelta(t, 4.1, wx.WindMS, 1e-9)
	assert.InDelta(t, 15, wx.CloudPct, 1e-9)
	assert.Equal(t, "Alice Springs", wx.Location)
	assert.False(t, wx.ObservedAt.IsZero())
}

func TestCurrentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	cli, err := NewClient(Config{APIKey: "bad", Location: "x", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = cli.Current(context.Background())
	assert.ErrorContains(t, err, "weather status 401")
}

func TestConfigValidate(t *testing.T) {
	_, err := NewClient(Config{Location: "x"})
	assert.ErrorContains(t, err, "api_key")

	_, err = NewClient(Config{APIKey: "k"})
	assert.ErrorContains(t, err, "location")
}
