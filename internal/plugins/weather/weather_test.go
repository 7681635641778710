package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCity(t *testing.T) {
	cases := map[string]string{
		"what's the weather in Tokyo?":   "tokyo",
		"forecast for New York":          "new york",
		"weather":                        "London",
		"how hot is it today":            "London",
		"weather in ":                    "London",
	}
	for input, want := range cases {
		assert.Equal(t, want, ExtractCity(input, "London"), "input %q", input)
	}
}

func TestHandleCommandNoAPIKey(t *testing.T) {
	p := New("", "London", nil)

	resp, err := p.HandleCommand(context.Background(), "weather in Paris")
	require.NoError(t, err)
	assert.Contains(t, resp, "not configured")
}

func TestHandleCommandCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "tokyo", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		w.Write([]byte(`{
			"name": "Tokyo",
			"weather": [{"description": "light rain"}],
			"main": {"temp": 21.3, "feels_like": 22.0, "humidity": 65}
		}`))
	}))
	defer server.Close()

	p := New("test-key", "London", nil)
	p.baseURL = server.URL

	resp, err := p.HandleCommand(context.Background(), "weather in Tokyo")
	require.NoError(t, err)
	assert.Contains(t, resp, "Tokyo")
	assert.Contains(t, resp, "light rain")
	assert.Contains(t, resp, "21.3")
}

func TestHandleCommandForecast(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forecast", r.URL.Path)
		w.Write([]byte(`{
			"city": {"name": "Berlin"},
			"list": [
				{"dt_txt": "2026-08-25 12:00:00", "weather": [{"description": "clear sky"}], "main": {"temp": 24.0}},
				{"dt_txt": "2026-08-25 15:00:00", "weather": [{"description": "few clouds"}], "main": {"temp": 25.5}}
			]
		}`))
	}))
	defer server.Close()

	p := New("test-key", "London", nil)
	p.baseURL = server.URL

	resp, err := p.HandleCommand(context.Background(), "forecast for Berlin")
	require.NoError(t, err)
	assert.Contains(t, resp, "Forecast for Berlin")
	assert.Contains(t, resp, "clear sky")
	assert.Contains(t, resp, "few clouds")
}

func TestHandleCommandUnknownCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":"404"}`, http.StatusNotFound)
	}))
	defer server.Close()

	p := New("test-key", "London", nil)
	p.baseURL = server.URL

	_, err := p.HandleCommand(context.Background(), "weather in Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "atlantis")
}

func TestHandleCommandBadKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	p := New("bad-key", "London", nil)
	p.baseURL = server.URL

	_, err := p.HandleCommand(context.Background(), "weather")
	require.Error(t, err)
}
