package fred

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/pkg/config"
	"github.com/dmarks/debasement/pkg/httputil"
	"github.com/dmarks/debasement/pkg/logger"
)

func testClient(t *testing.T, baseURL, graphURL, apiKey string) *Client {
	t.Helper()
	cfg := &config.Config{Env: "development", LogLevel: "error"}
	cfg.FRED.BaseURL = baseURL
	cfg.FRED.GraphURL = graphURL
	cfg.FRED.APIKey = apiKey
	log := logger.New(cfg)
	return NewClient(cfg, httputil.New(cfg, log).DisableRetry(), log)
}

var window = struct{ from, to time.Time }{
	from: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	to:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
}

func TestFetchSeriesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("series_id"); got != "CPIAUCSL" {
			t.Errorf("series_id = %q, want CPIAUCSL", got)
		}
		w.Write([]byte(`{"observations":[
			{"date":"2024-01-01","value":"308.417"},
			{"date":"2024-02-01","value":"."},
			{"date":"2024-03-01","value":"310.326"}
		]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, server.URL, "testkey")

	ts, err := c.FetchSeries(context.Background(), SeriesCPI, window.from, window.to)
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}

	if ts.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (missing value dropped)", ts.Len())
	}
	if ts.Values[0] != 308.417 {
		t.Errorf("first value = %v, want 308.417", ts.Values[0])
	}
}

func TestFetchSeriesFallsBackToCSV(t *testing.T) {
	jsonServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer jsonServer.Close()

	csvServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "fredgraph.csv") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte("DATE,M2V\n2024-01-01,1.337\n2024-02-01,.\n2024-03-01,1.341\n"))
	}))
	defer csvServer.Close()

	c := testClient(t, jsonServer.URL, csvServer.URL, "testkey")

	ts, err := c.FetchSeries(context.Background(), SeriesM2Velocity, window.from, window.to)
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}

	if ts.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ts.Len())
	}
	if ts.Values[1] != 1.341 {
		t.Errorf("last value = %v, want 1.341", ts.Values[1])
	}
}

func TestFetchSeriesSkipsKeyedWithoutKey(t *testing.T) {
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "fredgraph.csv") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		keys = append(keys, r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"observations":[{"date":"2024-01-01","value":"100"}]}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, server.URL, "")

	ts, err := c.FetchSeries(context.Background(), SeriesM2, window.from, window.to)
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}
	if ts.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ts.Len())
	}
	if len(keys) != 1 || keys[0] != "demo" {
		t.Errorf("api keys seen = %v, want only the demo key", keys)
	}
}

func TestFetchSeriesAllStrategiesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server.URL, server.URL, "testkey")

	_, err := c.FetchSeries(context.Background(), SeriesCPI, window.from, window.to)
	if !errors.Is(err, contracts.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestNormalizeUnits(t *testing.T) {
	base := contracts.NewTimeSeries([]contracts.Point{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 5.0},
	})

	tests := []struct {
		seriesID string
		want     float64
	}{
		{SeriesRealGDP, 5e9},
		{SeriesGDP, 5e9},
		{SeriesM2Weekly, 5e9},
		{SeriesFedFunds, 0.05},
		{SeriesUnemployed, 5000},
		{SeriesCPI, 5.0},
	}

	for _, tt := range tests {
		got := normalizeUnits(tt.seriesID, base)
		if got.Values[0] != tt.want {
			t.Errorf("normalizeUnits(%s) = %v, want %v", tt.seriesID, got.Values[0], tt.want)
		}
	}
}
