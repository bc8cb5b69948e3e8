// Package fred fetches economic time series from the Federal Reserve
// Economic Data API.
package fred

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/pkg/config"
	"github.com/dmarks/debasement/pkg/httputil"
	"github.com/dmarks/debasement/pkg/logger"
)

// Well-known series identifiers.
const (
	SeriesCPI        = "CPIAUCSL" // CPI, all urban consumers, monthly
	SeriesM2         = "M2SL"     // M2 money stock, monthly
	SeriesM2Weekly   = "WM2NS"    // M2 money stock, weekly, not seasonally adjusted
	SeriesM2Velocity = "M2V"      // M2 velocity, quarterly
	SeriesRealGDP    = "GDPC1"    // real GDP, quarterly
	SeriesGDP        = "GDP"      // nominal GDP, quarterly
	SeriesFedFunds   = "FEDFUNDS" // effective federal funds rate, monthly
	SeriesUnemployed = "UNEMPLOY" // unemployment level, monthly
)

// Client fetches series from FRED. All FRED API calls go through here.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	graphURL   string
	apiKey     string
}

// NewClient creates a FRED client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", "fred"),
		baseURL:    cfg.FRED.BaseURL,
		graphURL:   cfg.FRED.GraphURL,
		apiKey:     cfg.FRED.APIKey,
	}
}

// FetchSeries fetches observations for a series, trying each access
// path in order until one yields data:
//
//  1. the JSON observations API with the configured key
//  2. the fredgraph CSV endpoint, which needs no key
//  3. the JSON observations API with the public demo key
//
// Values are normalized to base units before returning.
func (c *Client) FetchSeries(ctx context.Context, seriesID string, from, to time.Time) (contracts.TimeSeries, error) {
	type strategy struct {
		name string
		run  func(context.Context, string, time.Time, time.Time) (contracts.TimeSeries, error)
	}

	strategies := []strategy{
		{"keyed_json", c.fetchJSONKeyed},
		{"graph_csv", c.fetchGraphCSV},
		{"demo_json", c.fetchJSONDemo},
	}

	var lastErr error
	for _, s := range strategies {
		ts, err := s.run(ctx, seriesID, from, to)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"series":   seriesID,
				"strategy": s.name,
				"error":    err.Error(),
			}).Warn("FRED strategy failed")
			lastErr = err
			continue
		}
		if ts.IsEmpty() {
			lastErr = fmt.Errorf("strategy %s returned no observations", s.name)
			continue
		}

		c.logger.WithFields(map[string]interface{}{
			"series":   seriesID,
			"strategy": s.name,
			"count":    ts.Len(),
		}).Debug("Fetched FRED series")
		return normalizeUnits(seriesID, ts), nil
	}

	return contracts.TimeSeries{}, fmt.Errorf("fred %s: %v: %w", seriesID, lastErr, contracts.ErrDataUnavailable)
}

func (c *Client) fetchJSONKeyed(ctx context.Context, seriesID string, from, to time.Time) (contracts.TimeSeries, error) {
	if c.apiKey == "" {
		return contracts.TimeSeries{}, fmt.Errorf("no API key configured")
	}
	return c.fetchJSON(ctx, seriesID, c.apiKey, from, to)
}

func (c *Client) fetchJSONDemo(ctx context.Context, seriesID string, from, to time.Time) (contracts.TimeSeries, error) {
	return c.fetchJSON(ctx, seriesID, "demo", from, to)
}

func (c *Client) fetchJSON(ctx context.Context, seriesID, apiKey string, from, to time.Time) (contracts.TimeSeries, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", apiKey)
	params.Set("file_type", "json")
	params.Set("observation_start", from.Format("2006-01-02"))
	params.Set("observation_end", to.Format("2006-01-02"))

	fullURL := fmt.Sprintf("%s/series/observations?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return contracts.TimeSeries{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("read response body failed: %w", err)
	}

	return parseObservations(body)
}

func (c *Client) fetchGraphCSV(ctx context.Context, seriesID string, from, to time.Time) (contracts.TimeSeries, error) {
	params := url.Values{}
	params.Set("id", seriesID)
	params.Set("cosd", from.Format("2006-01-02"))
	params.Set("coed", to.Format("2006-01-02"))

	fullURL := fmt.Sprintf("%s/fredgraph.csv?%s", c.graphURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return contracts.TimeSeries{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return parseCSV(resp.Body)
}

// observationsResponse is the JSON observations payload.
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// parseObservations parses the JSON observations payload. FRED marks
// missing values with "."; those observations are dropped.
func parseObservations(body []byte) (contracts.TimeSeries, error) {
	var payload observationsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("parse response failed: %w", err)
	}

	var points []contracts.Point
	for _, obs := range payload.Observations {
		if obs.Value == "." {
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		points = append(points, contracts.Point{Date: date, Value: value})
	}

	return contracts.NewTimeSeries(points), nil
}

// parseCSV parses the fredgraph CSV payload: a DATE header column and
// one value column named after the series. Missing values are ".".
func parseCSV(r io.Reader) (contracts.TimeSeries, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("parse CSV failed: %w", err)
	}
	if len(records) < 2 {
		return contracts.TimeSeries{}, nil
	}

	var points []contracts.Point
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		value := strings.TrimSpace(rec[1])
		if value == "." {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		points = append(points, contracts.Point{Date: date, Value: v})
	}

	return contracts.NewTimeSeries(points), nil
}

// normalizeUnits converts FRED's published units to base units: GDP
// series are in billions of dollars, FEDFUNDS is a percentage, and
// UNEMPLOY counts thousands of people.
func normalizeUnits(seriesID string, ts contracts.TimeSeries) contracts.TimeSeries {
	switch seriesID {
	case SeriesGDP, SeriesM2Weekly, SeriesRealGDP:
		return ts.Scale(1e9)
	case SeriesFedFunds:
		return ts.Scale(1.0 / 100)
	case SeriesUnemployed:
		return ts.Scale(1000)
	default:
		return ts
	}
}
