// Package yahoo fetches market data from Yahoo Finance. Yahoo
// throttles aggressively and changes behavior between endpoints, so
// every fetch walks a chain of strategies.
package yahoo

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

// browserHeaders makes requests look like an ordinary browser session.
// The chart endpoint rejects the default Go user agent.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Client fetches price history and quotes from Yahoo Finance.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	quoteURL   string
}

// NewClient creates a Yahoo Finance client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", "yahoo"),
		baseURL:    cfg.Yahoo.BaseURL,
		quoteURL:   cfg.Yahoo.QuoteURL,
	}
}

// FetchPrices fetches daily closing prices for a symbol, trying each
// strategy in order until one returns data:
//
//  1. the chart API with browser headers and an explicit date window
//  2. the CSV download endpoint
//  3. the chart API with a range lookback, filtered to the window
func (c *Client) FetchPrices(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error) {
	type strategy struct {
		name string
		run  func(context.Context, string, time.Time, time.Time) (contracts.TimeSeries, error)
	}

	strategies := []strategy{
		{"chart_window", c.fetchChartWindow},
		{"csv_download", c.fetchCSVDownload},
		{"chart_range", c.fetchChartRange},
	}

	var lastErr error
	for _, s := range strategies {
		ts, err := s.run(ctx, symbol, from, to)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"symbol":   symbol,
				"strategy": s.name,
				"error":    err.Error(),
			}).Warn("Yahoo strategy failed")
			lastErr = err
			continue
		}
		if ts.IsEmpty() {
			lastErr = fmt.Errorf("strategy %s returned no prices", s.name)
			continue
		}

		c.logger.WithFields(map[string]interface{}{
			"symbol":   symbol,
			"strategy": s.name,
			"count":    ts.Len(),
		}).Debug("Fetched Yahoo prices")
		return ts, nil
	}

	return contracts.TimeSeries{}, fmt.Errorf("yahoo %s: %v: %w", symbol, lastErr, contracts.ErrDataUnavailable)
}

func (c *Client) fetchChartWindow(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", "1d")

	return c.fetchChart(ctx, symbol, params, from, to)
}

func (c *Client) fetchChartRange(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error) {
	params := url.Values{}
	params.Set("range", lookbackRange(to.Sub(from)))
	params.Set("interval", "1d")

	ts, err := c.fetchChart(ctx, symbol, params, from, to)
	if err != nil {
		return contracts.TimeSeries{}, err
	}
	// The range is anchored to now, so trim back to the request window.
	return ts.Window(from, to), nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string, params url.Values, from, to time.Time) (contracts.TimeSeries, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, browserHeaders)
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

	return parseChart(body)
}

func (c *Client) fetchCSVDownload(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "history")

	fullURL := fmt.Sprintf("%s/v7/finance/download/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, browserHeaders)
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return contracts.TimeSeries{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return parseDownloadCSV(resp.Body)
}

// chartResponse is the v8 chart payload, reduced to what we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// parseChart extracts daily closes from the chart payload, preferring
// adjusted closes. Null positions (halts, holidays) are dropped.
func parseChart(body []byte) (contracts.TimeSeries, error) {
	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("parse response failed: %w", err)
	}
	if payload.Chart.Error != nil {
		return contracts.TimeSeries{}, fmt.Errorf("chart error: %s", payload.Chart.Error.Code)
	}
	if len(payload.Chart.Result) == 0 {
		return contracts.TimeSeries{}, fmt.Errorf("empty chart result")
	}

	result := payload.Chart.Result[0]

	var closes []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	var points []contracts.Point
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, contracts.Point{
			Date:  time.Unix(ts, 0).UTC(),
			Value: *closes[i],
		})
	}

	return contracts.NewTimeSeries(points), nil
}

// parseDownloadCSV parses the historical download CSV: Date first
// column, Adj Close preferred over Close. "null" rows are dropped.
func parseDownloadCSV(r io.Reader) (contracts.TimeSeries, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("parse CSV failed: %w", err)
	}
	if len(records) < 2 {
		return contracts.TimeSeries{}, nil
	}

	header := records[0]
	col := -1
	for i, name := range header {
		if name == "Adj Close" {
			col = i
			break
		}
		if name == "Close" && col == -1 {
			col = i
		}
	}
	if col == -1 {
		return contracts.TimeSeries{}, fmt.Errorf("no close column in CSV header %v", header)
	}

	var points []contracts.Point
	for _, rec := range records[1:] {
		if len(rec) <= col {
			continue
		}
		raw := strings.TrimSpace(rec[col])
		if raw == "null" || raw == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		points = append(points, contracts.Point{Date: date, Value: v})
	}

	return contracts.NewTimeSeries(points), nil
}

// lookbackRange maps a window length to the nearest chart range token.
func lookbackRange(d time.Duration) string {
	days := int(d.Hours() / 24)
	switch {
	case days <= 7:
		return "7d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	case days <= 1825:
		return "5y"
	default:
		return "10y"
	}
}
