// Package coingecko fetches cryptocurrency prices from the CoinGecko
// API, the primary source for crypto history. Yahoo serves as fallback.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/pkg/config"
	"github.com/dmarks/debasement/pkg/httputil"
	"github.com/dmarks/debasement/pkg/logger"
)

// MaxHistoryDays is the free tier's daily-history limit per request.
const MaxHistoryDays = 365

// coinIDs maps common ticker spellings to CoinGecko coin IDs.
var coinIDs = map[string]string{
	"BTC-USD":  "bitcoin",
	"BTC":      "bitcoin",
	"BITCOIN":  "bitcoin",
	"ETH-USD":  "ethereum",
	"ETH":      "ethereum",
	"ETHEREUM": "ethereum",
}

// Client fetches prices from CoinGecko.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a CoinGecko client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("provider", "coingecko"),
		baseURL:    cfg.CoinGecko.BaseURL,
	}
}

// CoinID resolves a symbol like "BTC-USD" to a CoinGecko coin ID.
// Unknown symbols pass through lowercased, which works for symbols
// that already are coin IDs ("bitcoin").
func CoinID(symbol string) string {
	upper := strings.ToUpper(symbol)
	if id, ok := coinIDs[upper]; ok {
		return id
	}
	if strings.HasPrefix(upper, "BTC") {
		return "bitcoin"
	}
	if strings.HasPrefix(upper, "ETH") {
		return "ethereum"
	}
	return strings.ToLower(symbol)
}

// FetchPrices fetches daily prices via the market_chart endpoint and
// trims the result to the requested window. Requests beyond the free
// tier's history limit are capped at MaxHistoryDays.
func (c *Client) FetchPrices(ctx context.Context, symbol string, from, to time.Time) (contracts.TimeSeries, error) {
	coinID := CoinID(symbol)

	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}
	if days < 1 {
		days = 1
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", fmt.Sprintf("%d", days))
	params.Set("interval", "daily")

	fullURL := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, url.PathEscape(coinID), params.Encode())

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

	ts, err := parseMarketChart(body)
	if err != nil {
		return contracts.TimeSeries{}, err
	}

	ts = ts.Window(from, to)
	c.logger.WithFields(map[string]interface{}{
		"symbol":  symbol,
		"coin_id": coinID,
		"count":   ts.Len(),
	}).Debug("Fetched CoinGecko prices")
	return ts, nil
}

// CurrentPrice fetches the spot USD price for a symbol.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	coinID := CoinID(symbol)

	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", "usd")

	fullURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("parse response failed: %w", err)
	}

	price, ok := payload[coinID]["usd"]
	if !ok {
		return 0, fmt.Errorf("no USD price for %s", coinID)
	}
	return price, nil
}

// MarketSnapshot is the spot market state of one coin.
type MarketSnapshot struct {
	Symbol       string    `json:"symbol"`
	CoinID       string    `json:"coin_id"`
	Price        float64   `json:"price"`
	MarketCap    float64   `json:"market_cap"`
	Volume24h    float64   `json:"volume_24h"`
	ChangePct24h float64   `json:"change_pct_24h"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// FetchMarketSnapshot fetches price, market cap, 24h volume, and 24h
// change for a symbol in one request.
func (c *Client) FetchMarketSnapshot(ctx context.Context, symbol string) (MarketSnapshot, error) {
	coinID := CoinID(symbol)

	params := url.Values{}
	params.Set("ids", coinID)
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	params.Set("include_24hr_vol", "true")
	params.Set("include_24hr_change", "true")

	fullURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return MarketSnapshot{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return MarketSnapshot{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return MarketSnapshot{}, fmt.Errorf("parse response failed: %w", err)
	}

	fields, ok := payload[coinID]
	if _, hasPrice := fields["usd"]; !ok || !hasPrice {
		return MarketSnapshot{}, fmt.Errorf("no USD market data for %s", coinID)
	}

	return MarketSnapshot{
		Symbol:       symbol,
		CoinID:       coinID,
		Price:        fields["usd"],
		MarketCap:    fields["usd_market_cap"],
		Volume24h:    fields["usd_24h_vol"],
		ChangePct24h: fields["usd_24h_change"],
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// marketChartResponse is the market_chart payload. Prices come as
// [millisecond timestamp, price] pairs.
type marketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

// parseMarketChart converts millisecond-timestamp pairs to a daily
// series. Intraday duplicates collapse to the first value per day.
func parseMarketChart(body []byte) (contracts.TimeSeries, error) {
	var payload marketChartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("parse response failed: %w", err)
	}

	var points []contracts.Point
	for _, pair := range payload.Prices {
		if len(pair) < 2 {
			continue
		}
		points = append(points, contracts.Point{
			Date:  time.UnixMilli(int64(pair[0])).UTC(),
			Value: pair[1],
		})
	}

	return contracts.NewTimeSeries(points), nil
}
