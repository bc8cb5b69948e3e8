package yahoo

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

func testClient(t *testing.T, baseURL, quoteURL string) *Client {
	t.Helper()
	cfg := &config.Config{Env: "development", LogLevel: "error"}
	cfg.Yahoo.BaseURL = baseURL
	cfg.Yahoo.QuoteURL = quoteURL
	log := logger.New(cfg)
	return NewClient(cfg, httputil.New(cfg, log).DisableRetry(), log)
}

var (
	from = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
)

const chartBody = `{"chart":{"result":[{
	"timestamp":[1704067200,1704153600,1704240000],
	"indicators":{
		"quote":[{"close":[42000.5,null,44100.25]}],
		"adjclose":[{"adjclose":[42000.5,null,44100.25]}]
	}
}],"error":null}}`

func TestFetchPricesChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v8/finance/chart/BTC-USD") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("expected browser User-Agent, got %q", ua)
		}
		w.Write([]byte(chartBody))
	}))
	defer server.Close()

	c := testClient(t, server.URL, server.URL)

	ts, err := c.FetchPrices(context.Background(), "BTC-USD", from, to)
	if err != nil {
		t.Fatalf("FetchPrices failed: %v", err)
	}

	if ts.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (null close dropped)", ts.Len())
	}
	if ts.Values[0] != 42000.5 {
		t.Errorf("first value = %v, want 42000.5", ts.Values[0])
	}
}

func TestFetchPricesFallsBackToCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/v8/finance/chart/") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("Date,Open,High,Low,Close,Adj Close,Volume\n" +
			"2024-01-01,100,110,95,105,104.5,1000\n" +
			"2024-01-02,105,106,100,null,null,0\n" +
			"2024-01-03,105,112,104,111,110.2,1200\n"))
	}))
	defer server.Close()

	c := testClient(t, server.URL, server.URL)

	ts, err := c.FetchPrices(context.Background(), "GLD", from, to)
	if err != nil {
		t.Fatalf("FetchPrices failed: %v", err)
	}

	if ts.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ts.Len())
	}
	// Adj Close preferred over Close.
	if ts.Values[0] != 104.5 {
		t.Errorf("first value = %v, want 104.5", ts.Values[0])
	}
}

func TestFetchPricesAllStrategiesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server.URL, server.URL)

	_, err := c.FetchPrices(context.Background(), "NOPE", from, to)
	if !errors.Is(err, contracts.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestLookbackRange(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{5, "7d"},
		{25, "1mo"},
		{300, "1y"},
		{700, "2y"},
		{4000, "10y"},
	}

	for _, tt := range tests {
		got := lookbackRange(time.Duration(tt.days) * 24 * time.Hour)
		if got != tt.want {
			t.Errorf("lookbackRange(%d days) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestFetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/quote/BTC-USD") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`<html><body>
			<fin-streamer data-symbol="BTC-USD" data-field="regularMarketPrice" data-value="67123.45">67,123.45</fin-streamer>
			<fin-streamer data-symbol="BTC-USD" data-field="regularMarketChangePercent" data-value="2.31">2.31%</fin-streamer>
		</body></html>`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, server.URL)

	q, err := c.FetchQuote(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}

	if q.Price != 67123.45 {
		t.Errorf("Price = %v, want 67123.45", q.Price)
	}
	if q.ChangePct != 2.31 {
		t.Errorf("ChangePct = %v, want 2.31", q.ChangePct)
	}
}

func TestFetchQuoteNoPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>page moved</p></body></html>`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, server.URL)

	if _, err := c.FetchQuote(context.Background(), "BTC-USD"); err == nil {
		t.Error("expected error when page has no price")
	}
}
