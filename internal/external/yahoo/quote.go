package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Quote is a scraped snapshot of an instrument's current price.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"change_pct"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FetchQuote scrapes the current price from the instrument's quote
// page. The chart API lags for some instruments; the quote page is the
// freshest unauthenticated source.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	fullURL := fmt.Sprintf("%s/quote/%s", c.quoteURL, url.PathEscape(symbol))

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, browserHeaders)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	quote, err := parseQuoteDocument(doc, symbol)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"price":  quote.Price,
	}).Debug("Scraped quote")
	return quote, nil
}

// parseQuoteDocument reads fin-streamer elements from the quote page.
// Yahoo renders live fields as <fin-streamer data-field="..." data-value="...">.
func parseQuoteDocument(doc *goquery.Document, symbol string) (*Quote, error) {
	quote := &Quote{
		Symbol:    symbol,
		FetchedAt: time.Now().UTC(),
	}

	found := false
	doc.Find(fmt.Sprintf(`fin-streamer[data-symbol=%q]`, symbol)).Each(func(_ int, s *goquery.Selection) {
		field, _ := s.Attr("data-field")
		raw, ok := s.Attr("data-value")
		if !ok {
			raw = strings.TrimSpace(s.Text())
		}
		raw = strings.ReplaceAll(raw, ",", "")

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return
		}

		switch field {
		case "regularMarketPrice":
			quote.Price = v
			found = true
		case "regularMarketChangePercent":
			quote.ChangePct = v
		}
	})

	if !found {
		return nil, fmt.Errorf("no price found on quote page for %s", symbol)
	}
	return quote, nil
}
