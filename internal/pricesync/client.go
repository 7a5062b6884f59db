// Package pricesync fetches daily closing prices from a quote provider and
// upserts them into the benchmark price cache. It is a thin I/O wrapper: the
// journal only ever reads the cached series for chart overlays.
package pricesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Quote is one daily adjusted close.
type Quote struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"adjClose"`
}

// Client talks to the daily-price endpoint of a quote provider. Requests are
// rate limited client-side to stay inside free-tier quotas.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a quote provider client
func NewClient(baseURL, apiKey string, ratePerSec float64) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// DailyCloses fetches the adjusted close series for a ticker from startDate
// through today.
func (c *Client) DailyCloses(ctx context.Context, ticker string, startDate time.Time) ([]Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&token=%s",
		c.baseURL, url.PathEscape(ticker), startDate.Format("2006-01-02"), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request for %s failed: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote provider returned %d for %s", resp.StatusCode, ticker)
	}

	var rows []struct {
		Date     string          `json:"date"`
		AdjClose decimal.Decimal `json:"adjClose"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode quote response for %s: %w", ticker, err)
	}

	quotes := make([]Quote, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(time.RFC3339, row.Date)
		if err != nil {
			// Some providers emit bare dates.
			date, err = time.Parse("2006-01-02", row.Date)
			if err != nil {
				continue
			}
		}
		quotes = append(quotes, Quote{Date: date, Close: row.AdjClose})
	}
	return quotes, nil
}
