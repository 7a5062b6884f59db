package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BenchmarkPrice is one cached daily adjusted close for a ticker, used for
// chart overlays. Rows are upserted by the price sync job and only ever read
// by the journal.
type BenchmarkPrice struct {
	ID        int             `json:"id"`
	UserID    string          `json:"user_id"`
	Ticker    string          `json:"ticker"`
	PriceDate time.Time       `json:"price_date"`
	Close     decimal.Decimal `json:"close"`
	CreatedAt time.Time       `json:"created_at"`
}
