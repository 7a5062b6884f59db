package database

import (
	"fmt"
	"time"

	"github.com/mlangford/wheeljournal/internal/models"
)

// UpsertBenchmarkPrice inserts or replaces one daily close for
// (user, ticker, date).
func (db *DB) UpsertBenchmarkPrice(p *models.BenchmarkPrice) error {
	query := `
		INSERT INTO benchmark_prices (user_id, ticker, price_date, close_price, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, ticker, price_date)
		DO UPDATE SET close_price = EXCLUDED.close_price
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query, p.UserID, p.Ticker, p.PriceDate, p.Close, now).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert benchmark price: %w", err)
	}
	p.CreatedAt = now
	return nil
}

// UpsertBenchmarkPriceBatch upserts a series of daily closes in one
// transaction.
func (db *DB) UpsertBenchmarkPriceBatch(prices []*models.BenchmarkPrice) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO benchmark_prices (user_id, ticker, price_date, close_price, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, ticker, price_date)
		DO UPDATE SET close_price = EXCLUDED.close_price
	`
	now := time.Now()
	for _, p := range prices {
		if _, err := tx.Exec(query, p.UserID, p.Ticker, p.PriceDate, p.Close, now); err != nil {
			return fmt.Errorf("failed to upsert benchmark price for %s: %w", p.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit benchmark prices: %w", err)
	}
	return nil
}

// GetBenchmarkPrices retrieves the cached close series for a ticker within a
// date range, oldest first.
func (db *DB) GetBenchmarkPrices(userID, ticker string, startDate, endDate time.Time) ([]*models.BenchmarkPrice, error) {
	query := `
		SELECT id, user_id, ticker, price_date, close_price, created_at
		FROM benchmark_prices
		WHERE user_id = $1 AND ticker = $2 AND price_date >= $3 AND price_date <= $4
		ORDER BY price_date ASC
	`
	rows, err := db.conn.Query(query, userID, ticker, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmark prices: %w", err)
	}
	defer rows.Close()

	var prices []*models.BenchmarkPrice
	for rows.Next() {
		var p models.BenchmarkPrice
		if err := rows.Scan(&p.ID, &p.UserID, &p.Ticker, &p.PriceDate, &p.Close, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark price: %w", err)
		}
		prices = append(prices, &p)
	}
	return prices, nil
}

// GetLatestBenchmarkDate returns the most recent cached date for a ticker so
// the sync job can resume incrementally. Returns ErrNotFound when the cache
// is empty for the ticker.
func (db *DB) GetLatestBenchmarkDate(userID, ticker string) (time.Time, error) {
	query := `
		SELECT price_date FROM benchmark_prices
		WHERE user_id = $1 AND ticker = $2
		ORDER BY price_date DESC
		LIMIT 1
	`
	var date time.Time
	err := db.conn.QueryRow(query, userID, ticker).Scan(&date)
	if err != nil {
		return time.Time{}, fmt.Errorf("benchmark prices for %s: %w", ticker, ErrNotFound)
	}
	return date, nil
}
