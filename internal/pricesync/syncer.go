package pricesync

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mlangford/wheeljournal/internal/models"
)

// PriceStore is the slice of the repository the syncer writes through.
type PriceStore interface {
	UpsertBenchmarkPriceBatch(prices []*models.BenchmarkPrice) error
}

// QuoteFetcher abstracts the provider client for tests.
type QuoteFetcher interface {
	DailyCloses(ctx context.Context, ticker string, startDate time.Time) ([]Quote, error)
}

// Request names the tickers and history start for one sync run.
type Request struct {
	UserID    string    `json:"user_id"`
	Tickers   []string  `json:"tickers"`
	StartDate time.Time `json:"start_date"`
}

// Syncer fetches and caches daily closes. A redis marker per (user, ticker)
// suppresses refetching a ticker already synced today; a ticker-level fetch
// failure skips that ticker, never the whole run.
type Syncer struct {
	store  PriceStore
	quotes QuoteFetcher
	cache  *redis.Client
}

// NewSyncer creates a Syncer. cache may be nil, in which case every run
// fetches.
func NewSyncer(store PriceStore, quotes QuoteFetcher, cache *redis.Client) *Syncer {
	return &Syncer{store: store, quotes: quotes, cache: cache}
}

// Sync upserts daily closes for every requested ticker and returns the number
// of rows written.
func (s *Syncer) Sync(ctx context.Context, req Request) (int, error) {
	written := 0
	for _, ticker := range req.Tickers {
		if s.syncedToday(ctx, req.UserID, ticker) {
			logrus.WithField("ticker", ticker).Debug("Benchmark prices already synced today")
			continue
		}

		quotes, err := s.quotes.DailyCloses(ctx, ticker, req.StartDate)
		if err != nil {
			logrus.WithError(err).WithField("ticker", ticker).Error("Failed to fetch daily closes")
			continue
		}
		if len(quotes) == 0 {
			continue
		}

		prices := make([]*models.BenchmarkPrice, 0, len(quotes))
		for _, q := range quotes {
			prices = append(prices, &models.BenchmarkPrice{
				UserID:    req.UserID,
				Ticker:    ticker,
				PriceDate: q.Date,
				Close:     q.Close,
			})
		}
		if err := s.store.UpsertBenchmarkPriceBatch(prices); err != nil {
			logrus.WithError(err).WithField("ticker", ticker).Error("Failed to upsert benchmark prices")
			continue
		}
		written += len(prices)
		s.markSynced(ctx, req.UserID, ticker)
	}
	return written, nil
}

func (s *Syncer) cacheKey(userID, ticker string) string {
	return fmt.Sprintf("pricesync:%s:%s:%s", userID, ticker, time.Now().Format("2006-01-02"))
}

func (s *Syncer) syncedToday(ctx context.Context, userID, ticker string) bool {
	if s.cache == nil {
		return false
	}
	n, err := s.cache.Exists(ctx, s.cacheKey(userID, ticker)).Result()
	return err == nil && n > 0
}

func (s *Syncer) markSynced(ctx context.Context, userID, ticker string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(userID, ticker), "1", 24*time.Hour).Err(); err != nil {
		logrus.WithError(err).Debug("Failed to set price sync cache marker")
	}
}
