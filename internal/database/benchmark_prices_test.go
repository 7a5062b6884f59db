package database

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlangford/wheeljournal/internal/models"
)

func TestBenchmarkPricesRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	day := func(d int) time.Time {
		return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("UpsertBenchmarkPrice replaces on conflict", func(t *testing.T) {
		testDB.TruncateAll(t)

		price := &models.BenchmarkPrice{
			UserID:    "user-1",
			Ticker:    "SPY",
			PriceDate: day(2),
			Close:     decimal.NewFromFloat(590.10),
		}
		require.NoError(t, testDB.UpsertBenchmarkPrice(price))
		assert.NotZero(t, price.ID)

		revised := &models.BenchmarkPrice{
			UserID:    "user-1",
			Ticker:    "SPY",
			PriceDate: day(2),
			Close:     decimal.NewFromFloat(591.00),
		}
		require.NoError(t, testDB.UpsertBenchmarkPrice(revised))

		prices, err := testDB.GetBenchmarkPrices("user-1", "SPY", day(1), day(3))
		require.NoError(t, err)
		require.Len(t, prices, 1)
		assert.True(t, decimal.NewFromFloat(591.00).Equal(prices[0].Close))
	})

	t.Run("UpsertBenchmarkPriceBatch writes a series", func(t *testing.T) {
		testDB.TruncateAll(t)

		var series []*models.BenchmarkPrice
		for d := 2; d <= 6; d++ {
			series = append(series, &models.BenchmarkPrice{
				UserID:    "user-1",
				Ticker:    "SPY",
				PriceDate: day(d),
				Close:     decimal.NewFromInt(int64(590 + d)),
			})
		}
		require.NoError(t, testDB.UpsertBenchmarkPriceBatch(series))

		prices, err := testDB.GetBenchmarkPrices("user-1", "SPY", day(1), day(31))
		require.NoError(t, err)
		require.Len(t, prices, 5)
		assert.Equal(t, day(2), prices[0].PriceDate.UTC())
		assert.Equal(t, day(6), prices[4].PriceDate.UTC())
	})

	t.Run("GetBenchmarkPrices bounds the range", func(t *testing.T) {
		testDB.TruncateAll(t)

		for d := 2; d <= 6; d++ {
			require.NoError(t, testDB.UpsertBenchmarkPrice(&models.BenchmarkPrice{
				UserID:    "user-1",
				Ticker:    "SPY",
				PriceDate: day(d),
				Close:     decimal.NewFromInt(590),
			}))
		}

		prices, err := testDB.GetBenchmarkPrices("user-1", "SPY", day(3), day(5))
		require.NoError(t, err)
		assert.Len(t, prices, 3)
	})

	t.Run("GetLatestBenchmarkDate resumes incrementally", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetLatestBenchmarkDate("user-1", "SPY")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))

		for d := 2; d <= 4; d++ {
			require.NoError(t, testDB.UpsertBenchmarkPrice(&models.BenchmarkPrice{
				UserID:    "user-1",
				Ticker:    "SPY",
				PriceDate: day(d),
				Close:     decimal.NewFromInt(590),
			}))
		}

		latest, err := testDB.GetLatestBenchmarkDate("user-1", "SPY")
		require.NoError(t, err)
		assert.Equal(t, day(4), latest.UTC())
	})
}
