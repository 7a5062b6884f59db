package database

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlangford/wheeljournal/internal/models"
)

func TestStrategiesRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreateStrategy defaults status to active", func(t *testing.T) {
		testDB.TruncateAll(t)

		strategy := &models.Strategy{
			UserID:            "user-1",
			Name:              "SPY CSP Campaign",
			CapitalAllocation: decimal.NewFromInt(67000),
		}
		require.NoError(t, testDB.CreateStrategy(strategy))
		assert.NotZero(t, strategy.ID)
		assert.Equal(t, models.StrategyStatusActive, strategy.Status)
		assert.False(t, strategy.CreatedAt.IsZero())
	})

	t.Run("GetStrategyByName finds the campaign record", func(t *testing.T) {
		testDB.TruncateAll(t)

		strategy := &models.Strategy{
			UserID:            "user-1",
			Name:              "SPY CSP Campaign",
			CapitalAllocation: decimal.NewFromInt(67000),
		}
		require.NoError(t, testDB.CreateStrategy(strategy))

		retrieved, err := testDB.GetStrategyByName("user-1", "SPY CSP Campaign")
		require.NoError(t, err)
		assert.Equal(t, strategy.ID, retrieved.ID)
		assert.True(t, decimal.NewFromInt(67000).Equal(retrieved.CapitalAllocation))

		_, err = testDB.GetStrategyByName("user-1", "No Such Campaign")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("UpdateStrategy changes capital and status", func(t *testing.T) {
		testDB.TruncateAll(t)

		strategy := &models.Strategy{
			UserID:            "user-1",
			Name:              "SPY CSP Campaign",
			CapitalAllocation: decimal.NewFromInt(67000),
		}
		require.NoError(t, testDB.CreateStrategy(strategy))

		strategy.CapitalAllocation = decimal.NewFromInt(80000)
		strategy.Status = models.StrategyStatusArchived
		require.NoError(t, testDB.UpdateStrategy(strategy))

		retrieved, err := testDB.GetStrategyByID("user-1", strategy.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(80000).Equal(retrieved.CapitalAllocation))
		assert.Equal(t, models.StrategyStatusArchived, retrieved.Status)
	})

	t.Run("UpdateStrategy returns not found for missing row", func(t *testing.T) {
		testDB.TruncateAll(t)

		err := testDB.UpdateStrategy(&models.Strategy{ID: 999, UserID: "user-1", Name: "x"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("GetStrategiesByUser is scoped and sorted", func(t *testing.T) {
		testDB.TruncateAll(t)

		for _, name := range []string{"Wheel", "Earnings", "Hedges"} {
			require.NoError(t, testDB.CreateStrategy(&models.Strategy{UserID: "user-1", Name: name}))
		}
		require.NoError(t, testDB.CreateStrategy(&models.Strategy{UserID: "user-2", Name: "Other"}))

		strategies, err := testDB.GetStrategiesByUser("user-1")
		require.NoError(t, err)
		require.Len(t, strategies, 3)
		assert.Equal(t, "Earnings", strategies[0].Name)
		assert.Equal(t, "Wheel", strategies[2].Name)
	})

	t.Run("tags round-trip", func(t *testing.T) {
		testDB.TruncateAll(t)

		tag := &models.Tag{UserID: "user-1", Name: "earnings-play"}
		require.NoError(t, testDB.CreateTag(tag))
		assert.NotZero(t, tag.ID)

		tags, err := testDB.GetTagsByUser("user-1")
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, "earnings-play", tags[0].Name)

		require.NoError(t, testDB.DeleteTag("user-1", tag.ID))
		err = testDB.DeleteTag("user-1", tag.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
