package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlangford/wheeljournal/internal/models"
)

func newImportedTrade(userID, symbol, action, hash string) *models.Trade {
	return &models.Trade{
		UserID:     userID,
		Symbol:     symbol,
		Date:       time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC),
		Action:     action,
		Quantity:   decimal.NewFromInt(1),
		Price:      decimal.NewFromFloat(6.70),
		Fees:       decimal.NewFromFloat(1.15),
		Amount:     decimal.NewFromFloat(668.85),
		Multiplier: decimal.NewFromInt(100),
		AssetType:  models.AssetTypeOption,
		ImportHash: hash,
	}
}

func TestTradesRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("InsertTrade creates new trade", func(t *testing.T) {
		testDB.TruncateAll(t)

		trade := newImportedTrade("user-1", "SPY   261218P00670000", models.ActionSellToOpen, "hash-1")
		err := testDB.InsertTrade(trade)
		require.NoError(t, err)
		assert.NotZero(t, trade.ID)
		assert.False(t, trade.CreatedAt.IsZero())
	})

	t.Run("InsertTrade reports duplicate import hash", func(t *testing.T) {
		testDB.TruncateAll(t)

		first := newImportedTrade("user-1", "SPY   261218P00670000", models.ActionSellToOpen, "hash-1")
		require.NoError(t, testDB.InsertTrade(first))

		dup := newImportedTrade("user-1", "SPY   261218P00670000", models.ActionSellToOpen, "hash-1")
		err := testDB.InsertTrade(dup)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateTrade))
	})

	t.Run("InsertTrade allows same hash for different users", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.InsertTrade(newImportedTrade("user-1", "SPY", models.ActionSellToOpen, "hash-1")))
		require.NoError(t, testDB.InsertTrade(newImportedTrade("user-2", "SPY", models.ActionSellToOpen, "hash-1")))
	})

	t.Run("GetTradeByID is scoped to the owner", func(t *testing.T) {
		testDB.TruncateAll(t)

		trade := newImportedTrade("user-1", "SPY   261218P00670000", models.ActionSellToOpen, "hash-1")
		require.NoError(t, testDB.InsertTrade(trade))

		retrieved, err := testDB.GetTradeByID("user-1", trade.ID)
		require.NoError(t, err)
		assert.Equal(t, "SPY   261218P00670000", retrieved.Symbol)
		assert.True(t, decimal.NewFromFloat(668.85).Equal(retrieved.Amount))
		assert.Nil(t, retrieved.MarkPrice)
		assert.Nil(t, retrieved.StrategyID)

		_, err = testDB.GetTradeByID("user-2", trade.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("GetTradesByUser returns newest first", func(t *testing.T) {
		testDB.TruncateAll(t)

		older := newImportedTrade("user-1", "SPY", models.ActionSellToOpen, "hash-1")
		older.Date = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		require.NoError(t, testDB.InsertTrade(older))

		newer := newImportedTrade("user-1", "QQQ", models.ActionSellToOpen, "hash-2")
		newer.Date = time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
		require.NoError(t, testDB.InsertTrade(newer))

		trades, err := testDB.GetTradesByUser("user-1")
		require.NoError(t, err)
		require.Len(t, trades, 2)
		assert.Equal(t, "QQQ", trades[0].Symbol)
		assert.Equal(t, "SPY", trades[1].Symbol)
	})

	t.Run("GetReconcilableTrades selects visible opening legs", func(t *testing.T) {
		testDB.TruncateAll(t)

		opening := newImportedTrade("user-1", "SPY", models.ActionSellToOpen, "hash-1")
		require.NoError(t, testDB.InsertTrade(opening))

		closing := newImportedTrade("user-1", "SPY", models.ActionBuyToClose, "hash-2")
		require.NoError(t, testDB.InsertTrade(closing))

		hidden := newImportedTrade("user-1", "QQQ", models.ActionSellToOpen, "hash-3")
		require.NoError(t, testDB.InsertTrade(hidden))
		require.NoError(t, testDB.UpdateTradeHidden("user-1", hidden.ID, true))

		candidates, err := testDB.GetReconcilableTrades("user-1")
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, opening.ID, candidates[0].ID)
	})

	t.Run("UpdateMarkPrice sets and clears the mark", func(t *testing.T) {
		testDB.TruncateAll(t)

		trade := newImportedTrade("user-1", "SPY", models.ActionSellToOpen, "hash-1")
		require.NoError(t, testDB.InsertTrade(trade))

		mark := decimal.NewFromFloat(5.25)
		pnl := decimal.NewFromFloat(145)
		require.NoError(t, testDB.UpdateMarkPrice("user-1", trade.ID, &mark, &pnl))

		retrieved, err := testDB.GetTradeByID("user-1", trade.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.MarkPrice)
		assert.True(t, mark.Equal(*retrieved.MarkPrice))
		require.NotNil(t, retrieved.SnapshotPnl)
		assert.True(t, pnl.Equal(*retrieved.SnapshotPnl))
		assert.True(t, retrieved.IsOpen())

		require.NoError(t, testDB.UpdateMarkPrice("user-1", trade.ID, nil, nil))
		retrieved, err = testDB.GetTradeByID("user-1", trade.ID)
		require.NoError(t, err)
		assert.Nil(t, retrieved.MarkPrice)
		assert.Nil(t, retrieved.SnapshotPnl)
		assert.False(t, retrieved.IsOpen())
	})

	t.Run("UpdateMarkPrice returns not found for other users", func(t *testing.T) {
		testDB.TruncateAll(t)

		trade := newImportedTrade("user-1", "SPY", models.ActionSellToOpen, "hash-1")
		require.NoError(t, testDB.InsertTrade(trade))

		mark := decimal.NewFromFloat(5)
		err := testDB.UpdateMarkPrice("user-2", trade.ID, &mark, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("UpdateTradeStrategy assigns and clears", func(t *testing.T) {
		testDB.TruncateAll(t)

		strategy := &models.Strategy{
			UserID:            "user-1",
			Name:              "SPY CSP Campaign",
			CapitalAllocation: decimal.NewFromInt(67000),
			Status:            models.StrategyStatusActive,
		}
		require.NoError(t, testDB.CreateStrategy(strategy))

		trade := newImportedTrade("user-1", "SPY", models.ActionSellToOpen, "hash-1")
		require.NoError(t, testDB.InsertTrade(trade))

		require.NoError(t, testDB.UpdateTradeStrategy("user-1", trade.ID, &strategy.ID))
		retrieved, err := testDB.GetTradeByID("user-1", trade.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.StrategyID)
		assert.Equal(t, strategy.ID, *retrieved.StrategyID)

		byStrategy, err := testDB.GetTradesByStrategy("user-1", strategy.ID)
		require.NoError(t, err)
		require.Len(t, byStrategy, 1)

		require.NoError(t, testDB.UpdateTradeStrategy("user-1", trade.ID, nil))
		retrieved, err = testDB.GetTradeByID("user-1", trade.ID)
		require.NoError(t, err)
		assert.Nil(t, retrieved.StrategyID)
	})

	t.Run("DeleteStrategy detaches trades instead of deleting them", func(t *testing.T) {
		testDB.TruncateAll(t)

		strategy := &models.Strategy{
			UserID:            "user-1",
			Name:              "SPY CSP Campaign",
			CapitalAllocation: decimal.NewFromInt(67000),
			Status:            models.StrategyStatusActive,
		}
		require.NoError(t, testDB.CreateStrategy(strategy))

		trade := newImportedTrade("user-1", "SPY", models.ActionSellToOpen, "hash-1")
		require.NoError(t, testDB.InsertTrade(trade))
		require.NoError(t, testDB.UpdateTradeStrategy("user-1", trade.ID, &strategy.ID))

		require.NoError(t, testDB.DeleteStrategy("user-1", strategy.ID))

		retrieved, err := testDB.GetTradeByID("user-1", trade.ID)
		require.NoError(t, err)
		assert.Nil(t, retrieved.StrategyID)
	})

	t.Run("UpdateTradePair round-trips the grouping key", func(t *testing.T) {
		testDB.TruncateAll(t)

		trade := newImportedTrade("user-1", "SPY", models.ActionSellToOpen, "hash-1")
		require.NoError(t, testDB.InsertTrade(trade))

		pair := "spread-1"
		require.NoError(t, testDB.UpdateTradePair("user-1", trade.ID, &pair))
		retrieved, err := testDB.GetTradeByID("user-1", trade.ID)
		require.NoError(t, err)
		require.NotNil(t, retrieved.PairID)
		assert.Equal(t, "spread-1", *retrieved.PairID)
		assert.Equal(t, "spread-1", retrieved.GroupKey())
	})

	t.Run("DeleteTrade removes the leg", func(t *testing.T) {
		testDB.TruncateAll(t)

		trade := newImportedTrade("user-1", "SPY", models.ActionSellToOpen, "hash-1")
		require.NoError(t, testDB.InsertTrade(trade))

		require.NoError(t, testDB.DeleteTrade("user-1", trade.ID))

		_, err := testDB.GetTradeByID("user-1", trade.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))

		err = testDB.DeleteTrade("user-1", trade.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("ledger survives a full import-sized batch", func(t *testing.T) {
		testDB.TruncateAll(t)

		for i := 0; i < 25; i++ {
			trade := newImportedTrade("user-1", "SPY", models.ActionSellToOpen, fmt.Sprintf("hash-%d", i))
			require.NoError(t, testDB.InsertTrade(trade))
		}

		trades, err := testDB.GetTradesByUser("user-1")
		require.NoError(t, err)
		assert.Len(t, trades, 25)
	})
}
