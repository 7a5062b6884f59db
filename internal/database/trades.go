package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/mlangford/wheeljournal/internal/models"
)

const tradeColumns = `id, user_id, symbol, date, action, quantity, price, fees, amount,
	       multiplier, asset_type, mark_price, snapshot_pnl, pair_id,
	       strategy_id, tag_id, import_hash, hidden, created_at`

// InsertTrade inserts one imported ledger leg. A uniqueness violation on
// (user_id, import_hash) is reported as ErrDuplicateTrade so import batches
// can count duplicates and continue.
func (db *DB) InsertTrade(t *models.Trade) error {
	query := `
		INSERT INTO trades (
			user_id, symbol, date, action, quantity, price, fees, amount,
			multiplier, asset_type, mark_price, snapshot_pnl, pair_id,
			strategy_id, tag_id, import_hash, hidden, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		RETURNING id
	`
	now := time.Now()

	err := db.conn.QueryRow(query,
		t.UserID, t.Symbol, t.Date, t.Action, t.Quantity, t.Price, t.Fees, t.Amount,
		t.Multiplier, t.AssetType, decimalPtrValue(t.MarkPrice), decimalPtrValue(t.SnapshotPnl),
		t.PairID, t.StrategyID, t.TagID, t.ImportHash, t.Hidden, now,
	).Scan(&t.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateTrade
		}
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	t.CreatedAt = now
	return nil
}

// GetTradeByID retrieves one trade scoped to its owner
func (db *DB) GetTradeByID(userID string, id int) (*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1 AND id = $2
	`
	return db.scanSingleTrade(db.conn.QueryRow(query, userID, id))
}

// GetTradesByUser retrieves the full ledger for a user, newest first
func (db *DB) GetTradesByUser(userID string) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
	`
	return db.scanTrades(db.conn.Query(query, userID))
}

// GetTradesByStrategy retrieves all trades assigned to a strategy
func (db *DB) GetTradesByStrategy(userID string, strategyID int) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1 AND strategy_id = $2
		ORDER BY date DESC, id DESC
	`
	return db.scanTrades(db.conn.Query(query, userID, strategyID))
}

// GetReconcilableTrades selects the reconciliation candidate set: legs whose
// action indicates an opening trade. This is intentionally broader than
// Trade.IsOpen — a freshly imported opening leg has no mark yet but must
// still be able to receive one from a snapshot. Hidden legs never reconcile.
func (db *DB) GetReconcilableTrades(userID string) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1 AND action LIKE '%OPEN%' AND hidden = false
		ORDER BY date ASC, id ASC
	`
	return db.scanTrades(db.conn.Query(query, userID))
}

// UpdateMarkPrice sets or clears the mark price (and the echoed snapshot P&L
// diagnostic) for one leg. A nil mark closes the leg.
func (db *DB) UpdateMarkPrice(userID string, id int, mark, snapshotPnl *decimal.Decimal) error {
	query := `UPDATE trades SET mark_price = $3, snapshot_pnl = $4 WHERE user_id = $1 AND id = $2`
	result, err := db.conn.Exec(query, userID, id, decimalPtrValue(mark), decimalPtrValue(snapshotPnl))
	if err != nil {
		return fmt.Errorf("failed to update mark price: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("trade %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateTradeStrategy assigns (or clears) the strategy association
func (db *DB) UpdateTradeStrategy(userID string, id int, strategyID *int) error {
	return db.updateTradeField(userID, id, "strategy_id", strategyID)
}

// UpdateTradeTag assigns (or clears) the tag association
func (db *DB) UpdateTradeTag(userID string, id int, tagID *int) error {
	return db.updateTradeField(userID, id, "tag_id", tagID)
}

// UpdateTradePair assigns (or clears) the multi-leg grouping key
func (db *DB) UpdateTradePair(userID string, id int, pairID *string) error {
	return db.updateTradeField(userID, id, "pair_id", pairID)
}

// UpdateTradeHidden toggles exclusion from all aggregation
func (db *DB) UpdateTradeHidden(userID string, id int, hidden bool) error {
	return db.updateTradeField(userID, id, "hidden", hidden)
}

func (db *DB) updateTradeField(userID string, id int, column string, value interface{}) error {
	query := fmt.Sprintf(`UPDATE trades SET %s = $3 WHERE user_id = $1 AND id = $2`, column)
	result, err := db.conn.Exec(query, userID, id, value)
	if err != nil {
		return fmt.Errorf("failed to update trade %s: %w", column, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("trade %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTrade removes one leg from the ledger
func (db *DB) DeleteTrade(userID string, id int) error {
	query := `DELETE FROM trades WHERE user_id = $1 AND id = $2`
	result, err := db.conn.Exec(query, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("trade %d: %w", id, ErrNotFound)
	}
	return nil
}

func (db *DB) scanSingleTrade(row *sql.Row) (*models.Trade, error) {
	var t models.Trade
	var markPrice, snapshotPnl, pairID sql.NullString
	var strategyID, tagID sql.NullInt64

	err := row.Scan(
		&t.ID, &t.UserID, &t.Symbol, &t.Date, &t.Action, &t.Quantity, &t.Price, &t.Fees, &t.Amount,
		&t.Multiplier, &t.AssetType, &markPrice, &snapshotPnl, &pairID,
		&strategyID, &tagID, &t.ImportHash, &t.Hidden, &t.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trade: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	applyNullableTradeFields(&t, markPrice, snapshotPnl, pairID, strategyID, tagID)
	return &t, nil
}

func (db *DB) scanTrades(rows *sql.Rows, err error) ([]*models.Trade, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		var t models.Trade
		var markPrice, snapshotPnl, pairID sql.NullString
		var strategyID, tagID sql.NullInt64

		err := rows.Scan(
			&t.ID, &t.UserID, &t.Symbol, &t.Date, &t.Action, &t.Quantity, &t.Price, &t.Fees, &t.Amount,
			&t.Multiplier, &t.AssetType, &markPrice, &snapshotPnl, &pairID,
			&strategyID, &tagID, &t.ImportHash, &t.Hidden, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		applyNullableTradeFields(&t, markPrice, snapshotPnl, pairID, strategyID, tagID)
		trades = append(trades, &t)
	}

	return trades, nil
}

func applyNullableTradeFields(t *models.Trade, markPrice, snapshotPnl, pairID sql.NullString, strategyID, tagID sql.NullInt64) {
	if markPrice.Valid {
		if d, err := decimal.NewFromString(markPrice.String); err == nil {
			t.MarkPrice = &d
		}
	}
	if snapshotPnl.Valid {
		if d, err := decimal.NewFromString(snapshotPnl.String); err == nil {
			t.SnapshotPnl = &d
		}
	}
	if pairID.Valid {
		t.PairID = &pairID.String
	}
	if strategyID.Valid {
		id := int(strategyID.Int64)
		t.StrategyID = &id
	}
	if tagID.Valid {
		id := int(tagID.Int64)
		t.TagID = &id
	}
}

// decimalPtrValue converts an optional decimal into a driver-friendly value,
// preserving SQL NULL for nil.
func decimalPtrValue(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
