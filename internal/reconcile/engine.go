// Package reconcile matches the open-trade ledger view against an uploaded
// position snapshot and applies snapshot semantics: an open leg absent from
// the snapshot has since been closed.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mlangford/wheeljournal/internal/models"
	"github.com/mlangford/wheeljournal/internal/symbols"
)

// MarkPriceUpdater is the slice of the ledger repository reconciliation
// writes through.
type MarkPriceUpdater interface {
	UpdateMarkPrice(userID string, id int, mark, snapshotPnl *decimal.Decimal) error
}

// MarkUpdate is one planned ledger mutation. A nil Mark clears the leg to
// closed.
type MarkUpdate struct {
	TradeID     int
	Mark        *decimal.Decimal
	SnapshotPnl *decimal.Decimal
}

// Summary reports one reconciliation pass.
type Summary struct {
	Matched int `json:"matched"`
	Cleared int `json:"cleared"`
	Failed  int `json:"failed"`
}

// Plan computes the updates a snapshot implies for the reconciliation
// candidate set, without touching the ledger:
//
//   - candidate matches a snapshot row by canonical key: set its mark to the
//     snapshot's absolute mark (the snapshot's own P&L figure is echoed into
//     a diagnostic field, never used for computation);
//   - no match and the leg currently has a mark: clear it, the position has
//     been closed since the snapshot was taken;
//   - no match and no mark: nothing to do.
//
// Duplicate snapshot rows for one canonical key resolve last-write-wins.
func Plan(candidates []*models.Trade, snapshot []*models.PositionSnapshot) ([]MarkUpdate, Summary) {
	byKey := make(map[string]*models.PositionSnapshot, len(snapshot))
	for _, pos := range snapshot {
		byKey[pos.CanonicalSymbol] = pos
	}

	var updates []MarkUpdate
	var summary Summary
	for _, trade := range candidates {
		pos, ok := byKey[symbols.ForTrade(trade)]
		if ok {
			mark := pos.Mark.Abs()
			updates = append(updates, MarkUpdate{
				TradeID:     trade.ID,
				Mark:        &mark,
				SnapshotPnl: pos.OpenPnl,
			})
			summary.Matched++
			continue
		}
		if trade.IsOpen() {
			updates = append(updates, MarkUpdate{TradeID: trade.ID})
			summary.Cleared++
		}
	}
	return updates, summary
}

// Apply fires every planned update concurrently and waits for all of them.
// Each update targets a disjoint row, so no coordination beyond the result
// channel is needed. Failures never short-circuit the batch: every
// successful update still lands, and one aggregate error names the failure
// count.
func Apply(repo MarkPriceUpdater, userID string, updates []MarkUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	type outcome struct {
		tradeID int
		err     error
	}
	results := make(chan outcome, len(updates))
	for _, u := range updates {
		go func(u MarkUpdate) {
			results <- outcome{tradeID: u.TradeID, err: repo.UpdateMarkPrice(userID, u.TradeID, u.Mark, u.SnapshotPnl)}
		}(u)
	}

	failed := 0
	for range updates {
		res := <-results
		if res.err != nil {
			failed++
			logrus.WithFields(logrus.Fields{
				"trade_id": res.tradeID,
				"user_id":  userID,
			}).WithError(res.err).Error("Failed to apply mark price update")
		}
	}

	if failed > 0 {
		return failed, fmt.Errorf("%d of %d mark price updates failed", failed, len(updates))
	}
	return 0, nil
}

// Run plans and applies one reconciliation pass.
func Run(repo MarkPriceUpdater, userID string, candidates []*models.Trade, snapshot []*models.PositionSnapshot) (Summary, error) {
	updates, summary := Plan(candidates, snapshot)
	failed, err := Apply(repo, userID, updates)
	summary.Failed = failed

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"matched": summary.Matched,
		"cleared": summary.Cleared,
		"failed":  summary.Failed,
	}).Info("Reconciliation pass complete")
	return summary, err
}
