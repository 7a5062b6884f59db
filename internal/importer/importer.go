// Package importer runs one transactions-CSV import batch: parse, fingerprint
// dedup against the ledger, and count the outcome. A duplicate or bad row
// never aborts the batch.
package importer

import (
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mlangford/wheeljournal/internal/broker"
	"github.com/mlangford/wheeljournal/internal/database"
	"github.com/mlangford/wheeljournal/internal/models"
)

// TradeInserter is the slice of the ledger repository an import writes
// through.
type TradeInserter interface {
	InsertTrade(t *models.Trade) error
}

// Summary reports one import batch.
type Summary struct {
	BatchID    string `json:"batch_id"`
	Parsed     int    `json:"parsed"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
}

// ImportTransactions parses a transactions CSV and inserts each trade,
// treating fingerprint uniqueness violations as already-imported duplicates.
func ImportTransactions(repo TradeInserter, userID string, r io.Reader) (Summary, error) {
	summary := Summary{BatchID: uuid.NewString()}

	trades, err := broker.ParseTransactions(r)
	if err != nil {
		return summary, err
	}
	summary.Parsed = len(trades)

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "batch_id": summary.BatchID})
	for _, trade := range trades {
		trade.UserID = userID
		err := repo.InsertTrade(trade)
		switch {
		case err == nil:
			summary.Inserted++
		case errors.Is(err, database.ErrDuplicateTrade):
			summary.Duplicates++
		default:
			// Row-level insert failure: drop the row, keep the batch going.
			log.WithError(err).WithField("symbol", trade.Symbol).Error("Failed to insert trade")
		}
	}

	log.WithFields(logrus.Fields{
		"parsed":     summary.Parsed,
		"inserted":   summary.Inserted,
		"duplicates": summary.Duplicates,
	}).Info("Import batch complete")
	return summary, nil
}
