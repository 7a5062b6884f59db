package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mlangford/wheeljournal/internal/models"
	"github.com/mlangford/wheeljournal/internal/reconcile"
	"github.com/mlangford/wheeljournal/internal/symbols"
)

// SnapshotLedger defines the ledger operations a snapshot event drives.
type SnapshotLedger interface {
	GetReconcilableTrades(userID string) ([]*models.Trade, error)
	UpdateMarkPrice(userID string, id int, mark, snapshotPnl *decimal.Decimal) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// SnapshotConsumer consumes position snapshot events from a broker bridge
// and feeds them through the reconciliation engine, exactly as an uploaded
// positions CSV would be.
type SnapshotConsumer struct {
	reader messageReader
	repo   SnapshotLedger
}

// NewSnapshotConsumer creates a Kafka consumer for position snapshot events
func NewSnapshotConsumer(brokers []string, topic, groupID string, repo SnapshotLedger) *SnapshotConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &SnapshotConsumer{
		reader: reader,
		repo:   repo,
	}
}

// Start begins consuming messages until the context is cancelled
func (c *SnapshotConsumer) Start(ctx context.Context) error {
	logrus.Info("Starting position snapshot consumer")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Position snapshot consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				logrus.WithError(err).Error("Error reading message")
				continue
			}

			if err := c.processMessage(msg); err != nil {
				logrus.WithError(err).Error("Error processing message")
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single snapshot event
func (c *SnapshotConsumer) processMessage(msg kafka.Message) error {
	var event models.PositionSnapshotEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot event: %w", err)
	}

	if event.EventType != models.EventTypePositionSnapshot {
		logrus.WithField("event_type", event.EventType).Debug("Ignoring event type")
		return nil
	}
	if event.UserID == "" {
		return fmt.Errorf("snapshot event missing user id")
	}

	positions := make([]*models.PositionSnapshot, 0, len(event.Positions))
	for i := range event.Positions {
		pos := event.Positions[i]
		if pos.CanonicalSymbol == "" {
			assetType := pos.AssetType
			if assetType == "" {
				assetType = models.AssetTypeOption
			}
			pos.CanonicalSymbol = symbols.Canonicalize(pos.Symbol, assetType)
		}
		positions = append(positions, &pos)
	}

	candidates, err := c.repo.GetReconcilableTrades(event.UserID)
	if err != nil {
		return fmt.Errorf("failed to load reconcilable trades: %w", err)
	}

	summary, err := reconcile.Run(c.repo, event.UserID, candidates, positions)
	if err != nil {
		return fmt.Errorf("reconciliation from snapshot event: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": event.UserID,
		"source":  event.Source,
		"matched": summary.Matched,
		"cleared": summary.Cleared,
	}).Info("Applied position snapshot event")
	return nil
}

// Close closes the Kafka consumer
func (c *SnapshotConsumer) Close() error {
	return c.reader.Close()
}
