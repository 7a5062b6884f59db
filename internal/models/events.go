package models

import (
	"time"
)

// Kafka event type constants
const (
	EventTypePositionSnapshot  = "POSITION_SNAPSHOT"
	EventTypeImportCompleted   = "IMPORT_COMPLETED"
	EventTypeReconcileComplete = "RECONCILE_COMPLETED"
)

// PositionSnapshotEvent carries a full position snapshot for one user, as
// published by a broker bridge. Semantics are identical to an uploaded
// positions CSV: the snapshot is complete for all open positions.
type PositionSnapshotEvent struct {
	EventType string             `json:"event_type"`
	UserID    string             `json:"user_id"`
	Source    string             `json:"source"`
	Positions []PositionSnapshot `json:"positions"`
	Timestamp time.Time          `json:"timestamp"`
}

// ImportEvent summarizes one completed transactions import batch.
type ImportEvent struct {
	EventType  string    `json:"event_type"`
	UserID     string    `json:"user_id"`
	BatchID    string    `json:"batch_id"`
	Parsed     int       `json:"parsed"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReconcileEvent summarizes one completed reconciliation pass.
type ReconcileEvent struct {
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	Matched   int       `json:"matched"`
	Cleared   int       `json:"cleared"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}
