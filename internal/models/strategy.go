package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Strategy status constants
const (
	StrategyStatusActive   = "ACTIVE"
	StrategyStatusArchived = "ARCHIVED"
)

// Strategy is an opaque label trades can be assigned to. CapitalAllocation is
// the base capital for ROI, leverage and drawdown math.
type Strategy struct {
	ID                int             `json:"id"`
	UserID            string          `json:"user_id"`
	Name              string          `json:"name"`
	CapitalAllocation decimal.Decimal `json:"capital_allocation"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Tag is a free-form label trades can be assigned to.
type Tag struct {
	ID     int    `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}
