package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trade action constants. Broker exports are not limited to these; direction
// and open/close are always derived by substring, never by exact match.
const (
	ActionBuyToOpen   = "BUY_TO_OPEN"
	ActionSellToOpen  = "SELL_TO_OPEN"
	ActionBuyToClose  = "BUY_TO_CLOSE"
	ActionSellToClose = "SELL_TO_CLOSE"
	ActionExpire      = "EXPIRE"
	ActionAssigned    = "ASSIGNED"
)

// Asset type constants
const (
	AssetTypeOption        = "OPTION"
	AssetTypeStock         = "STOCK"
	AssetTypeFuturesOption = "FUTURES_OPTION"
)

// Trade is one executed leg in the ledger. Rows are immutable after import
// except for MarkPrice, SnapshotPnl, PairID, StrategyID, TagID and Hidden.
// Amount is the signed net cash flow of the leg (debit negative, credit
// positive) and is the ground truth for realized P&L.
type Trade struct {
	ID          int              `json:"id"`
	UserID      string           `json:"user_id"`
	Symbol      string           `json:"symbol"`
	Date        time.Time        `json:"date"`
	Action      string           `json:"action"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Fees        decimal.Decimal  `json:"fees"`
	Amount      decimal.Decimal  `json:"amount"`
	Multiplier  decimal.Decimal  `json:"multiplier"`
	AssetType   string           `json:"asset_type"`
	MarkPrice   *decimal.Decimal `json:"mark_price,omitempty"`
	SnapshotPnl *decimal.Decimal `json:"snapshot_pnl,omitempty"`
	PairID      *string          `json:"pair_id,omitempty"`
	StrategyID  *int             `json:"strategy_id,omitempty"`
	TagID       *int             `json:"tag_id,omitempty"`
	ImportHash  string           `json:"import_hash"`
	Hidden      bool             `json:"hidden"`
	CreatedAt   time.Time        `json:"created_at"`
}

// IsOpen reports whether the leg is currently open. Mark price nullity is the
// sole open/closed signal; a mark of exactly zero is still open.
func (t *Trade) IsOpen() bool {
	return t.MarkPrice != nil
}

// IsShort reports the direction of the leg: short when the action label
// contains SELL or SHORT, long otherwise.
func (t *Trade) IsShort() bool {
	return strings.Contains(t.Action, "SELL") || strings.Contains(t.Action, "SHORT")
}

// DirectionSign is -1 for short legs and +1 for long legs.
func (t *Trade) DirectionSign() decimal.Decimal {
	if t.IsShort() {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// IsOpeningAction reports whether the action label indicates an opening leg.
func (t *Trade) IsOpeningAction() bool {
	return strings.Contains(t.Action, "OPEN")
}

// IsClosingAction reports whether the action label indicates a closing leg
// (including expirations).
func (t *Trade) IsClosingAction() bool {
	return strings.Contains(t.Action, "CLOSE") || strings.Contains(t.Action, "EXP")
}

// GroupKey returns the grouping key for multi-leg aggregation: the pair id
// when the leg belongs to one, otherwise the leg's own id.
func (t *Trade) GroupKey() string {
	if t.PairID != nil && *t.PairID != "" {
		return *t.PairID
	}
	return strconv.Itoa(t.ID)
}
