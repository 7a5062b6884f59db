package models

import (
	"github.com/shopspring/decimal"
)

// PositionSnapshot is one row of an uploaded broker position export. The
// snapshot is assumed complete for all currently-open positions: an open
// ledger trade absent from the snapshot has since been closed.
type PositionSnapshot struct {
	Symbol          string           `json:"symbol"`
	CanonicalSymbol string           `json:"canonical_symbol"`
	AssetType       string           `json:"asset_type,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	Mark            decimal.Decimal  `json:"mark"`
	OpenPnl         *decimal.Decimal `json:"open_pnl,omitempty"`
}
