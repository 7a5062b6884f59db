// Package analytics folds the trade ledger into per-group, per-strategy and
// portfolio level P&L and the derived journal metrics. All metrics are
// recomputed from a fresh ledger read; nothing here is persisted.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlangford/wheeljournal/internal/models"
)

// MarketValue is the signed current value of an open leg:
// |mark| * quantity * multiplier * direction. Long legs carry positive asset
// value, short legs a negative liability value. Closed legs have no market
// value.
func MarketValue(t *models.Trade) decimal.Decimal {
	if !t.IsOpen() {
		return decimal.Zero
	}
	return t.MarkPrice.Abs().Mul(t.Quantity).Mul(t.Multiplier).Mul(t.DirectionSign())
}

// LegPnl is the P&L contribution of one leg: mark-to-market plus original
// cash flow while open, the settled cash flow alone once closed.
func LegPnl(t *models.Trade) decimal.Decimal {
	if t.IsOpen() {
		return MarketValue(t).Add(t.Amount)
	}
	return t.Amount
}

// TradeGroup is the set of legs sharing a grouping key: one logical position.
type TradeGroup struct {
	Key    string
	Trades []*models.Trade
}

// IsOpen is true if any leg of the group is open.
func (g *TradeGroup) IsOpen() bool {
	for _, t := range g.Trades {
		if t.IsOpen() {
			return true
		}
	}
	return false
}

// OpenDate is the earliest leg date in the group.
func (g *TradeGroup) OpenDate() time.Time {
	open := g.Trades[0].Date
	for _, t := range g.Trades[1:] {
		if t.Date.Before(open) {
			open = t.Date
		}
	}
	return open
}

// CloseDate is the latest leg date, defined only when every leg is closed.
func (g *TradeGroup) CloseDate() (time.Time, bool) {
	if g.IsOpen() {
		return time.Time{}, false
	}
	closed := g.Trades[0].Date
	for _, t := range g.Trades[1:] {
		if t.Date.After(closed) {
			closed = t.Date
		}
	}
	return closed, true
}

// RealizedPnl sums settled cash flow over the group's closed legs.
func (g *TradeGroup) RealizedPnl() decimal.Decimal {
	total := decimal.Zero
	for _, t := range g.Trades {
		if !t.IsOpen() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// UnrealizedPnl sums mark-to-market P&L over the group's open legs.
func (g *TradeGroup) UnrealizedPnl() decimal.Decimal {
	total := decimal.Zero
	for _, t := range g.Trades {
		if t.IsOpen() {
			total = total.Add(LegPnl(t))
		}
	}
	return total
}

// TotalPnl is realized plus unrealized over all legs, open and closed.
func (g *TradeGroup) TotalPnl() decimal.Decimal {
	return g.RealizedPnl().Add(g.UnrealizedPnl())
}

// CreditReceived sums the positive-amount legs: the maximum premium the
// group could ever capture.
func (g *TradeGroup) CreditReceived() decimal.Decimal {
	total := decimal.Zero
	for _, t := range g.Trades {
		if t.Amount.IsPositive() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CreditCapturedPct is totalPnl / creditReceived * 100, nil when the group
// has no positive-amount leg.
func (g *TradeGroup) CreditCapturedPct() *decimal.Decimal {
	credit := g.CreditReceived()
	if credit.IsZero() {
		return nil
	}
	pct := g.TotalPnl().Div(credit).Mul(decimal.NewFromInt(100))
	return &pct
}

// DaysInTrade is the whole-day ceiling between the open date and the close
// date (or now for open groups), floored at one day once any time elapsed.
func (g *TradeGroup) DaysInTrade(now time.Time) int {
	end := now
	if closed, ok := g.CloseDate(); ok {
		end = closed
	}
	elapsed := end.Sub(g.OpenDate())
	if elapsed <= 0 {
		return 0
	}
	days := int(math.Ceil(elapsed.Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// GroupTrades groups non-hidden trades into logical positions by pair id
// (falling back to each leg's own id) and returns them oldest open date
// first, key as tiebreak, so replay-based metrics are deterministic.
func GroupTrades(trades []*models.Trade) []*TradeGroup {
	byKey := make(map[string]*TradeGroup)
	var order []string
	for _, t := range trades {
		if t.Hidden {
			continue
		}
		key := t.GroupKey()
		g, ok := byKey[key]
		if !ok {
			g = &TradeGroup{Key: key}
			byKey[key] = g
			order = append(order, key)
		}
		g.Trades = append(g.Trades, t)
	}

	groups := make([]*TradeGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, byKey[key])
	}
	sort.Slice(groups, func(i, j int) bool {
		oi, oj := groups[i].OpenDate(), groups[j].OpenDate()
		if !oi.Equal(oj) {
			return oi.Before(oj)
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}
