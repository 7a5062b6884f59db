package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlangford/wheeljournal/internal/models"
)

// Summary is the aggregate view over a set of trades: a dashboard, a
// strategy, or the whole portfolio.
type Summary struct {
	RealizedPnl   decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
	TotalPnl      decimal.Decimal `json:"total_pnl"`
	OpenGroups    int             `json:"open_groups"`
	ClosedGroups  int             `json:"closed_groups"`
	Wins          int             `json:"wins"`
	Losses        int             `json:"losses"`
	WinRatePct    int             `json:"win_rate_pct"`
}

// StrategySummary extends Summary with capital-relative metrics. ROIPct is
// nil when the strategy has no capital allocation: not applicable, never
// zero or infinity.
type StrategySummary struct {
	Summary
	StrategyID        int              `json:"strategy_id"`
	StrategyName      string           `json:"strategy_name"`
	CapitalAllocation decimal.Decimal  `json:"capital_allocation"`
	ROIPct            *decimal.Decimal `json:"roi_pct,omitempty"`
}

// Summarize aggregates non-hidden trades into a Summary. Wins and losses are
// counted over closed groups only; a closed group at exactly zero P&L is
// neither.
func Summarize(trades []*models.Trade) Summary {
	groups := GroupTrades(trades)

	var s Summary
	s.RealizedPnl = decimal.Zero
	s.UnrealizedPnl = decimal.Zero
	for _, g := range groups {
		s.RealizedPnl = s.RealizedPnl.Add(g.RealizedPnl())
		s.UnrealizedPnl = s.UnrealizedPnl.Add(g.UnrealizedPnl())
		if g.IsOpen() {
			s.OpenGroups++
			continue
		}
		s.ClosedGroups++
		pnl := g.TotalPnl()
		switch {
		case pnl.IsPositive():
			s.Wins++
		case pnl.IsNegative():
			s.Losses++
		}
	}
	s.TotalPnl = s.RealizedPnl.Add(s.UnrealizedPnl)
	s.WinRatePct = WinRatePct(s.Wins, s.Losses)
	return s
}

// SummarizeStrategy aggregates the trades assigned to one strategy and
// derives ROI from its capital allocation.
func SummarizeStrategy(strategy *models.Strategy, trades []*models.Trade) StrategySummary {
	s := StrategySummary{
		Summary:           Summarize(trades),
		StrategyID:        strategy.ID,
		StrategyName:      strategy.Name,
		CapitalAllocation: strategy.CapitalAllocation,
	}
	s.ROIPct = ROIPct(s.TotalPnl, strategy.CapitalAllocation)
	return s
}

// WinRatePct is wins/(wins+losses) as a whole percent, 0 for an empty closed
// population.
func WinRatePct(wins, losses int) int {
	total := wins + losses
	if total == 0 {
		return 0
	}
	rate := decimal.NewFromInt(int64(wins)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100))
	return int(rate.Round(0).IntPart())
}

// ROIPct is totalPnl/capital*100, nil (not applicable) at zero capital.
func ROIPct(totalPnl, capital decimal.Decimal) *decimal.Decimal {
	if capital.IsZero() {
		return nil
	}
	roi := totalPnl.Div(capital).Mul(decimal.NewFromInt(100))
	return &roi
}

// GroupView is one display-ready row for a logical position.
type GroupView struct {
	Key           string           `json:"key"`
	Symbols       []string         `json:"symbols"`
	IsOpen        bool             `json:"is_open"`
	OpenDate      time.Time        `json:"open_date"`
	CloseDate     *time.Time       `json:"close_date,omitempty"`
	RealizedPnl   decimal.Decimal  `json:"realized_pnl"`
	UnrealizedPnl decimal.Decimal  `json:"unrealized_pnl"`
	TotalPnl      decimal.Decimal  `json:"total_pnl"`
	DaysInTrade   int              `json:"days_in_trade"`
	CreditPct     *decimal.Decimal `json:"credit_captured_pct,omitempty"`
}

// BuildGroupViews renders groups into display rows.
func BuildGroupViews(groups []*TradeGroup, now time.Time) []GroupView {
	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		v := GroupView{
			Key:           g.Key,
			IsOpen:        g.IsOpen(),
			OpenDate:      g.OpenDate(),
			RealizedPnl:   g.RealizedPnl(),
			UnrealizedPnl: g.UnrealizedPnl(),
			TotalPnl:      g.TotalPnl(),
			DaysInTrade:   g.DaysInTrade(now),
			CreditPct:     g.CreditCapturedPct(),
		}
		if closed, ok := g.CloseDate(); ok {
			v.CloseDate = &closed
		}
		seen := make(map[string]bool)
		for _, t := range g.Trades {
			if !seen[t.Symbol] {
				seen[t.Symbol] = true
				v.Symbols = append(v.Symbols, t.Symbol)
			}
		}
		views = append(views, v)
	}
	return views
}
