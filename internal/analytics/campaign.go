package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlangford/wheeljournal/internal/models"
	"github.com/mlangford/wheeljournal/internal/symbols"
)

// CampaignReport is the cash-secured-put campaign view: capital-relative risk
// metrics for one named strategy's trades.
type CampaignReport struct {
	StrategyName      string           `json:"strategy_name"`
	CapitalAllocation decimal.Decimal  `json:"capital_allocation"`
	NetLiquidity      decimal.Decimal  `json:"net_liquidity"`
	TotalPnl          decimal.Decimal  `json:"total_pnl"`
	ROIPct            *decimal.Decimal `json:"roi_pct,omitempty"`
	NotionalLeverage  *decimal.Decimal `json:"notional_leverage,omitempty"`
	MaxDrawdownPct    decimal.Decimal  `json:"max_drawdown_pct"`
	WinRatePct        int              `json:"win_rate_pct"`
	Groups            []GroupView      `json:"groups"`
}

// BuildCampaignReport assembles the campaign view for one strategy from its
// trades.
func BuildCampaignReport(strategy *models.Strategy, trades []*models.Trade, now time.Time) CampaignReport {
	groups := GroupTrades(trades)
	summary := Summarize(trades)

	netLiq := strategy.CapitalAllocation.Add(summary.TotalPnl)
	report := CampaignReport{
		StrategyName:      strategy.Name,
		CapitalAllocation: strategy.CapitalAllocation,
		NetLiquidity:      netLiq,
		TotalPnl:          summary.TotalPnl,
		ROIPct:            ROIPct(summary.TotalPnl, strategy.CapitalAllocation),
		NotionalLeverage:  NotionalLeverage(groups, netLiq),
		MaxDrawdownPct:    MaxDrawdownPct(groups, strategy.CapitalAllocation),
		WinRatePct:        summary.WinRatePct,
		Groups:            BuildGroupViews(groups, now),
	}
	return report
}

// Notional is the assignment exposure of one leg: strike * multiplier *
// quantity. Legs without a structural option key carry no notional.
func Notional(t *models.Trade) decimal.Decimal {
	key, ok := symbols.ParseKey(symbols.ForTrade(t))
	if !ok {
		return decimal.Zero
	}
	return key.Strike.Mul(t.Multiplier).Mul(t.Quantity)
}

// NotionalLeverage sums notional over the legs of open groups and divides by
// net liquidity. Nil when net liquidity is not positive (the ratio would be
// meaningless, not infinite).
func NotionalLeverage(groups []*TradeGroup, netLiquidity decimal.Decimal) *decimal.Decimal {
	if !netLiquidity.IsPositive() {
		return nil
	}

	notional := decimal.Zero
	for _, g := range groups {
		if !g.IsOpen() {
			continue
		}
		for _, t := range g.Trades {
			notional = notional.Add(Notional(t))
		}
	}
	leverage := notional.Div(netLiquidity)
	return &leverage
}

// MaxDrawdownPct replays closed groups in close-date order, tracking the peak
// account value (capital + cumulative P&L) and returns the largest observed
// peak-to-trough decline as a percentage.
func MaxDrawdownPct(groups []*TradeGroup, capital decimal.Decimal) decimal.Decimal {
	type closedGroup struct {
		closedAt time.Time
		pnl      decimal.Decimal
		key      string
	}

	var closed []closedGroup
	for _, g := range groups {
		if at, ok := g.CloseDate(); ok {
			closed = append(closed, closedGroup{closedAt: at, pnl: g.TotalPnl(), key: g.Key})
		}
	}
	// GroupTrades orders by open date; drawdown replays by close date, key as
	// deterministic tiebreak.
	sort.Slice(closed, func(i, j int) bool {
		if !closed[i].closedAt.Equal(closed[j].closedAt) {
			return closed[i].closedAt.Before(closed[j].closedAt)
		}
		return closed[i].key < closed[j].key
	})

	cumulative := decimal.Zero
	peak := capital
	maxDrawdown := decimal.Zero
	for _, cg := range closed {
		cumulative = cumulative.Add(cg.pnl)
		account := capital.Add(cumulative)
		if account.GreaterThan(peak) {
			peak = account
		}
		if peak.IsPositive() {
			drawdown := peak.Sub(account).Div(peak)
			if drawdown.GreaterThan(maxDrawdown) {
				maxDrawdown = drawdown
			}
		}
	}
	return maxDrawdown.Mul(decimal.NewFromInt(100))
}
