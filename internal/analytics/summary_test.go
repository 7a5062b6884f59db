package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlangford/wheeljournal/internal/models"
)

func TestSummarize(t *testing.T) {
	win := newLeg(1, models.ActionSellToClose, 300)
	loss := newLeg(2, models.ActionBuyToClose, -100)
	flat := newLeg(3, models.ActionExpire, 0)
	open := newLeg(4, models.ActionSellToOpen, 150)
	open.MarkPrice = decPtr(1)

	s := Summarize([]*models.Trade{win, loss, flat, open})

	assert.Equal(t, 3, s.ClosedGroups)
	assert.Equal(t, 1, s.OpenGroups)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	// Zero-P&L close is neither win nor loss; 1/(1+1) = 50%.
	assert.Equal(t, 50, s.WinRatePct)

	assert.True(t, dec(200).Equal(s.RealizedPnl), "got %s", s.RealizedPnl)
	// (1*1*100*-1)+150 = 50
	assert.True(t, dec(50).Equal(s.UnrealizedPnl))
	assert.True(t, dec(250).Equal(s.TotalPnl))
}

func TestSummarize_ExcludesHidden(t *testing.T) {
	visible := newLeg(1, models.ActionSellToClose, 300)
	hidden := newLeg(2, models.ActionSellToClose, 9999)
	hidden.Hidden = true

	s := Summarize([]*models.Trade{visible, hidden})
	assert.True(t, dec(300).Equal(s.TotalPnl))
	assert.Equal(t, 1, s.ClosedGroups)
}

func TestWinRatePct_EmptyClosedPopulation(t *testing.T) {
	// Never divide-by-zero: zero closed trades reports 0.
	assert.Equal(t, 0, WinRatePct(0, 0))

	open := newLeg(1, models.ActionSellToOpen, 150)
	open.MarkPrice = decPtr(1)
	s := Summarize([]*models.Trade{open})
	assert.Equal(t, 0, s.WinRatePct)
}

func TestWinRatePct_Rounding(t *testing.T) {
	// 2/3 = 66.67 rounds to 67.
	assert.Equal(t, 67, WinRatePct(2, 1))
	assert.Equal(t, 33, WinRatePct(1, 2))
	assert.Equal(t, 100, WinRatePct(3, 0))
}

func TestROIPct(t *testing.T) {
	roi := ROIPct(dec(250), dec(10000))
	require.NotNil(t, roi)
	assert.True(t, dec(2.5).Equal(*roi))
}

func TestROIPct_ZeroCapitalIsNotApplicable(t *testing.T) {
	assert.Nil(t, ROIPct(dec(250), dec(0)))
}

func TestSummarizeStrategy(t *testing.T) {
	strategy := &models.Strategy{
		ID:                7,
		Name:              "csp-campaign",
		CapitalAllocation: dec(10000),
	}
	s := SummarizeStrategy(strategy, []*models.Trade{newLeg(1, models.ActionSellToClose, 500)})

	assert.Equal(t, 7, s.StrategyID)
	require.NotNil(t, s.ROIPct)
	assert.True(t, dec(5).Equal(*s.ROIPct))
}

func TestSummarizeStrategy_NoCapital(t *testing.T) {
	strategy := &models.Strategy{ID: 8, Name: "unsized"}
	s := SummarizeStrategy(strategy, []*models.Trade{newLeg(1, models.ActionSellToClose, 500)})
	assert.Nil(t, s.ROIPct)
}
