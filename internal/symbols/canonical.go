// Package symbols normalizes broker-specific option symbol strings into a
// structural canonical key so the same contract matches across export
// formats.
package symbols

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mlangford/wheeljournal/internal/models"
)

// OCC-style fixed width: underlying (may contain spaces or slashes, e.g.
// futures roots), then YYMMDD, right, and an integer strike. The match is
// anchored on the trailing date+right+strike suffix so internal whitespace in
// the underlying never breaks parsing.
var occPattern = regexp.MustCompile(`^(.*?)\s*(\d{6})([CP])(\d{1,8})$`)

// Human readable: "UNDERLYING MM/DD/YY (C|P)STRIKE", three space-delimited
// tokens, strike optionally fractional.
var humanPattern = regexp.MustCompile(`^(\S+)\s+(\d{1,2})/(\d{1,2})/(\d{2})\s+([CP])(\d+(?:\.\d+)?)$`)

// Canonicalize converts a broker symbol string into the canonical form
// "UNDERLYING:YYYY-MM-DD:STRIKE:RIGHT" with the strike at two decimals. Two
// encodings of the same contract canonicalize identically; that equality is
// the join key position reconciliation depends on.
//
// Canonicalization is best effort: non-option asset types and symbols that
// match neither known format return the trimmed input unchanged. An
// unparseable key simply fails to match anything downstream.
func Canonicalize(symbol, assetType string) string {
	trimmed := strings.TrimSpace(symbol)
	if !isOptionAsset(assetType) {
		return trimmed
	}

	if m := occPattern.FindStringSubmatch(trimmed); m != nil {
		if key, ok := canonicalFromOCC(m); ok {
			return key
		}
	}
	if m := humanPattern.FindStringSubmatch(trimmed); m != nil {
		if key, ok := canonicalFromHuman(m); ok {
			return key
		}
	}
	return trimmed
}

func isOptionAsset(assetType string) bool {
	return strings.Contains(strings.ToUpper(assetType), "OPTION")
}

func canonicalFromOCC(m []string) (string, bool) {
	underlying := strings.TrimSpace(m[1])
	if underlying == "" {
		return "", false
	}

	exp, err := time.Parse("060102", m[2])
	if err != nil {
		return "", false
	}

	strike, err := decimal.NewFromString(m[4])
	if err != nil {
		return "", false
	}
	// An 8-digit OCC strike carries an implied decimal point three places
	// from the right; shorter strikes are whole dollars.
	if len(m[4]) == 8 {
		strike = strike.Div(decimal.NewFromInt(1000))
	}

	return canonicalKey(underlying, exp, strike, m[3]), true
}

func canonicalFromHuman(m []string) (string, bool) {
	dateStr := fmt.Sprintf("%s/%s/%s", m[2], m[3], m[4])
	exp, err := time.Parse("1/2/06", dateStr)
	if err != nil {
		return "", false
	}

	strike, err := decimal.NewFromString(m[6])
	if err != nil {
		return "", false
	}

	return canonicalKey(m[1], exp, strike, m[5]), true
}

func canonicalKey(underlying string, exp time.Time, strike decimal.Decimal, right string) string {
	return fmt.Sprintf("%s:%s:%s:%s", underlying, exp.Format("2006-01-02"), strike.StringFixed(2), right)
}

// ForTrade canonicalizes a ledger trade's raw symbol.
func ForTrade(t *models.Trade) string {
	return Canonicalize(t.Symbol, t.AssetType)
}
