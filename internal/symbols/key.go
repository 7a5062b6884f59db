package symbols

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Key is the structural identity of an option contract, decoded from a
// canonical string.
type Key struct {
	Underlying string
	Expiration time.Time
	Strike     decimal.Decimal
	Right      string
}

// ParseKey decodes a canonical "UNDERLYING:YYYY-MM-DD:STRIKE:RIGHT" string.
// Returns false for bare equity symbols and anything else that never
// canonicalized structurally.
func ParseKey(canonical string) (Key, bool) {
	parts := strings.Split(canonical, ":")
	if len(parts) != 4 {
		return Key{}, false
	}

	exp, err := time.Parse("2006-01-02", parts[1])
	if err != nil {
		return Key{}, false
	}
	strike, err := decimal.NewFromString(parts[2])
	if err != nil {
		return Key{}, false
	}
	right := parts[3]
	if right != "C" && right != "P" {
		return Key{}, false
	}

	return Key{
		Underlying: parts[0],
		Expiration: exp,
		Strike:     strike,
		Right:      right,
	}, true
}
