package broker

import (
	"strconv"
)

// Fingerprint computes the import dedup hash for one broker row from the raw
// field values as exported. It is a cheap djb2-style rolling hash, not a
// security boundary; collisions at personal-scale volumes are accepted. The
// ledger enforces uniqueness on (user, fingerprint).
func Fingerprint(symbol, date, action, quantity, price, amount string) string {
	var h uint64 = 5381
	for _, field := range []string{symbol, date, action, quantity, price, amount} {
		for i := 0; i < len(field); i++ {
			h = h*33 + uint64(field[i])
		}
		h = h*33 + '|'
	}
	return strconv.FormatUint(h, 16)
}
