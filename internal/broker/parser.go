// Package broker converts raw broker CSV exports into typed ledger records.
// Column names vary across brokers, so each recognized field is resolved
// through a list of known header variants once per file. Rows that fail to
// parse are dropped, never fatal; only an entirely empty result is an error.
package broker

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/mlangford/wheeljournal/internal/models"
	"github.com/mlangford/wheeljournal/internal/symbols"
)

// ErrNoValidRows is returned when a file parses but filtering leaves nothing.
var ErrNoValidRows = errors.New("no valid rows found in file")

// Header variants per canonical field, checked in order.
var (
	transactionHeaders = map[string][]string{
		"symbol":     {"Symbol"},
		"date":       {"Date", "Time", "Date/Time"},
		"action":     {"Action"},
		"quantity":   {"Quantity", "Qty"},
		"price":      {"Average Price", "Price"},
		"amount":     {"Value", "Amount"},
		"fees":       {"Fees"},
		"commission": {"Commissions", "Commission"},
		"type":       {"Type"},
		"instrument": {"Instrument Type"},
		"multiplier": {"Multiplier"},
	}

	positionHeaders = map[string][]string{
		"symbol":   {"Symbol"},
		"mark":     {"Mark", "Market Value", "Current Price"},
		"pnl":      {"P/L Open", "Profit/Loss", "Unrealized P&L"},
		"quantity": {"Quantity", "Qty"},
		"type":     {"Type"},
	}
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06",
}

// columnIndex maps a canonical field name to the position of the first
// matching header variant present in the file, or -1.
type columnIndex map[string]int

func resolveColumns(header []string, variants map[string][]string) columnIndex {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	idx := make(columnIndex, len(variants))
	for field, names := range variants {
		idx[field] = -1
		for _, name := range names {
			if i, ok := byName[strings.ToLower(name)]; ok {
				idx[field] = i
				break
			}
		}
	}
	return idx
}

func (c columnIndex) get(record []string, field string) string {
	i := c[field]
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (c columnIndex) has(field string) bool {
	return c[field] >= 0
}

// ParseTransactions reads a header-row transactions CSV and returns ledger
// trade records. Non-trade rows (dividends, transfers) are discarded when the
// Type column is present; unparseable rows are skipped.
func ParseTransactions(r io.Reader) ([]*models.Trade, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	cols := resolveColumns(header, transactionHeaders)
	var trades []*models.Trade
	for _, record := range records {
		if cols.has("type") {
			if rowType := cols.get(record, "type"); rowType != "" && rowType != "Trade" {
				continue
			}
		}

		trade, ok := parseTransactionRow(cols, record)
		if !ok {
			continue
		}
		trades = append(trades, trade)
	}

	if len(trades) == 0 {
		return nil, fmt.Errorf("transactions: %w", ErrNoValidRows)
	}
	return trades, nil
}

func parseTransactionRow(cols columnIndex, record []string) (*models.Trade, bool) {
	symbol := cols.get(record, "symbol")
	action := strings.ToUpper(cols.get(record, "action"))
	rawDate := cols.get(record, "date")
	if symbol == "" || action == "" || rawDate == "" {
		return nil, false
	}

	date, ok := parseDate(rawDate)
	if !ok {
		logrus.WithField("date", rawDate).Debug("Skipping transaction row with unparseable date")
		return nil, false
	}

	instrument := strings.ToUpper(cols.get(record, "instrument"))
	multiplier := SanitizeCurrency(cols.get(record, "multiplier"))
	if multiplier.IsZero() {
		// Options default to the standard 100 contract multiplier when the
		// broker omits an explicit one.
		if strings.Contains(instrument, "OPTION") {
			multiplier = decimal.NewFromInt(100)
		} else {
			multiplier = decimal.NewFromInt(1)
		}
	}

	assetType := normalizeAssetType(instrument)
	if assetType == "" {
		// No explicit instrument type: infer from the resolved multiplier.
		if multiplier.Equal(decimal.NewFromInt(100)) {
			assetType = models.AssetTypeOption
		} else {
			assetType = models.AssetTypeStock
		}
	}

	quantity := SanitizeCurrency(cols.get(record, "quantity")).Abs()
	fees := SanitizeCurrency(cols.get(record, "fees")).Abs().
		Add(SanitizeCurrency(cols.get(record, "commission")).Abs())

	return &models.Trade{
		Symbol:     symbol,
		Date:       date,
		Action:     action,
		Quantity:   quantity,
		Price:      SanitizeCurrency(cols.get(record, "price")),
		Fees:       fees,
		Amount:     SanitizeCurrency(cols.get(record, "amount")),
		Multiplier: multiplier,
		AssetType:  assetType,
		ImportHash: Fingerprint(
			symbol,
			rawDate,
			action,
			cols.get(record, "quantity"),
			cols.get(record, "price"),
			cols.get(record, "amount"),
		),
	}, true
}

// ParsePositions reads a header-row positions CSV and returns normalized
// snapshot rows with the canonical symbol precomputed for reconciliation.
func ParsePositions(r io.Reader) ([]*models.PositionSnapshot, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	cols := resolveColumns(header, positionHeaders)
	var positions []*models.PositionSnapshot
	for _, record := range records {
		symbol := cols.get(record, "symbol")
		if symbol == "" {
			continue
		}

		assetType := normalizeAssetType(strings.ToUpper(cols.get(record, "type")))
		if assetType == "" {
			// Without an explicit type, attempt structural parsing anyway:
			// plain equity symbols fall through canonicalization unchanged.
			assetType = models.AssetTypeOption
		}

		pos := &models.PositionSnapshot{
			Symbol:          symbol,
			CanonicalSymbol: symbols.Canonicalize(symbol, assetType),
			AssetType:       assetType,
			Quantity:        SanitizeCurrency(cols.get(record, "quantity")),
			Mark:            SanitizeCurrency(cols.get(record, "mark")),
		}
		if raw := cols.get(record, "pnl"); raw != "" {
			pnl := SanitizeCurrency(raw)
			pos.OpenPnl = &pnl
		}
		positions = append(positions, pos)
	}

	if len(positions) == 0 {
		return nil, fmt.Errorf("positions: %w", ErrNoValidRows)
	}
	return positions, nil
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV records: %w", err)
	}
	return header, records, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeAssetType(instrument string) string {
	switch {
	case strings.Contains(instrument, "FUTURE") && strings.Contains(instrument, "OPTION"):
		return models.AssetTypeFuturesOption
	case strings.Contains(instrument, "OPTION"):
		return models.AssetTypeOption
	case strings.Contains(instrument, "STOCK") || strings.Contains(instrument, "EQUITY"):
		return models.AssetTypeStock
	default:
		return ""
	}
}

// SanitizeCurrency converts a currency-formatted broker string into a signed
// decimal. Currency symbols, commas and quotes are stripped; parenthesized
// values are negative; anything unparseable sanitizes to zero.
func SanitizeCurrency(s string) decimal.Decimal {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, `"`)
	cleaned = strings.TrimSpace(cleaned)

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	cleaned = strings.NewReplacer("$", "", ",", "", " ", "").Replace(cleaned)
	if cleaned == "" || cleaned == "--" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return d.Neg()
	}
	return d
}
