// Package portfolio parses brokerage CSV exports into the normalized
// Holding set the rest of the pipeline works from.
package portfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"QuantDeck/internal/model"
	"QuantDeck/internal/symbolmap"
)

// Column names as they appear in the Wealthsimple export. Matching is done
// on whitespace-trimmed header cells; unknown columns are ignored.
const (
	colSymbol    = "Symbol"
	colName      = "Name"
	colExchange  = "Exchange"
	colCurrency  = "Currency"
	colQuantity  = "Quantity"
	colBookValue = "Book Value (Market)"
)

// Load parses a CSV export into a Portfolio. It returns an error with a
// human-readable reason when the input is unusable as a whole (empty file,
// missing Symbol column, zero valid rows); defective individual rows are
// skipped silently.
func Load(r io.Reader) (*model.Portfolio, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // exports pad rows inconsistently
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("portfolio file is empty")
	}

	cols := headerIndex(records[0])
	symIdx, ok := cols[colSymbol]
	if !ok {
		return nil, fmt.Errorf("missing required column %q", colSymbol)
	}
	_, hasQty := cols[colQuantity]
	col := func(name string) int {
		if i, ok := cols[name]; ok {
			return i
		}
		return -1
	}

	p := &model.Portfolio{LoadedAt: time.Now()}
	for _, rec := range records[1:] {
		sym := strings.TrimSpace(field(rec, symIdx))
		if sym == "" || strings.EqualFold(sym, "nan") {
			continue
		}

		name := strings.TrimSpace(field(rec, col(colName)))
		exchange := strings.TrimSpace(field(rec, col(colExchange)))
		currency := strings.TrimSpace(field(rec, col(colCurrency)))

		quantity := parseFloat(field(rec, col(colQuantity)))
		if hasQty && quantity <= 0 {
			continue
		}

		avgCost := 0.0
		if bookVal := parseFloat(field(rec, col(colBookValue))); bookVal > 0 && quantity > 0 {
			avgCost = bookVal / quantity
		}

		resolved := symbolmap.Resolve(sym, exchange, name, currency)
		if symbolmap.IsInvalid(resolved) {
			continue
		}

		p.Holdings = append(p.Holdings, model.Holding{
			BrokerSymbol: sym,
			Symbol:       resolved,
			Name:         name,
			Exchange:     exchange,
			Currency:     currency,
			Quantity:     quantity,
			AvgCost:      avgCost,
		})
	}

	if len(p.Holdings) == 0 {
		return nil, fmt.Errorf("no usable rows in portfolio file")
	}
	return p, nil
}

// LoadFile is Load over a file path.
func LoadFile(path string) (*model.Portfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open portfolio file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// field returns the cell at i, tolerating short rows and absent columns
// (index -1).
func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func parseFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "$")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
