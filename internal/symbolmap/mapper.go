// Package symbolmap resolves brokerage ticker metadata into Yahoo Finance
// symbol strings. Resolution is a pure function over an ordered rule list;
// the order is part of the contract.
package symbolmap

import "strings"

// override fixes known naming collisions between broker tickers and Yahoo
// symbols. Excluding on the display name keeps the real equity (e.g. Barrick
// Gold trades as GOLD on NYSE) out of the commodity mapping.
type override struct {
	Symbol      string
	ExcludeName string // skip the override when the display name contains this
	Target      string
}

var overrides = []override{
	{Symbol: "GOLD", ExcludeName: "BARRICK", Target: "GC=F"},
	{Symbol: "SILVER", Target: "SI=F"},
}

// Crypto assets the brokerage exports without an exchange label.
var cryptoSymbols = map[string]bool{
	"BTC": true, "ETH": true, "SOL": true, "ADA": true, "DOGE": true,
	"DOT": true, "LTC": true, "XRP": true, "AVAX": true, "LINK": true,
}

var yahooSuffixes = []string{".TO", ".NE", ".V", ".CN", ".US", ".T", ".AT", ".L"}

// Resolve maps (broker symbol, exchange label, display name, currency) to a
// Yahoo Finance symbol. First matching rule wins.
func Resolve(symbol, exchange, name, currency string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	exch := strings.ToUpper(strings.TrimSpace(exchange))
	dispName := strings.ToUpper(strings.TrimSpace(name))
	curr := strings.ToUpper(strings.TrimSpace(currency))

	// 1. Manual overrides.
	for _, o := range overrides {
		if sym != o.Symbol {
			continue
		}
		if o.ExcludeName != "" && strings.Contains(dispName, o.ExcludeName) {
			continue
		}
		return o.Target
	}

	// 2. Already in Yahoo format: pass through.
	if inYahooFormat(sym) {
		return sym
	}

	// 3. Exchange / name rules. CDRs list on Cboe Canada regardless of the
	// exchange column, so the name check comes first.
	if strings.Contains(dispName, "CDR") {
		return normalizeBase(sym) + ".NE"
	}
	if strings.Contains(exch, "TSX") || strings.Contains(exch, "TORONTO") {
		return normalizeBase(sym) + ".TO"
	}
	if strings.Contains(exch, "CBOE") || strings.Contains(exch, "NEO") {
		return normalizeBase(sym) + ".NE"
	}

	// 4. Currency fallback for unlabeled Canadian listings.
	if curr == "CAD" {
		return normalizeBase(sym) + ".TO"
	}

	// 5. Crypto allow-list, only when the exchange column is blank.
	if exch == "" && cryptoSymbols[sym] {
		return sym + "-USD"
	}

	// 6. Assume native US listing.
	return sym
}

// inYahooFormat reports whether the symbol already carries a recognized
// Yahoo suffix or prefix.
func inYahooFormat(sym string) bool {
	if strings.HasPrefix(sym, "^") {
		return true
	}
	if strings.Contains(sym, "=F") || strings.Contains(sym, "=X") {
		return true
	}
	if strings.HasSuffix(sym, "-USD") || strings.HasSuffix(sym, "-CAD") {
		return true
	}
	for _, suf := range yahooSuffixes {
		if strings.HasSuffix(sym, suf) {
			return true
		}
	}
	return false
}

// normalizeBase applies Yahoo's punctuation convention: class shares use
// hyphens, not periods (BRK.B -> BRK-B).
func normalizeBase(sym string) string {
	return strings.ReplaceAll(sym, ".", "-")
}

// IsInvalid reports whether a resolved symbol is the serialized form of a
// missing value. Spreadsheet exports render blank cells as "nan", which
// would otherwise survive mapping as "NAN" or "NAN-USD".
func IsInvalid(resolved string) bool {
	if strings.TrimSpace(resolved) == "" {
		return true
	}
	for _, tok := range strings.FieldsFunc(resolved, func(r rune) bool {
		return r == '.' || r == '-' || r == '=' || r == '^'
	}) {
		if strings.EqualFold(tok, "nan") || strings.EqualFold(tok, "null") {
			return true
		}
	}
	return false
}
