package model

import "time"

// Holding is one normalized row of the brokerage export.
type Holding struct {
	BrokerSymbol string  `json:"broker_symbol"`
	Symbol       string  `json:"symbol"` // resolved market-data symbol
	Name         string  `json:"name"`
	Exchange     string  `json:"exchange,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	Quantity     float64 `json:"quantity"`
	AvgCost      float64 `json:"avg_cost"`
}

// Portfolio is the Holding set for one load. It is replaced wholesale on
// re-load and never mutated row by row.
type Portfolio struct {
	Holdings []Holding `json:"holdings"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Symbols returns the deduplicated resolved symbols, in first-seen order.
func (p *Portfolio) Symbols() []string {
	seen := make(map[string]bool, len(p.Holdings))
	var out []string
	for _, h := range p.Holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			out = append(out, h.Symbol)
		}
	}
	return out
}

// BySymbol returns the first holding for a resolved symbol.
func (p *Portfolio) BySymbol(symbol string) (Holding, bool) {
	for _, h := range p.Holdings {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return Holding{}, false
}
