// Package marketdata maintains the in-memory store of historical price
// series, refreshed wholesale from a bulk Downloader.
package marketdata

import (
	"fmt"
	"sync"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"QuantDeck/internal/model"
)

// MacroSymbols names the market-wide context series fetched alongside the
// portfolio: broad index, fear gauge, ten-year yield.
type MacroSymbols struct {
	Index string
	VIX   string
	Yield string
}

// FetchReport summarizes a refresh: partial failures skip symbols instead of
// aborting the batch, so success is a ratio, not a boolean.
type FetchReport struct {
	Requested int               `json:"requested"`
	Retained  int               `json:"retained"`
	Skipped   map[string]string `json:"skipped,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Ratio returns retained/requested, 0 when nothing was requested.
func (r *FetchReport) Ratio() float64 {
	if r.Requested == 0 {
		return 0
	}
	return float64(r.Retained) / float64(r.Requested)
}

// Cache is the keyed store of per-symbol series. Each Refresh replaces the
// whole map; there is no incremental merge.
type Cache struct {
	mu         sync.RWMutex
	downloader Downloader
	macroSyms  MacroSymbols
	extra      []string
	minBars    int
	ttl        time.Duration
	log        zerolog.Logger

	series     map[string]*model.Series
	macro      *model.MacroSnapshot
	lastReport *FetchReport
}

// NewCache creates an empty cache over the given downloader. Extra symbols
// are a watchlist fetched with every refresh on top of the portfolio.
func NewCache(d Downloader, macro MacroSymbols, extra []string, minBars int, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		downloader: d,
		macroSyms:  macro,
		extra:      extra,
		minBars:    minBars,
		ttl:        ttl,
		log:        log.With().Str("component", "marketdata").Logger(),
		series:     make(map[string]*model.Series),
	}
}

// Refresh bulk-fetches the given symbols plus the watchlist and macro set,
// then replaces the cache contents. Symbols whose series are missing,
// all-empty, or shorter than the minimum bar count are skipped and reported,
// not fatal. Watchlist and macro symbols are cached but do not count toward
// the report; only the caller's symbols do.
func (c *Cache) Refresh(symbols []string) (*FetchReport, error) {
	request := append([]string{}, symbols...)
	for _, x := range c.extra {
		if x != "" && !contains(request, x) {
			request = append(request, x)
		}
	}
	for _, m := range []string{c.macroSyms.Index, c.macroSyms.VIX, c.macroSyms.Yield} {
		if m != "" && !contains(request, m) {
			request = append(request, m)
		}
	}

	raw, failures, err := c.downloader.Download(request)
	if err != nil {
		return nil, fmt.Errorf("refresh market data: %w", err)
	}

	now := time.Now()
	report := &FetchReport{
		Requested: len(symbols),
		Skipped:   make(map[string]string),
		FetchedAt: now,
	}

	fresh := make(map[string]*model.Series, len(raw))
	for sym, bars := range raw {
		cleaned := dropEmptyBars(bars)
		if len(cleaned) < c.minBars {
			if contains(symbols, sym) {
				report.Skipped[sym] = fmt.Sprintf("only %d bars, need %d", len(cleaned), c.minBars)
			}
			continue
		}
		fresh[sym] = &model.Series{Symbol: sym, Bars: cleaned, FetchedAt: now}
		if contains(symbols, sym) {
			report.Retained++
		}
	}
	for sym, ferr := range failures {
		if contains(symbols, sym) {
			report.Skipped[sym] = ferr.Error()
		} else {
			c.log.Warn().Str("symbol", sym).Err(ferr).Msg("context symbol unavailable")
		}
	}

	macro := buildMacroSnapshot(fresh, c.macroSyms, now)

	c.mu.Lock()
	c.series = fresh
	c.macro = macro
	c.lastReport = report
	c.mu.Unlock()

	c.log.Info().
		Int("requested", report.Requested).
		Int("retained", report.Retained).
		Float64("ratio", report.Ratio()).
		Msg("market data refreshed")
	return report, nil
}

// Get returns the cached series for a symbol.
func (c *Cache) Get(symbol string) (*model.Series, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.series[symbol]
	return s, ok
}

// Macro returns the market-wide context snapshot from the last refresh, or
// nil when none is available.
func (c *Cache) Macro() *model.MacroSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.macro
}

// LastReport returns the report of the most recent refresh, or nil.
func (c *Cache) LastReport() *FetchReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastReport
}

// Stale reports whether the cache has never been filled or has outlived its
// TTL.
func (c *Cache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastReport == nil {
		return true
	}
	return time.Since(c.lastReport.FetchedAt) > c.ttl
}

func dropEmptyBars(bars []model.OHLCV) []model.OHLCV {
	out := bars[:0:0]
	for _, b := range bars {
		if !b.Empty() {
			out = append(out, b)
		}
	}
	return out
}

func buildMacroSnapshot(series map[string]*model.Series, syms MacroSymbols, now time.Time) *model.MacroSnapshot {
	snap := &model.MacroSnapshot{FetchedAt: now}
	found := false

	if s, ok := series[syms.VIX]; ok {
		snap.VIX = s.LastClose()
		found = true
	}
	if s, ok := series[syms.Yield]; ok {
		snap.TenYearYield = s.LastClose()
		found = true
	}
	if s, ok := series[syms.Index]; ok {
		snap.IndexClose = s.LastClose()
		closes := s.Closes()
		if len(closes) >= 200 {
			ma := talib.Sma(closes, 200)
			snap.IndexMA200 = ma[len(ma)-1]
		}
		found = true
	}

	if !found {
		return nil
	}
	return snap
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
