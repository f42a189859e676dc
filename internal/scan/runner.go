// Package scan orchestrates one full portfolio pass: resolve the holdings,
// refresh market data, evaluate every symbol, diagnose tiers, then notify
// and record.
package scan

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"QuantDeck/internal/lockstore"
	"QuantDeck/internal/marketdata"
	"QuantDeck/internal/model"
	"QuantDeck/internal/notifier"
	"QuantDeck/internal/portfolio"
	"QuantDeck/internal/recorder"
	"QuantDeck/internal/strategy"
)

// Runner owns the current portfolio and wires the pipeline stages together.
// The scheduler and the HTTP server share one Runner.
type Runner struct {
	mu        sync.RWMutex
	portfolio *model.Portfolio

	cache         *marketdata.Cache
	engine        *strategy.Engine
	locks         *lockstore.Store
	notify        notifier.Notifier
	rec           recorder.Recorder
	defaultPreset model.Preset
	log           zerolog.Logger
}

func NewRunner(
	cache *marketdata.Cache,
	engine *strategy.Engine,
	locks *lockstore.Store,
	notify notifier.Notifier,
	rec recorder.Recorder,
	defaultPreset model.Preset,
	log zerolog.Logger,
) *Runner {
	return &Runner{
		cache:         cache,
		engine:        engine,
		locks:         locks,
		notify:        notify,
		rec:           rec,
		defaultPreset: defaultPreset,
		log:           log.With().Str("component", "scan").Logger(),
	}
}

// LoadPortfolio parses a CSV export and replaces the current portfolio.
func (r *Runner) LoadPortfolio(reader io.Reader) (*model.Portfolio, error) {
	p, err := portfolio.Load(reader)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.portfolio = p
	r.mu.Unlock()
	r.log.Info().Int("holdings", len(p.Holdings)).Msg("portfolio loaded")
	return p, nil
}

// LoadPortfolioFile loads a CSV from disk, used for startup autoload.
func (r *Runner) LoadPortfolioFile(path string) (*model.Portfolio, error) {
	p, err := portfolio.LoadFile(path)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.portfolio = p
	r.mu.Unlock()
	r.log.Info().Str("path", path).Int("holdings", len(p.Holdings)).Msg("portfolio loaded")
	return p, nil
}

// Portfolio returns the currently loaded portfolio, or nil.
func (r *Runner) Portfolio() *model.Portfolio {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.portfolio
}

// Refresh re-downloads history for every portfolio symbol.
func (r *Runner) Refresh() (*marketdata.FetchReport, error) {
	p := r.Portfolio()
	if p == nil {
		return nil, fmt.Errorf("no portfolio loaded")
	}
	return r.cache.Refresh(p.Symbols())
}

// PresetFor returns the preset a symbol evaluates under: its lock when one
// is set, the configured default otherwise.
func (r *Runner) PresetFor(symbol string) (model.Preset, bool) {
	locked := r.locks.Locked(symbol)
	return r.locks.Get(symbol, r.defaultPreset), locked
}

// Evaluate runs one preset across the portfolio. An empty preset means
// per-symbol lock or default.
func (r *Runner) Evaluate(preset model.Preset) ([]model.ScanResult, error) {
	p := r.Portfolio()
	if p == nil {
		return nil, fmt.Errorf("no portfolio loaded")
	}

	macro := r.cache.Macro()
	results := make([]model.ScanResult, 0, len(p.Symbols()))
	for _, symbol := range p.Symbols() {
		chosen, locked := r.PresetFor(symbol)
		if preset != "" {
			chosen, locked = preset, false
		}

		series, _ := r.cache.Get(symbol)
		results = append(results, model.ScanResult{
			Symbol:     symbol,
			Preset:     chosen,
			Locked:     locked,
			Evaluation: r.engine.Apply(series, chosen, strategy.DefaultParams()),
			Diagnosis:  r.engine.Diagnose(series, macro),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Diagnosis.Tier != results[j].Diagnosis.Tier {
			return results[i].Diagnosis.Tier < results[j].Diagnosis.Tier
		}
		return results[i].Symbol < results[j].Symbol
	})
	return results, nil
}

// Scan is the full pipeline pass: refresh stale data, evaluate everything,
// notify when something is actionable, and record the outcome. Notification
// and recording failures are logged, never returned; the scan itself
// succeeded.
func (r *Runner) Scan(ctx context.Context) (*model.ScanReport, error) {
	started := time.Now()

	if r.cache.Stale() {
		if _, err := r.Refresh(); err != nil {
			return nil, fmt.Errorf("refresh market data: %w", err)
		}
	}

	results, err := r.Evaluate("")
	if err != nil {
		return nil, err
	}

	report := &model.ScanReport{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Macro:      r.cache.Macro(),
		Results:    results,
	}
	if fr := r.cache.LastReport(); fr != nil {
		report.Requested = fr.Requested
		report.Retained = fr.Retained
	}

	if len(report.Alerts()) > 0 {
		msg := notifier.FormatScanReport(report)
		sendErr := r.notify.SendWithRetry(ctx, msg, 3)
		if sendErr != nil {
			r.log.Error().Err(sendErr).Msg("notification failed")
		}
		if err := r.rec.RecordNotification("telegram", msg, sendErr); err != nil {
			r.log.Error().Err(err).Msg("record notification failed")
		}
	}

	if err := r.rec.RecordScan(report); err != nil {
		r.log.Error().Err(err).Msg("record scan failed")
	}

	r.log.Info().
		Int("symbols", len(results)).
		Int("alerts", len(report.Alerts())).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("scan complete")
	return report, nil
}
