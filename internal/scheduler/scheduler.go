// Package scheduler drives the periodic portfolio scan.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"QuantDeck/internal/scan"
)

// Scheduler runs the scan on a cron spec. Scans triggered over HTTP and by
// the cron share the same Runner, which serializes its own state.
type Scheduler struct {
	cron   *cron.Cron
	runner *scan.Runner
	ctx    context.Context
	log    zerolog.Logger
}

func New(ctx context.Context, runner *scan.Runner, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		runner: runner,
		ctx:    ctx,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the scan job. The spec uses the six-field form with seconds,
// e.g. "0 30 16 * * 1-5" for weekdays after the close.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.cron.AddFunc(scanCron, s.runScan); err != nil {
		return fmt.Errorf("register scan task %q: %w", scanCron, err)
	}
	return nil
}

// Start begins the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the scan immediately, used for run-on-start.
func (s *Scheduler) RunNow() {
	s.runScan()
}

func (s *Scheduler) runScan() {
	s.log.Info().Msg("running scheduled scan")
	if _, err := s.runner.Scan(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled scan failed")
	}
}
