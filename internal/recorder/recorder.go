// Package recorder persists scan history to SQLite for later analysis.
package recorder

import "QuantDeck/internal/model"

// Recorder persists scan outcomes. Writes happen on the scheduler
// goroutine; failures are logged by callers and never abort a scan.
type Recorder interface {
	RecordScan(report *model.ScanReport) error
	RecordNotification(channel, message string, sendErr error) error
	Close() error
}
