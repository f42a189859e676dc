package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"QuantDeck/internal/model"
)

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc reads of the history file don't block scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			requested      INTEGER,
			retained       INTEGER,
			alerts         INTEGER,
			vix            REAL,
			index_close    REAL,
			index_ma200    REAL,
			ten_year_yield REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_ts ON scans(timestamp)`,

		`CREATE TABLE IF NOT EXISTS scan_results (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id     INTEGER NOT NULL REFERENCES scans(id),
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			preset      TEXT,
			locked      INTEGER,
			eval_state  TEXT,
			signal_code INTEGER,
			signal_text TEXT,
			signal_date INTEGER,
			tier        INTEGER,
			tier_label  TEXT,
			reason      TEXT,
			action      TEXT,
			regime      TEXT,
			suggested   TEXT,
			risk_score  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_symbol ON scan_results(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			channel   TEXT,
			message   TEXT,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_ts ON notifications(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan writes the scan header row plus one row per symbol result.
func (r *SQLiteRecorder) RecordScan(report *model.ScanReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var vix, indexClose, indexMA200, yield float64
	if m := report.Macro; m != nil {
		vix, indexClose, indexMA200, yield = m.VIX, m.IndexClose, m.IndexMA200, m.TenYearYield
	}

	res, err := tx.Exec(`INSERT INTO scans
		(timestamp, requested, retained, alerts, vix, index_close, index_ma200, ten_year_yield)
		VALUES (?,?,?,?,?,?,?,?)`,
		report.FinishedAt.Unix(), report.Requested, report.Retained, len(report.Alerts()),
		vix, indexClose, indexMA200, yield,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("scan id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO scan_results
		(scan_id, timestamp, symbol, preset, locked, eval_state,
		 signal_code, signal_text, signal_date,
		 tier, tier_label, reason, action, regime, suggested, risk_score)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer stmt.Close()

	for _, result := range report.Results {
		var evalState string
		var code int
		var text string
		var signalDate int64
		if eval := result.Evaluation; eval != nil {
			evalState = string(eval.State)
			code = int(eval.Latest.Code)
			text = eval.Latest.Text
			if !eval.Latest.Date.IsZero() {
				signalDate = eval.Latest.Date.Unix()
			}
		}
		d := result.Diagnosis
		if _, err := stmt.Exec(
			scanID, report.FinishedAt.Unix(), result.Symbol, string(result.Preset), result.Locked,
			evalState, code, text, signalDate,
			d.Tier, d.Label, d.Reason, d.Action, string(d.Regime), string(d.Suggested), d.RiskScore,
		); err != nil {
			return fmt.Errorf("insert result %s: %w", result.Symbol, err)
		}
	}

	return tx.Commit()
}

// RecordNotification logs every outbound message attempt, failed or not.
func (r *SQLiteRecorder) RecordNotification(channel, message string, sendErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errText := ""
	if sendErr != nil {
		errText = sendErr.Error()
	}
	_, err := r.db.Exec(`INSERT INTO notifications (timestamp, channel, message, error)
		VALUES (?,?,?,?)`,
		time.Now().Unix(), channel, message, errText,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
