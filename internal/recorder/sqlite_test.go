package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDeck/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "scans.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordScan_WritesHeaderAndResults(t *testing.T) {
	r := openTestRecorder(t)
	now := time.Now()

	report := &model.ScanReport{
		StartedAt:  now.Add(-5 * time.Second),
		FinishedAt: now,
		Requested:  3,
		Retained:   2,
		Macro:      &model.MacroSnapshot{VIX: 22.5, IndexClose: 5000, IndexMA200: 4800},
		Results: []model.ScanResult{
			{
				Symbol: "NVDA",
				Preset: model.PresetSMACross,
				Evaluation: &model.Evaluation{
					State:  model.StateOK,
					Latest: model.Signal{Code: model.CodeLong, Date: now, Text: "BUY (Golden Cross)"},
				},
				Diagnosis: model.Diagnosis{
					State: model.StateOK, Tier: 4, Label: "Routine",
					Regime: model.RegimeUp, Suggested: model.PresetSMACross, RiskScore: 42,
				},
			},
			{
				Symbol:    "MISSING",
				Preset:    model.PresetRSI,
				Diagnosis: model.Diagnosis{State: model.StateNoData, Label: "No Data"},
			},
		},
	}
	require.NoError(t, r.RecordScan(report))

	var requested, retained, alerts int
	var vix float64
	row := r.db.QueryRow(`SELECT requested, retained, alerts, vix FROM scans`)
	require.NoError(t, row.Scan(&requested, &retained, &alerts, &vix))
	assert.Equal(t, 3, requested)
	assert.Equal(t, 2, retained)
	assert.Equal(t, 1, alerts)
	assert.InDelta(t, 22.5, vix, 0.001)

	var count int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM scan_results`).Scan(&count))
	assert.Equal(t, 2, count)

	var text, tierLabel string
	var code int
	row = r.db.QueryRow(`SELECT signal_text, signal_code, tier_label FROM scan_results WHERE symbol = ?`, "NVDA")
	require.NoError(t, row.Scan(&text, &code, &tierLabel))
	assert.Equal(t, "BUY (Golden Cross)", text)
	assert.Equal(t, 1, code)
	assert.Equal(t, "Routine", tierLabel)

	var evalState string
	row = r.db.QueryRow(`SELECT eval_state FROM scan_results WHERE symbol = ?`, "MISSING")
	require.NoError(t, row.Scan(&evalState))
	assert.Equal(t, "", evalState, "no evaluation recorded for unresolvable symbols")
}

func TestRecordScan_SecondScanAppends(t *testing.T) {
	r := openTestRecorder(t)
	report := &model.ScanReport{FinishedAt: time.Now(), Requested: 1, Retained: 1}

	require.NoError(t, r.RecordScan(report))
	require.NoError(t, r.RecordScan(report))

	var count int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM scans`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestRecordNotification(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.RecordNotification("telegram", "scan done", nil))
	require.NoError(t, r.RecordNotification("telegram", "scan done", errors.New("boom")))

	var failures int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE error != ''`).Scan(&failures))
	assert.Equal(t, 1, failures)
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.db")

	r, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, r.Close())
}
