package scan

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantDeck/internal/lockstore"
	"QuantDeck/internal/marketdata"
	"QuantDeck/internal/model"
	"QuantDeck/internal/recorder"
	"QuantDeck/internal/strategy"
)

const testCSV = `Symbol,Name,Exchange,Currency,Quantity,Book Value (Market)
AAPL,Apple Inc,NASDAQ,USD,10,1500
ENB,Enbridge Inc,TSX,CAD,20,1000
`

type captureNotifier struct {
	messages []string
}

func (c *captureNotifier) Send(_ context.Context, text string) error {
	c.messages = append(c.messages, text)
	return nil
}

func (c *captureNotifier) SendWithRetry(ctx context.Context, text string, _ int) error {
	return c.Send(ctx, text)
}

func newTestRunner(t *testing.T, mock *marketdata.MockDownloader) (*Runner, *captureNotifier) {
	t.Helper()
	cache := marketdata.NewCache(mock, marketdata.MacroSymbols{}, nil, 30, time.Hour, zerolog.Nop())
	engine := strategy.NewEngine(25, 30, zerolog.Nop())
	locks := lockstore.New(filepath.Join(t.TempDir(), "locks.json"), zerolog.Nop())
	capture := &captureNotifier{}
	r := NewRunner(cache, engine, locks, capture, recorder.NewNoopRecorder(), model.PresetSMACross, zerolog.Nop())
	return r, capture
}

func TestRunner_LoadPortfolioReplacesCurrent(t *testing.T) {
	r, _ := newTestRunner(t, &marketdata.MockDownloader{})

	require.Nil(t, r.Portfolio())
	p, err := r.LoadPortfolio(strings.NewReader(testCSV))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "ENB.TO"}, p.Symbols())

	second := "Symbol,Quantity\nNVDA,5\n"
	_, err = r.LoadPortfolio(strings.NewReader(second))
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, r.Portfolio().Symbols())
}

func TestRunner_RefreshRequiresPortfolio(t *testing.T) {
	r, _ := newTestRunner(t, &marketdata.MockDownloader{})

	_, err := r.Refresh()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no portfolio loaded")
}

func TestRunner_PresetForHonorsLocks(t *testing.T) {
	r, _ := newTestRunner(t, &marketdata.MockDownloader{})

	preset, locked := r.PresetFor("AAPL")
	assert.Equal(t, model.PresetSMACross, preset)
	assert.False(t, locked)

	require.NoError(t, r.locks.Set("AAPL", model.PresetRSI))
	preset, locked = r.PresetFor("AAPL")
	assert.Equal(t, model.PresetRSI, preset)
	assert.True(t, locked)
}

func TestRunner_EvaluateMarksMissingData(t *testing.T) {
	mock := &marketdata.MockDownloader{
		Series: map[string][]model.OHLCV{
			"AAPL": marketdata.GenerateBars(100, 120, 0),
		},
	}
	r, _ := newTestRunner(t, mock)
	_, err := r.LoadPortfolio(strings.NewReader(testCSV))
	require.NoError(t, err)
	_, err = r.Refresh()
	require.NoError(t, err)

	results, err := r.Evaluate("")
	require.NoError(t, err)
	require.Len(t, results, 2)

	bySymbol := map[string]model.ScanResult{}
	for _, res := range results {
		bySymbol[res.Symbol] = res
	}
	assert.Equal(t, model.StateOK, bySymbol["AAPL"].Evaluation.State)
	assert.Equal(t, model.StateNoData, bySymbol["ENB.TO"].Evaluation.State)
	assert.Equal(t, model.StateNoData, bySymbol["ENB.TO"].Diagnosis.State)
}

func TestRunner_EvaluatePresetOverrideIgnoresLocks(t *testing.T) {
	mock := &marketdata.MockDownloader{
		Series: map[string][]model.OHLCV{
			"AAPL":   marketdata.GenerateBars(100, 120, 0),
			"ENB.TO": marketdata.GenerateBars(50, 120, 0),
		},
	}
	r, _ := newTestRunner(t, mock)
	_, err := r.LoadPortfolio(strings.NewReader(testCSV))
	require.NoError(t, err)
	_, err = r.Refresh()
	require.NoError(t, err)
	require.NoError(t, r.locks.Set("AAPL", model.PresetRSI))

	results, err := r.Evaluate(model.PresetBollinger)
	require.NoError(t, err)
	for _, res := range results {
		assert.Equal(t, model.PresetBollinger, res.Preset)
		assert.False(t, res.Locked)
	}
}

func TestRunner_ScanNotifiesOnlyWhenActionable(t *testing.T) {
	// Flat series: neutral signals, routine tiers, nothing to say.
	mock := &marketdata.MockDownloader{
		Series: map[string][]model.OHLCV{
			"AAPL":   marketdata.GenerateBars(100, 120, 0),
			"ENB.TO": marketdata.GenerateBars(50, 120, 0),
		},
	}
	r, capture := newTestRunner(t, mock)
	_, err := r.LoadPortfolio(strings.NewReader(testCSV))
	require.NoError(t, err)

	report, err := r.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Alerts())
	assert.Empty(t, capture.messages)
	assert.Equal(t, 2, report.Requested)
	assert.Equal(t, 2, report.Retained)
}

func TestRunner_ScanAlertsOnShock(t *testing.T) {
	bars := marketdata.GenerateBars(100, 120, 0)
	last := &bars[len(bars)-1]
	last.Close *= 1.15 // double-digit single-day move
	last.High = last.Close * 1.01

	mock := &marketdata.MockDownloader{
		Series: map[string][]model.OHLCV{
			"AAPL":   bars,
			"ENB.TO": marketdata.GenerateBars(50, 120, 0),
		},
	}
	r, capture := newTestRunner(t, mock)
	_, err := r.LoadPortfolio(strings.NewReader(testCSV))
	require.NoError(t, err)

	report, err := r.Scan(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.Alerts())
	require.Len(t, capture.messages, 1)
	assert.Contains(t, capture.messages[0], "AAPL")
	assert.Contains(t, capture.messages[0], "Single-Day Shock")
}

func TestRunner_ScanUsesCachedDataWhenFresh(t *testing.T) {
	mock := &marketdata.MockDownloader{
		Series: map[string][]model.OHLCV{
			"AAPL":   marketdata.GenerateBars(100, 120, 0),
			"ENB.TO": marketdata.GenerateBars(50, 120, 0),
		},
	}
	r, _ := newTestRunner(t, mock)
	_, err := r.LoadPortfolio(strings.NewReader(testCSV))
	require.NoError(t, err)

	_, err = r.Scan(context.Background())
	require.NoError(t, err)
	_, err = r.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Calls, "second scan inside the TTL must not re-download")
}
