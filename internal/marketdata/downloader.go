package marketdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	yfmodels "github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/multi"

	"QuantDeck/internal/model"
)

// Downloader fetches historical bars for a batch of symbols in one request.
// Per-symbol failures are reported in the second map; the error return is
// reserved for whole-batch failures.
type Downloader interface {
	Download(symbols []string) (map[string][]model.OHLCV, map[string]error, error)
	Name() string
}

// YahooDownloader implements Downloader over the Yahoo Finance bulk API.
type YahooDownloader struct {
	Period   string // "1y" or "2y"
	Interval string // "1d"
	log      zerolog.Logger
}

// NewYahooDownloader creates a downloader with the given lookback window.
func NewYahooDownloader(period, interval string, log zerolog.Logger) *YahooDownloader {
	return &YahooDownloader{
		Period:   period,
		Interval: interval,
		log:      log.With().Str("component", "yahoo").Logger(),
	}
}

func (d *YahooDownloader) Name() string { return "yahoo" }

// Download performs a single bulk request for all symbols.
func (d *YahooDownloader) Download(symbols []string) (map[string][]model.OHLCV, map[string]error, error) {
	if len(symbols) == 0 {
		return map[string][]model.OHLCV{}, map[string]error{}, nil
	}

	params := yfmodels.DefaultDownloadParams()
	params.Symbols = symbols
	params.Period = d.Period
	params.Interval = d.Interval

	result, err := multi.Download(symbols, &params)
	if err != nil {
		return nil, nil, fmt.Errorf("bulk download: %w", err)
	}

	series := make(map[string][]model.OHLCV, len(symbols))
	failures := make(map[string]error)

	for _, sym := range symbols {
		bars, ok := result.Data[sym]
		if !ok || len(bars) == 0 {
			if ferr, found := result.Errors[sym]; found {
				failures[sym] = ferr
			} else {
				failures[sym] = fmt.Errorf("symbol missing from bulk response")
			}
			continue
		}

		out := make([]model.OHLCV, 0, len(bars))
		for _, b := range bars {
			out = append(out, model.OHLCV{
				Time:   b.Date,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: float64(b.Volume),
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
		series[sym] = out
	}

	d.log.Debug().Int("requested", len(symbols)).Int("retained", len(series)).Msg("bulk download done")
	return series, failures, nil
}

// MockDownloader returns controllable fixed data for development and testing.
type MockDownloader struct {
	Series   map[string][]model.OHLCV
	Failures map[string]error
	Calls    int
}

func (m *MockDownloader) Name() string { return "mock" }

func (m *MockDownloader) Download(symbols []string) (map[string][]model.OHLCV, map[string]error, error) {
	m.Calls++
	series := make(map[string][]model.OHLCV, len(symbols))
	failures := make(map[string]error)
	for _, sym := range symbols {
		if err, ok := m.Failures[sym]; ok {
			failures[sym] = err
			continue
		}
		if bars, ok := m.Series[sym]; ok {
			series[sym] = bars
		} else {
			failures[sym] = fmt.Errorf("symbol missing from bulk response")
		}
	}
	return series, failures, nil
}

// GenerateBars builds a synthetic drifting series, oldest bar first.
func GenerateBars(basePrice float64, count int, driftPerBar float64) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i)*driftPerBar)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
