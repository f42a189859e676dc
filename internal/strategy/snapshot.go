package strategy

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"QuantDeck/internal/model"
)

// Return windows in trading days.
const (
	window1M = 21
	window6M = 126
	window1Y = 252
)

// Snapshot computes the latest value of every indicator the diagnosis table
// reads. Indicators whose window exceeds the series length stay zero and
// the rules that read them do not fire.
func Snapshot(s *model.Series) (*model.IndicatorSnapshot, error) {
	n := s.Len()
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 bars, have %d", n)
	}

	closes := s.Closes()
	highs := s.Highs()
	lows := s.Lows()
	volumes := s.Volumes()

	snap := &model.IndicatorSnapshot{
		Close:     closes[n-1],
		PrevClose: closes[n-2],
		Volume:    volumes[n-1],
	}
	if snap.PrevClose != 0 {
		snap.DayChangePct = (snap.Close - snap.PrevClose) / snap.PrevClose * 100
	}

	if n >= 50 {
		sma := talib.Sma(closes, 50)
		snap.SMA50 = sma[n-1]
	}
	if n >= 200 {
		sma := talib.Sma(closes, 200)
		snap.SMA200 = sma[n-1]
	}
	if n >= 15 {
		rsi := rsiColumn(closes, 14)
		snap.RSI14 = rsi[n-1]

		atr := talib.Atr(highs, lows, closes, 14)
		snap.ATR14 = atr[n-1]

		mfi := talib.Mfi(highs, lows, closes, volumes, 14)
		snap.MFI14 = sanitizeOscillator(mfi[n-1])
	}
	if n >= 2*adxLength {
		adx := talib.Adx(highs, lows, closes, adxLength)
		snap.ADX14 = zeroNaN(adx[n-1])
	}
	if n >= 35 {
		_, _, hist := talib.Macd(closes, 12, 26, 9)
		snap.MACDHist = zeroNaN(hist[n-1])
		snap.PrevMACDHist = zeroNaN(hist[n-2])
	}
	if n >= 21 {
		upper, _, lower := talib.BBands(closes, 20, 2.0, 2.0, talib.SMA)
		snap.BBUpper = upper[n-1]
		snap.BBLower = lower[n-1]
		snap.AvgVolume20 = stat.Mean(volumes[n-20:], nil)
	}

	snap.Return1M = windowReturn(closes, window1M)
	snap.Return6M = windowReturn(closes, window6M)
	snap.Return1Y = windowReturn(closes, window1Y)

	return snap, nil
}

// windowReturn is the percent change over the past `days` bars, 0 when the
// series is too short for the window.
func windowReturn(closes []float64, days int) float64 {
	n := len(closes)
	if n <= days {
		return 0
	}
	base := closes[n-1-days]
	if base == 0 {
		return 0
	}
	return (closes[n-1] - base) / base * 100
}

// annualizedVolatility is the stddev of daily returns scaled to a year.
func annualizedVolatility(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(window1Y)
}

func sanitizeOscillator(v float64) float64 {
	if math.IsNaN(v) {
		return 50
	}
	return v
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
