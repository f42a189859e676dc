package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Empty reports whether every price field of the bar is zero. Bulk downloads
// emit such bars for holidays and half-sessions.
func (b OHLCV) Empty() bool {
	return b.Open == 0 && b.High == 0 && b.Low == 0 && b.Close == 0
}

// Series holds the cached historical bars for one resolved symbol.
type Series struct {
	Symbol    string
	Bars      []OHLCV
	FetchedAt time.Time
}

func (s *Series) Len() int { return len(s.Bars) }

// LastClose returns the most recent closing price, or 0 for an empty series.
func (s *Series) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}

// LastTime returns the date of the most recent bar.
func (s *Series) LastTime() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Time
}

func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// MacroSnapshot captures the market-wide context symbols at fetch time.
// It feeds the macro branches of the diagnosis table.
type MacroSnapshot struct {
	VIX          float64
	IndexClose   float64
	IndexMA200   float64
	TenYearYield float64
	FetchedAt    time.Time
}

// FearElevated reports whether the volatility gauge is in its stress zone.
func (m *MacroSnapshot) FearElevated() bool {
	return m != nil && m.VIX >= 25
}

// IndexBearish reports whether the broad index trades below its 200-day mean.
func (m *MacroSnapshot) IndexBearish() bool {
	return m != nil && m.IndexMA200 > 0 && m.IndexClose < m.IndexMA200
}
