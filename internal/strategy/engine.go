// Package strategy evaluates presets against cached price series and runs
// the diagnosis decision table.
package strategy

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"QuantDeck/internal/model"
)

const adxLength = 14

// Engine applies presets to series. Evaluation is a pure function of the
// series snapshot; the engine only carries configuration.
type Engine struct {
	ADXThreshold float64 // trend-strength gate for crossover presets
	MinBars      int
	log          zerolog.Logger
}

// NewEngine creates an evaluator with the given crossover gate threshold.
func NewEngine(adxThreshold float64, minBars int, log zerolog.Logger) *Engine {
	return &Engine{
		ADXThreshold: adxThreshold,
		MinBars:      minBars,
		log:          log.With().Str("component", "strategy").Logger(),
	}
}

// Apply attaches indicator columns and per-bar signal codes for one preset,
// and derives the latest non-neutral signal. Failures degrade the single
// evaluation instead of propagating: the caller always gets a usable state.
func (e *Engine) Apply(s *model.Series, preset model.Preset, p Params) (eval *model.Evaluation) {
	p = p.withDefaults()
	eval = &model.Evaluation{
		Preset:  preset,
		State:   model.StateOK,
		Columns: make(map[string][]float64),
	}
	if s == nil || s.Len() == 0 {
		eval.State = model.StateNoData
		return eval
	}
	eval.Symbol = s.Symbol

	if s.Len() < e.MinBars || s.Len() < minHistory(preset, p) {
		eval.State = model.StateInsufficientHistory
		return eval
	}

	// Indicator math on hostile data (zero volumes, single-price series) can
	// blow up inside the TA library; degrade to a sentinel state per asset.
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Str("symbol", s.Symbol).Interface("panic", r).Msg("indicator computation failed")
			eval.State = model.StateCalcError
			eval.Codes = nil
			eval.Latest = model.Signal{}
		}
	}()

	switch preset {
	case model.PresetSMACross:
		e.applyCrossover(s, p, eval, false)
	case model.PresetSMAReversal:
		e.applyCrossover(s, p, eval, true)
	case model.PresetRSI:
		e.applyRSI(s, p, eval)
	case model.PresetBollinger:
		e.applyBollinger(s, p, eval)
	default:
		eval.State = model.StateCalcError
	}
	return eval
}

// applyCrossover computes the dual-SMA columns and marks crossover bars.
// A crossover only counts while the ADX trend-strength gate is open;
// sideways markets produce crossings that are noise, not signals.
// Reversal inverts every code the plain crossover would emit.
func (e *Engine) applyCrossover(s *model.Series, p Params, eval *model.Evaluation, invert bool) {
	closes := s.Closes()
	smaS := talib.Sma(closes, p.ShortWindow)
	smaL := talib.Sma(closes, p.LongWindow)
	adx := talib.Adx(s.Highs(), s.Lows(), closes, adxLength)

	eval.Columns["SMA_S"] = smaS
	eval.Columns["SMA_L"] = smaL
	eval.Columns["ADX"] = adx

	codes := make([]model.Code, len(closes))
	for i := p.LongWindow; i < len(closes); i++ {
		prevS, prevL := smaS[i-1], smaL[i-1]
		currS, currL := smaS[i], smaL[i]
		if prevS == 0 || prevL == 0 {
			continue
		}

		var code model.Code
		switch {
		case prevS < prevL && currS > currL:
			code = model.CodeLong
		case prevS > prevL && currS < currL:
			code = model.CodeShort
		default:
			continue
		}
		if !(adx[i] >= e.ADXThreshold) { // NaN-safe: NaN fails the gate
			continue
		}
		if invert {
			code = -code
		}
		codes[i] = code
	}
	eval.Codes = codes
	eval.Latest = latestCrossoverSignal(s, eval, invert, smaS, smaL)
}

func latestCrossoverSignal(s *model.Series, eval *model.Evaluation, invert bool, smaS, smaL []float64) model.Signal {
	if i, ok := lastNonNeutral(eval.Codes); ok {
		code := eval.Codes[i]
		var text string
		switch {
		case code == model.CodeLong && !invert:
			text = "BUY (Golden Cross)"
		case code == model.CodeShort && !invert:
			text = "SELL (Death Cross)"
		case code == model.CodeLong:
			text = "BUY (Cross Reversal)"
		default:
			text = "SELL (Cross Reversal)"
		}
		return model.Signal{Code: code, Date: s.Bars[i].Time, Text: text}
	}

	// No gated crossover in the window: report the standing trend.
	last := len(smaS) - 1
	bullish := smaS[last] > smaL[last]
	text := "AVOID (Bearish)"
	if bullish {
		text = "HOLD (Bullish)"
	}
	if invert {
		if bullish {
			text = "AVOID (Extended)"
		} else {
			text = "HOLD (Basing)"
		}
	}
	return model.Signal{Code: model.CodeNeutral, Date: s.LastTime(), Text: text}
}

func (e *Engine) applyRSI(s *model.Series, p Params, eval *model.Evaluation) {
	closes := s.Closes()
	rsi := rsiColumn(closes, p.RSILength)
	eval.Columns["RSI"] = rsi

	codes := make([]model.Code, len(closes))
	for i := p.RSILength; i < len(closes); i++ {
		switch {
		case rsi[i] < p.RSILower:
			codes[i] = model.CodeLong
		case rsi[i] > p.RSIUpper:
			codes[i] = model.CodeShort
		}
	}
	eval.Codes = codes

	if i, ok := lastNonNeutral(codes); ok {
		text := fmt.Sprintf("SELL (Overbought %.0f)", rsi[i])
		if codes[i] == model.CodeLong {
			text = fmt.Sprintf("BUY (Oversold %.0f)", rsi[i])
		}
		eval.Latest = model.Signal{Code: codes[i], Date: s.Bars[i].Time, Text: text}
		return
	}
	eval.Latest = model.Signal{
		Code: model.CodeNeutral,
		Date: s.LastTime(),
		Text: fmt.Sprintf("Neutral (%.0f)", rsi[len(rsi)-1]),
	}
}

func (e *Engine) applyBollinger(s *model.Series, p Params, eval *model.Evaluation) {
	closes := s.Closes()
	upper, middle, lower := talib.BBands(closes, p.BBLength, p.BBStdDev, p.BBStdDev, talib.SMA)
	eval.Columns["BB_U"] = upper
	eval.Columns["BB_M"] = middle
	eval.Columns["BB_L"] = lower

	codes := make([]model.Code, len(closes))
	for i := p.BBLength; i < len(closes); i++ {
		switch {
		case closes[i] < lower[i]:
			codes[i] = model.CodeLong
		case closes[i] > upper[i]:
			codes[i] = model.CodeShort
		}
	}
	eval.Codes = codes

	if i, ok := lastNonNeutral(codes); ok {
		text := "SELL (Above Upper Band)"
		if codes[i] == model.CodeLong {
			text = "BUY (Below Lower Band)"
		}
		eval.Latest = model.Signal{Code: codes[i], Date: s.Bars[i].Time, Text: text}
		return
	}
	eval.Latest = model.Signal{Code: model.CodeNeutral, Date: s.LastTime(), Text: "HOLD (Inside Bands)"}
}

// minHistory returns the bar count a preset needs before its longest window
// produces a value.
func minHistory(preset model.Preset, p Params) int {
	switch preset {
	case model.PresetSMACross, model.PresetSMAReversal:
		n := p.LongWindow + 1
		if a := 2 * adxLength; a > n {
			n = a
		}
		return n
	case model.PresetRSI:
		return p.RSILength + 1
	case model.PresetBollinger:
		return p.BBLength + 1
	default:
		return 1
	}
}

func lastNonNeutral(codes []model.Code) (int, bool) {
	for i := len(codes) - 1; i >= 0; i-- {
		if codes[i] != model.CodeNeutral {
			return i, true
		}
	}
	return 0, false
}

// rsiColumn wraps the library RSI. A series with no price movement has no
// gains and no losses; the 0/0 ratio must read as the midpoint, not as
// overbought.
func rsiColumn(closes []float64, length int) []float64 {
	rsi := talib.Rsi(closes, length)
	flat := true
	for i := 1; i < len(closes); i++ {
		if closes[i] != closes[0] {
			flat = false
			break
		}
	}
	for i := range rsi {
		if flat || math.IsNaN(rsi[i]) {
			if i >= length {
				rsi[i] = 50
			} else {
				rsi[i] = 0
			}
		}
	}
	return rsi
}
