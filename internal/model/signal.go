package model

import "time"

// Preset names a signal-generation rule. The set is closed; per-symbol
// overrides come from the lock store.
type Preset string

const (
	PresetSMACross    Preset = "SMA Cross"
	PresetSMAReversal Preset = "SMA Reversal"
	PresetRSI         Preset = "RSI"
	PresetBollinger   Preset = "Bollinger"
)

// Presets lists every known preset.
var Presets = []Preset{PresetSMACross, PresetSMAReversal, PresetRSI, PresetBollinger}

// ParsePreset returns the preset matching name, or false.
func ParsePreset(name string) (Preset, bool) {
	for _, p := range Presets {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// Code is the discrete per-bar signal value.
type Code int

const (
	CodeShort   Code = -1
	CodeNeutral Code = 0
	CodeLong    Code = 1
)

// EvalState classifies the outcome of evaluating one asset, so callers can
// tell "no data" from "not enough history" from "indicator failure".
type EvalState string

const (
	StateOK                  EvalState = "OK"
	StateNoData              EvalState = "NO_DATA"
	StateInsufficientHistory EvalState = "INSUFFICIENT_HISTORY"
	StateCalcError           EvalState = "CALC_ERROR"
)

// Signal is the current status of one asset under one preset: the most
// recent non-neutral bar, which is not necessarily the last bar.
type Signal struct {
	Code Code      `json:"code"`
	Date time.Time `json:"date"`
	Text string    `json:"text"`
}

// Evaluation is the full result of applying a preset to one series.
// Columns hold per-bar indicator values aligned with the series bars.
type Evaluation struct {
	Symbol  string               `json:"symbol"`
	Preset  Preset               `json:"preset"`
	State   EvalState            `json:"state"`
	Codes   []Code               `json:"-"`
	Columns map[string][]float64 `json:"-"`
	Latest  Signal               `json:"latest"`
}

// Regime buckets recent performance into qualitative labels.
type Regime string

const (
	RegimeStrongUp   Regime = "STRONG_UP"
	RegimeUp         Regime = "UP"
	RegimeFlat       Regime = "FLAT"
	RegimeDown       Regime = "DOWN"
	RegimeStrongDown Regime = "STRONG_DOWN"
)

// Diagnosis is the per-asset output of the tier decision table.
type Diagnosis struct {
	Symbol    string    `json:"symbol"`
	State     EvalState `json:"state"`
	Tier      int       `json:"tier"` // 1 (urgent) .. 4 (routine)
	Label     string    `json:"label"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason"`
	Regime    Regime    `json:"regime"`
	Suggested Preset    `json:"suggested_preset"`
	RiskScore float64   `json:"risk_score"` // 0..100, ATR and volatility driven
}
