package strategy

import (
	"fmt"
	"math"

	"QuantDeck/internal/model"
)

// tierRule is one branch of the diagnosis table. Rules are evaluated
// top-to-bottom over the precomputed snapshot; the first predicate that
// holds wins.
type tierRule struct {
	Tier   int
	Label  string
	Action string
	When   func(snap *model.IndicatorSnapshot, macro *model.MacroSnapshot) (bool, string)
}

var tierRules = []tierRule{
	{
		Tier: 1, Label: "Single-Day Shock", Action: "Review the position now",
		When: func(s *model.IndicatorSnapshot, _ *model.MacroSnapshot) (bool, string) {
			if math.Abs(s.DayChangePct) >= 8 {
				return true, fmt.Sprintf("moved %+.1f%% in one session", s.DayChangePct)
			}
			return false, ""
		},
	},
	{
		Tier: 1, Label: "Panic Regime", Action: "Reduce exposure",
		When: func(s *model.IndicatorSnapshot, m *model.MacroSnapshot) (bool, string) {
			if m.FearElevated() && s.SMA200 > 0 && s.Close < s.SMA200 {
				return true, "VIX elevated with price below the 200-day mean"
			}
			return false, ""
		},
	},
	{
		Tier: 2, Label: "200-Day Break", Action: "Tighten stops",
		When: func(s *model.IndicatorSnapshot, _ *model.MacroSnapshot) (bool, string) {
			if s.SMA200 > 0 && s.PrevClose >= s.SMA200 && s.Close < s.SMA200 {
				return true, "closed below the 200-day mean"
			}
			return false, ""
		},
	},
	{
		Tier: 2, Label: "Distribution Spike", Action: "Watch for follow-through selling",
		When: func(s *model.IndicatorSnapshot, _ *model.MacroSnapshot) (bool, string) {
			if s.AvgVolume20 > 0 && s.Volume > 2*s.AvgVolume20 && s.DayChangePct < 0 {
				return true, fmt.Sprintf("volume %.1fx the 20-day mean on a down day", s.Volume/s.AvgVolume20)
			}
			return false, ""
		},
	},
	{
		Tier: 2, Label: "Overbought Extreme", Action: "Consider trimming",
		When: func(s *model.IndicatorSnapshot, _ *model.MacroSnapshot) (bool, string) {
			if s.RSI14 >= 80 || s.MFI14 >= 85 {
				return true, fmt.Sprintf("RSI %.0f / MFI %.0f", s.RSI14, s.MFI14)
			}
			return false, ""
		},
	},
	{
		Tier: 3, Label: "Oversold Watch", Action: "Candidate for adding",
		When: func(s *model.IndicatorSnapshot, _ *model.MacroSnapshot) (bool, string) {
			if (s.RSI14 > 0 && s.RSI14 <= 25) || (s.MFI14 > 0 && s.MFI14 <= 15) {
				return true, fmt.Sprintf("RSI %.0f / MFI %.0f", s.RSI14, s.MFI14)
			}
			return false, ""
		},
	},
	{
		Tier: 3, Label: "Momentum Flip", Action: "Re-check the trend",
		When: func(s *model.IndicatorSnapshot, _ *model.MacroSnapshot) (bool, string) {
			if s.MACDHist != 0 && s.PrevMACDHist != 0 && (s.MACDHist > 0) != (s.PrevMACDHist > 0) {
				dir := "bearish"
				if s.MACDHist > 0 {
					dir = "bullish"
				}
				return true, "MACD histogram turned " + dir
			}
			return false, ""
		},
	},
	{
		Tier: 3, Label: "Macro Drag", Action: "Keep position sizes modest",
		When: func(s *model.IndicatorSnapshot, m *model.MacroSnapshot) (bool, string) {
			if m.IndexBearish() && s.SMA50 > 0 && s.Close < s.SMA50 {
				return true, "broad index below trend and price under the 50-day mean"
			}
			return false, ""
		},
	},
}

var catchAll = tierRule{Tier: 4, Label: "Routine", Action: "Hold and monitor"}

// computeSnapshot is swappable in tests.
var computeSnapshot = Snapshot

// Diagnose runs the tier decision table for one asset. A series shorter
// than minBars short-circuits to the insufficient-history state before any
// indicator is computed.
func (e *Engine) Diagnose(s *model.Series, macro *model.MacroSnapshot) (d model.Diagnosis) {
	d = model.Diagnosis{State: model.StateOK}
	if s == nil || s.Len() == 0 {
		d.State = model.StateNoData
		d.Label = "No Data"
		d.Action = "Check the symbol mapping"
		return d
	}
	d.Symbol = s.Symbol
	if s.Len() < e.MinBars {
		d.State = model.StateInsufficientHistory
		d.Label = "Insufficient History"
		d.Action = "Wait for more bars"
		return d
	}

	// Same failure mode as Apply: indicator math on hostile data can panic
	// inside the TA library, and Diagnose runs on the scheduler goroutine.
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Str("symbol", s.Symbol).Interface("panic", r).Msg("diagnosis computation failed")
			d = model.Diagnosis{
				Symbol: s.Symbol,
				State:  model.StateCalcError,
				Label:  "Indicator Error",
				Reason: fmt.Sprint(r),
			}
		}
	}()

	snap, err := computeSnapshot(s)
	if err != nil {
		d.State = model.StateCalcError
		d.Label = "Indicator Error"
		d.Reason = err.Error()
		return d
	}

	d.Regime = classifyRegime(snap)
	d.Suggested = recommendPreset(d.Regime)
	d.RiskScore = riskScore(s, snap)

	for _, rule := range tierRules {
		if ok, reason := rule.When(snap, macro); ok {
			d.Tier = rule.Tier
			d.Label = rule.Label
			d.Action = rule.Action
			d.Reason = reason
			return d
		}
	}
	d.Tier = catchAll.Tier
	d.Label = catchAll.Label
	d.Action = catchAll.Action
	return d
}

// riskScore blends annualized volatility with the ATR share of price into a
// 0..100 scale.
func riskScore(s *model.Series, snap *model.IndicatorSnapshot) float64 {
	vol := annualizedVolatility(s.Closes())
	atrPct := 0.0
	if snap.Close > 0 {
		atrPct = snap.ATR14 / snap.Close * 100
	}
	score := vol*100 + atrPct*5
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
