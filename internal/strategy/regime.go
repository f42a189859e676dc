package strategy

import "QuantDeck/internal/model"

// Regime buckets recent performance by fixed percentage thresholds on a
// weighted blend of the 1-month, 6-month, and 1-year returns. Recent moves
// dominate: the blend weights are 0.5 / 0.3 / 0.2.
func classifyRegime(snap *model.IndicatorSnapshot) model.Regime {
	composite := 0.5*snap.Return1M + 0.3*snap.Return6M + 0.2*snap.Return1Y

	switch {
	case composite >= 15:
		return model.RegimeStrongUp
	case composite >= 4:
		return model.RegimeUp
	case composite > -4:
		return model.RegimeFlat
	case composite > -15:
		return model.RegimeDown
	default:
		return model.RegimeStrongDown
	}
}

// recommendPreset maps a regime to the preset that suits it: ride trends,
// range-trade chop, buy washouts, fade rallies in a collapse.
func recommendPreset(regime model.Regime) model.Preset {
	switch regime {
	case model.RegimeStrongUp, model.RegimeUp:
		return model.PresetSMACross
	case model.RegimeFlat:
		return model.PresetBollinger
	case model.RegimeDown:
		return model.PresetRSI
	default:
		return model.PresetSMAReversal
	}
}
