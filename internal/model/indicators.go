package model

// IndicatorSnapshot holds the latest value of every indicator the diagnosis
// table reads. All values refer to the final bar of the series they were
// computed from.
type IndicatorSnapshot struct {
	Close        float64 `json:"close"`
	PrevClose    float64 `json:"prev_close"`
	DayChangePct float64 `json:"day_change_pct"`
	SMA50        float64 `json:"sma_50"`
	SMA200       float64 `json:"sma_200"`
	RSI14        float64 `json:"rsi_14"`
	MACDHist     float64 `json:"macd_hist"`
	PrevMACDHist float64 `json:"prev_macd_hist"`
	ADX14        float64 `json:"adx_14"`
	MFI14        float64 `json:"mfi_14"`
	ATR14        float64 `json:"atr_14"`
	BBUpper      float64 `json:"bb_upper"`
	BBLower      float64 `json:"bb_lower"`
	Volume       float64 `json:"volume"`
	AvgVolume20  float64 `json:"avg_volume_20"`
	Return1M     float64 `json:"return_1m"` // ~21 trading days, percent
	Return6M     float64 `json:"return_6m"` // ~126 trading days, percent
	Return1Y     float64 `json:"return_1y"` // ~252 trading days, percent
}
