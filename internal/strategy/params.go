package strategy

// Params holds the tunables for every preset. Zero fields are filled from
// the defaults, so callers can set only what they care about.
type Params struct {
	ShortWindow int     `json:"short_window"` // fast SMA
	LongWindow  int     `json:"long_window"`  // slow SMA
	RSILength   int     `json:"rsi_length"`
	RSILower    float64 `json:"rsi_lower"`
	RSIUpper    float64 `json:"rsi_upper"`
	BBLength    int     `json:"bb_length"`
	BBStdDev    float64 `json:"bb_std_dev"`
}

// DefaultParams returns the stock tunables shared by every preset.
func DefaultParams() Params {
	return Params{
		ShortWindow: 10,
		LongWindow:  50,
		RSILength:   14,
		RSILower:    30,
		RSIUpper:    70,
		BBLength:    20,
		BBStdDev:    2.0,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.ShortWindow <= 0 {
		p.ShortWindow = d.ShortWindow
	}
	if p.LongWindow <= 0 {
		p.LongWindow = d.LongWindow
	}
	if p.RSILength <= 0 {
		p.RSILength = d.RSILength
	}
	if p.RSILower <= 0 {
		p.RSILower = d.RSILower
	}
	if p.RSIUpper <= 0 {
		p.RSIUpper = d.RSIUpper
	}
	if p.BBLength <= 0 {
		p.BBLength = d.BBLength
	}
	if p.BBStdDev <= 0 {
		p.BBStdDev = d.BBStdDev
	}
	return p
}
