package model

import "time"

// ScanResult is the outcome of one portfolio scan for one symbol: the
// preset that was applied (locked or suggested), its evaluation, and the
// tier diagnosis.
type ScanResult struct {
	Symbol     string      `json:"symbol"`
	Preset     Preset      `json:"preset"`
	Locked     bool        `json:"locked"`
	Evaluation *Evaluation `json:"evaluation"`
	Diagnosis  Diagnosis   `json:"diagnosis"`
}

// Actionable reports whether the result deserves a notification: a
// non-neutral latest signal, or a diagnosis in the top two tiers.
func (r ScanResult) Actionable() bool {
	if r.Evaluation != nil && r.Evaluation.State == StateOK && r.Evaluation.Latest.Code != CodeNeutral {
		return true
	}
	return r.Diagnosis.State == StateOK && r.Diagnosis.Tier > 0 && r.Diagnosis.Tier <= 2
}

// ScanReport aggregates one full portfolio scan.
type ScanReport struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Requested  int            `json:"requested"`
	Retained   int            `json:"retained"`
	Macro      *MacroSnapshot `json:"macro,omitempty"`
	Results    []ScanResult   `json:"results"`
}

// Alerts returns the actionable subset of the scan results.
func (r *ScanReport) Alerts() []ScanResult {
	var out []ScanResult
	for _, res := range r.Results {
		if res.Actionable() {
			out = append(out, res)
		}
	}
	return out
}
