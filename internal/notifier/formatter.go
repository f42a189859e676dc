package notifier

import (
	"fmt"
	"strings"

	"QuantDeck/internal/model"
)

var tierEmoji = map[int]string{
	1: "🚨",
	2: "⚠️",
	3: "👀",
	4: "·",
}

// FormatScanReport renders a full portfolio scan into one Telegram message:
// macro context, the actionable symbols, and a coverage line.
func FormatScanReport(report *model.ScanReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>QuantDeck Scan</b> | %s\n\n", report.FinishedAt.Format("2006-01-02 15:04")))

	if m := report.Macro; m != nil {
		b.WriteString(fmt.Sprintf("VIX %.1f", m.VIX))
		if m.FearElevated() {
			b.WriteString(" 🔥")
		}
		if m.IndexMA200 > 0 {
			dev := (m.IndexClose - m.IndexMA200) / m.IndexMA200 * 100
			b.WriteString(fmt.Sprintf(" | Index vs MA200: %+.1f%%", dev))
		}
		if m.TenYearYield > 0 {
			b.WriteString(fmt.Sprintf(" | 10Y %.2f%%", m.TenYearYield))
		}
		b.WriteString("\n\n")
	}

	alerts := report.Alerts()
	if len(alerts) == 0 {
		b.WriteString("Nothing actionable. All positions routine.\n")
	} else {
		b.WriteString(fmt.Sprintf("<b>%d position(s) need attention:</b>\n", len(alerts)))
		for _, res := range alerts {
			b.WriteString(formatResultLine(res))
		}
	}

	b.WriteString(fmt.Sprintf("\nCoverage: %d/%d symbols with usable data", report.Retained, report.Requested))
	return b.String()
}

func formatResultLine(res model.ScanResult) string {
	var b strings.Builder

	emoji := tierEmoji[res.Diagnosis.Tier]
	if emoji == "" {
		emoji = "·"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b>", emoji, res.Symbol))
	if res.Locked {
		b.WriteString(" 🔒")
	}

	if eval := res.Evaluation; eval != nil && eval.State == model.StateOK {
		b.WriteString(fmt.Sprintf(" — %s [%s]", eval.Latest.Text, res.Preset))
	} else if eval != nil {
		b.WriteString(fmt.Sprintf(" — %s", eval.State))
	}
	b.WriteString("\n")

	if d := res.Diagnosis; d.State == model.StateOK && d.Tier > 0 && d.Tier <= 3 {
		b.WriteString(fmt.Sprintf("   T%d %s: %s → %s\n", d.Tier, d.Label, d.Reason, d.Action))
	}
	return b.String()
}
