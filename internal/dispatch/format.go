package dispatch

import (
	"fmt"
	"strings"

	"github.com/dyprodg/callpulse/internal/history"
	"github.com/dyprodg/callpulse/internal/types"
)

// FormatReport renders the daily KPI report message.
func FormatReport(kpis types.KPISnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📞 Call report %s\n\n", kpis.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total calls: %d\n", kpis.TotalCalls)
	fmt.Fprintf(&b, "Answered: %d\n", kpis.Answered)
	fmt.Fprintf(&b, "Abandoned: %d\n", kpis.Abandoned)
	fmt.Fprintf(&b, "Retained in IVR: %d\n", kpis.RetainedInIVR)
	if kpis.Other > 0 {
		fmt.Fprintf(&b, "Other: %d\n", kpis.Other)
	}
	fmt.Fprintf(&b, "Average wait: %s\n", formatSeconds(kpis.AverageWaitSeconds))
	if kpis.PeakHour != nil {
		fmt.Fprintf(&b, "Peak hour: %s (%d calls)\n", kpis.PeakHour.HourLabel, kpis.PeakHour.Count)
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatComparison renders the historical-comparison follow-up message.
func FormatComparison(cmp *types.Comparison) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Compared to the last %d days\n\n", cmp.History.DaysUsed)
	writeLevelLine(&b, "Total", cmp.Levels.Total)
	writeLevelLine(&b, "Answered", cmp.Levels.Answered)
	writeLevelLine(&b, "Abandoned", cmp.Levels.Abandoned)
	writeLevelLine(&b, "Retained in IVR", cmp.Levels.RetainedInIVR)
	if cmp.Summary != "" {
		fmt.Fprintf(&b, "\n%s", cmp.Summary)
	}

	return b.String()
}

func writeLevelLine(b *strings.Builder, label string, c types.Classification) {
	if !c.Defined {
		fmt.Fprintf(b, "%s: %d (no baseline)\n", label, c.Current)
		return
	}
	fmt.Fprintf(b, "%s %s: %d vs avg %d (%d%%, %s)\n",
		c.Indicator, label, c.Current, c.Mean, c.Ratio, history.LevelLabel(c.Level))
}

func formatSeconds(seconds float64) string {
	total := int(seconds)
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm%02ds", total/60, total%60)
}
