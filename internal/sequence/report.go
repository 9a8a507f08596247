package sequence

import (
	"fmt"
	"strings"
)

// FormatReport returns a human-readable transition analysis for a sequenced
// ordering: one line per transition with keys, tempos, energies and cost,
// followed by an average and any tracks with unknown attributes.
func FormatReport(ordered []Track, report Report) string {
	var sb strings.Builder

	if len(ordered) == 0 {
		sb.WriteString("No tracks to sequence.\n")
		return sb.String()
	}

	trackWord := "track"
	if len(ordered) > 1 {
		trackWord = "tracks"
	}
	sb.WriteString(fmt.Sprintf("Sequenced %d %s\n", len(ordered), trackWord))

	if len(report.Transitions) == 0 {
		sb.WriteString("No transitions to analyze.\n")
	}

	for i, tr := range report.Transitions {
		sb.WriteString("\n")
		sb.WriteString(formatTransition(i+1, tr))
	}

	if len(report.Transitions) > 0 {
		sb.WriteString(fmt.Sprintf("\nAverage transition cost: %.2f (%d transitions)\n",
			report.AverageCost, len(report.Transitions)))
	}

	if len(report.Unknown) > 0 {
		sb.WriteString(fmt.Sprintf("\n%d with unknown attributes, placed with fallback cost:\n", len(report.Unknown)))
		for _, t := range report.Unknown {
			sb.WriteString(fmt.Sprintf("  • %q - %s\n", t.Title, t.Artist))
		}
	}

	return sb.String()
}

// formatTransition formats a single transition as two lines: the pair of
// tracks and the attribute breakdown with the composite cost.
func formatTransition(num int, tr Transition) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%d. %q - %s -> %q - %s\n",
		num, tr.From.Title, tr.From.Artist, tr.To.Title, tr.To.Artist))

	if tr.MissingData {
		sb.WriteString("   unknown attributes, fallback cost ")
		sb.WriteString(fmt.Sprintf("%.2f\n", tr.Cost))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("   key %s -> %s  tempo %.0f -> %.0f BPM  energy %.1f -> %.1f  cost %.2f\n",
		tr.From.Key, tr.To.Key,
		*tr.From.BPM, *tr.To.BPM,
		*tr.From.Energy, *tr.To.Energy,
		tr.Cost))

	return sb.String()
}
