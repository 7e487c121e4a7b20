// Package formatting renders consultation artifacts and metrics as plain
// text for the terminal.
package formatting

import (
	"fmt"
	"math"
	"strings"

	"github.com/embano1/consult-insights/internal/insights"
	"github.com/embano1/consult-insights/internal/types"
)

// FormatTranscriptWithSpeakers formats the transcript with speaker labels for better readability
func FormatTranscriptWithSpeakers(t types.Transcript) string {
	if len(t.Segments) == 0 {
		return t.Text
	}

	var formatted strings.Builder
	for i, seg := range t.Segments {
		// Add a new line for new speaker (except for the first speaker)
		if i > 0 {
			formatted.WriteString("\n\n")
		}
		fmt.Fprintf(&formatted, "[%s] %s: %s", Timestamp(seg.StartTime), insights.SpeakerName(seg.Speaker), seg.Text)
	}
	return formatted.String()
}

// Timestamp renders seconds as m:ss, or h:mm:ss past the hour.
func Timestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatSummary renders a summary as a bullet list.
func FormatSummary(s types.Summary) string {
	var b strings.Builder
	for _, p := range s.Points() {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	return b.String()
}

// FormatMetrics renders derived metrics as a report. Missing sections are
// reported as pending.
func FormatMetrics(m insights.DerivedMetrics) string {
	var b strings.Builder

	b.WriteString("Transcript\n")
	if tm := m.Transcript; tm != nil {
		fmt.Fprintf(&b, "  Duration:        %s\n", Timestamp(tm.Duration))
		fmt.Fprintf(&b, "  Words:           %d (%d wpm)\n", tm.WordCount, tm.SpeakingRate)
		fmt.Fprintf(&b, "  Confidence:      %.1f%%\n", tm.AverageConfidence*100)
		fmt.Fprintf(&b, "  Balance:         %s\n", tm.Balance.Message)
		for _, s := range tm.Speakers {
			fmt.Fprintf(&b, "  %-16s %5.1f%% (%s, %d words)\n", insights.SpeakerName(s.Speaker)+":", s.Percentage, Timestamp(s.TalkTime), s.WordCount)
		}
		if len(tm.KeyMoments) > 0 {
			b.WriteString("  Key moments:\n")
			for _, km := range tm.KeyMoments {
				fmt.Fprintf(&b, "    %s  %s\n", Timestamp(km.Time), km.Label)
			}
		}
		if n := len(tm.LowConfidence); n > 0 {
			fmt.Fprintf(&b, "  Uncertain words: %d\n", n)
		}
	} else {
		b.WriteString("  pending\n")
	}

	b.WriteString("Sentiment\n")
	if sm := m.Sentiment; sm != nil {
		fmt.Fprintf(&b, "  Overall:         %s\n", sm.Overall)
		p := sm.Percentages
		fmt.Fprintf(&b, "  Positive %.1f%%  Negative %.1f%%  Neutral %.1f%%  Mixed %.1f%%\n", p.Positive, p.Negative, p.Neutral, p.Mixed)
		for _, em := range sm.EmotionalMoments {
			fmt.Fprintf(&b, "    %s  %s (%.0f%%): %s\n", Timestamp(em.StartTime), em.Sentiment, em.Score*100, em.Text)
		}
	} else {
		b.WriteString("  pending\n")
	}

	return b.String()
}
