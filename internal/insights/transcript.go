// Package insights turns transcripts and sentiment analyses into the
// aggregate figures shown for a consultation. Every function is pure and
// total: degenerate input yields zero values, never an error.
package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/embano1/consult-insights/internal/types"
)

// SpeakerStat is the share of a conversation held by one speaker.
type SpeakerStat struct {
	Speaker    string  `json:"speaker"`
	TalkTime   float64 `json:"talkTime"`
	WordCount  int     `json:"wordCount"`
	Percentage float64 `json:"percentage"`
}

// LowConfidenceWord is a transcribed word the recognizer was unsure about.
type LowConfidenceWord struct {
	Text       string  `json:"text"`
	StartTime  float64 `json:"startTime"`
	Confidence float64 `json:"confidence"`
}

// Moment kinds.
const (
	MomentStart         = "start"
	MomentSpeakerChange = "speaker_change"
	MomentEnd           = "end"
)

// Moment is a labelled point in time of the conversation.
type Moment struct {
	Time    float64 `json:"time"`
	Kind    string  `json:"kind"`
	Label   string  `json:"label"`
	Speaker string  `json:"speaker,omitempty"`
}

const (
	maxMoments         = 8
	maxInteriorMoments = 6
)

// SortSegments returns a copy of segs ordered by start time. Segments with
// equal start times keep their relative order.
func SortSegments(segs []types.Segment) []types.Segment {
	out := make([]types.Segment, len(segs))
	copy(out, segs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

// Duration returns the end time of the last segment, or 0 without segments.
func Duration(segs []types.Segment) float64 {
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].EndTime
}

// WordCount counts whitespace separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// SpeakingRate returns words per minute, rounded. It is 0 for a zero duration.
func SpeakingRate(words int, seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(float64(words) / (seconds / 60)))
}

// SpeakerStats sums talk time and words per speaker. Percentages are relative
// to duration. The result is ordered by talk time, longest first.
func SpeakerStats(segs []types.Segment, duration float64) []SpeakerStat {
	byID := make(map[string]*SpeakerStat)
	var order []string
	for _, s := range segs {
		st, ok := byID[s.Speaker]
		if !ok {
			st = &SpeakerStat{Speaker: s.Speaker}
			byID[s.Speaker] = st
			order = append(order, s.Speaker)
		}
		if d := s.EndTime - s.StartTime; d > 0 {
			st.TalkTime += d
		}
		st.WordCount += WordCount(s.Text)
	}

	stats := make([]SpeakerStat, 0, len(order))
	for _, id := range order {
		st := byID[id]
		if duration > 0 {
			st.Percentage = st.TalkTime / duration * 100
		}
		stats = append(stats, *st)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TalkTime != stats[j].TalkTime {
			return stats[i].TalkTime > stats[j].TalkTime
		}
		return stats[i].Speaker < stats[j].Speaker
	})
	return stats
}

// AverageConfidence is the mean confidence over pronunciation words that
// report one, or 0 if none do.
func AverageConfidence(words []types.Word) float64 {
	var sum float64
	var n int
	for _, w := range words {
		if w.Type != types.ItemPronunciation || w.Confidence == nil {
			continue
		}
		sum += *w.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// LowConfidenceWords returns the pronunciation words with a confidence
// strictly below threshold.
func LowConfidenceWords(words []types.Word, threshold float64) []LowConfidenceWord {
	var low []LowConfidenceWord
	for _, w := range words {
		if w.Type != types.ItemPronunciation || w.Confidence == nil {
			continue
		}
		if *w.Confidence < threshold {
			low = append(low, LowConfidenceWord{
				Text:       w.Content,
				StartTime:  w.StartTime,
				Confidence: *w.Confidence,
			})
		}
	}
	return low
}

// KeyMoments marks the start, every change of speaker and the end of the
// conversation. Long lists are thinned to at most eight moments: start and
// end are kept and every n/6-th interior moment survives, up to six.
func KeyMoments(segs []types.Segment) []Moment {
	moments := []Moment{{Time: 0, Kind: MomentStart, Label: "Conversation start"}}

	prev := ""
	for i, s := range segs {
		if i > 0 && s.Speaker != prev {
			moments = append(moments, Moment{
				Time:    s.StartTime,
				Kind:    MomentSpeakerChange,
				Label:   SpeakerName(s.Speaker) + " speaks",
				Speaker: s.Speaker,
			})
		}
		prev = s.Speaker
	}
	moments = append(moments, Moment{Time: Duration(segs), Kind: MomentEnd, Label: "Conversation end"})

	if len(moments) <= maxMoments {
		return moments
	}

	interior := moments[1 : len(moments)-1]
	step := len(interior) / maxInteriorMoments
	thinned := make([]Moment, 0, maxMoments)
	thinned = append(thinned, moments[0])
	for i := 0; i < len(interior) && len(thinned) <= maxInteriorMoments; i += step {
		thinned = append(thinned, interior[i])
	}
	return append(thinned, moments[len(moments)-1])
}

// SpeakerName turns a diarization label like "spk_1" into "Speaker 1".
func SpeakerName(label string) string {
	if n, ok := strings.CutPrefix(label, "spk_"); ok {
		return fmt.Sprintf("Speaker %s", n)
	}
	if label == "" {
		return "Unknown speaker"
	}
	return label
}
