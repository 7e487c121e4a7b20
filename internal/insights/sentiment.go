package insights

import (
	"math"
	"sort"

	"github.com/embano1/consult-insights/internal/types"
)

// Percentages is a sentiment distribution in percent with one decimal.
// Channels are rounded independently and need not add up to exactly 100.
type Percentages struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Mixed    float64 `json:"mixed"`
}

// EmotionalMoment is an excerpt with a strong, non-neutral sentiment.
type EmotionalMoment struct {
	Text      string  `json:"text"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

// SentimentPercentages converts scores in [0,1] to percentages.
func SentimentPercentages(s types.SentimentScore) Percentages {
	return Percentages{
		Positive: percent(s.Positive),
		Negative: percent(s.Negative),
		Neutral:  percent(s.Neutral),
		Mixed:    percent(s.Mixed),
	}
}

func percent(v float64) float64 {
	return math.Round(v*1000) / 10
}

// KeyEmotionalMoments returns the segments whose dominant score exceeds
// threshold and whose label is not neutral, ordered by start time.
func KeyEmotionalMoments(segs []types.SentimentSegment, threshold float64) []EmotionalMoment {
	var moments []EmotionalMoment
	for _, s := range segs {
		if types.IsNeutral(s.Sentiment) {
			continue
		}
		_, score := s.SentimentScore.Dominant()
		if score <= threshold {
			continue
		}
		moments = append(moments, EmotionalMoment{
			Text:      s.Text,
			Sentiment: s.Sentiment,
			Score:     score,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		})
	}
	sort.SliceStable(moments, func(i, j int) bool { return moments[i].StartTime < moments[j].StartTime })
	return moments
}
