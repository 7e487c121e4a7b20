package insights

import "github.com/embano1/consult-insights/internal/types"

// Default thresholds. They were tuned for Transcribe and Comprehend scores.
const (
	DefaultLowConfidence   = 0.8
	DefaultStrongSentiment = 0.7
)

// Thresholds tunes which words count as uncertain and which excerpts as
// emotionally strong.
type Thresholds struct {
	LowConfidence   float64
	StrongSentiment float64
}

// DefaultThresholds returns the default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowConfidence:   DefaultLowConfidence,
		StrongSentiment: DefaultStrongSentiment,
	}
}

// TranscriptMetrics are derived from a transcript.
type TranscriptMetrics struct {
	Duration          float64             `json:"duration"`
	WordCount         int                 `json:"wordCount"`
	SpeakingRate      int                 `json:"speakingRate"`
	Speakers          []SpeakerStat       `json:"speakers"`
	Balance           Balance             `json:"balance"`
	AverageConfidence float64             `json:"averageConfidence"`
	LowConfidence     []LowConfidenceWord `json:"lowConfidence"`
	KeyMoments        []Moment            `json:"keyMoments"`
}

// SentimentMetrics are derived from a sentiment analysis.
type SentimentMetrics struct {
	Overall          string            `json:"overall"`
	Percentages      Percentages       `json:"percentages"`
	EmotionalMoments []EmotionalMoment `json:"emotionalMoments"`
}

// DerivedMetrics is everything shown for a consultation. A section is nil
// when its artifact is not available yet.
type DerivedMetrics struct {
	Transcript *TranscriptMetrics `json:"transcript,omitempty"`
	Sentiment  *SentimentMetrics  `json:"sentiment,omitempty"`
}

// Compute derives all metrics. Segments are sorted by start time first, so
// out of order input is tolerated. Either argument may be nil.
func Compute(t *types.Transcript, a *types.Analysis, th Thresholds) DerivedMetrics {
	var m DerivedMetrics
	if t != nil {
		tm := ComputeTranscript(*t, th)
		m.Transcript = &tm
	}
	if a != nil {
		sm := ComputeSentiment(*a, th)
		m.Sentiment = &sm
	}
	return m
}

// ComputeTranscript derives the transcript metrics.
func ComputeTranscript(t types.Transcript, th Thresholds) TranscriptMetrics {
	segs := SortSegments(t.Segments)
	duration := Duration(segs)

	words := WordCount(t.Text)
	if words == 0 {
		for _, s := range segs {
			words += WordCount(s.Text)
		}
	}

	speakers := SpeakerStats(segs, duration)
	return TranscriptMetrics{
		Duration:          duration,
		WordCount:         words,
		SpeakingRate:      SpeakingRate(words, duration),
		Speakers:          speakers,
		Balance:           ConversationBalance(speakers),
		AverageConfidence: AverageConfidence(t.Words),
		LowConfidence:     LowConfidenceWords(t.Words, th.LowConfidence),
		KeyMoments:        KeyMoments(segs),
	}
}

// ComputeSentiment derives the sentiment metrics.
func ComputeSentiment(a types.Analysis, th Thresholds) SentimentMetrics {
	overall := a.Sentiment
	if overall == "" {
		overall, _ = a.SentimentScore.Dominant()
	}
	return SentimentMetrics{
		Overall:          overall,
		Percentages:      SentimentPercentages(a.SentimentScore),
		EmotionalMoments: KeyEmotionalMoments(a.Segments, th.StrongSentiment),
	}
}
