package types

import "strings"

// Sentiment labels as written by the analysis job.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
	SentimentMixed    = "MIXED"
)

// Analysis is the sentiment artifact produced for a consultation.
type Analysis struct {
	Sentiment      string             `json:"Sentiment"`
	SentimentScore SentimentScore     `json:"SentimentScore"`
	Segments       []SentimentSegment `json:"Segments"`
}

// SentimentScore is the four-way score distribution, each channel in [0,1].
type SentimentScore struct {
	Positive float64 `json:"Positive"`
	Negative float64 `json:"Negative"`
	Neutral  float64 `json:"Neutral"`
	Mixed    float64 `json:"Mixed"`
}

// SentimentSegment is the sentiment of one excerpt of the conversation.
type SentimentSegment struct {
	Text           string         `json:"Text"`
	Sentiment      string         `json:"Sentiment"`
	SentimentScore SentimentScore `json:"SentimentScore"`
	StartTime      float64        `json:"StartTime"`
	EndTime        float64        `json:"EndTime"`
}

// Dominant returns the label of the highest scoring channel and its score.
// Ties resolve in the order positive, negative, neutral, mixed.
func (s SentimentScore) Dominant() (string, float64) {
	label, score := SentimentPositive, s.Positive
	if s.Negative > score {
		label, score = SentimentNegative, s.Negative
	}
	if s.Neutral > score {
		label, score = SentimentNeutral, s.Neutral
	}
	if s.Mixed > score {
		label, score = SentimentMixed, s.Mixed
	}
	return label, score
}

// IsNeutral reports whether label names the neutral sentiment, ignoring case.
func IsNeutral(label string) bool {
	return strings.EqualFold(label, SentimentNeutral)
}
