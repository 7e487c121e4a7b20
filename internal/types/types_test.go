package types

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeWithoutSpeakerLabels(t *testing.T) {
	var r TranscriptionResult
	body := `{"results": {"items": [
		{"start_time": "0.1", "end_time": "0.4", "type": "pronunciation", "alternatives": [{"confidence": "0.9", "content": "Take"}]},
		{"start_time": "0.4", "end_time": "0.9", "type": "pronunciation", "alternatives": [{"confidence": "0.8", "content": "care"}]},
		{"type": "punctuation", "alternatives": [{"content": "!"}]}
	]}}`
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatal(err)
	}

	tr, err := r.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Segment{{Speaker: DefaultSpeaker, StartTime: 0.1, EndTime: 0.9, Text: "Take care!"}}
	if !reflect.DeepEqual(tr.Segments, want) {
		t.Errorf("got %+v, want %+v", tr.Segments, want)
	}
	if tr.Text != "Take care!" {
		t.Errorf("expected text rebuilt from segments, got %q", tr.Text)
	}
	if p := tr.Words[2]; p.Speaker != DefaultSpeaker || p.Confidence != nil {
		t.Errorf("unexpected punctuation word %+v", p)
	}
}

func TestNormalizeUnknownItemType(t *testing.T) {
	var r TranscriptionResult
	r.Results.Items = []Item{{Type: "silence"}}
	if _, err := r.Normalize(); err == nil {
		t.Error("expected error for unknown item type")
	}
}

func TestNormalizeEmpty(t *testing.T) {
	var r TranscriptionResult
	tr, err := r.Normalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Text != "" || len(tr.Segments) != 0 {
		t.Errorf("expected empty transcript, got %+v", tr)
	}
}

func TestSummaryPoints(t *testing.T) {
	tests := []struct {
		name string
		in   Summary
		want []string
	}{
		{"key points win", Summary{Text: "ignored", KeyPoints: []string{"a", "b"}}, []string{"a", "b"}},
		{"bullets", Summary{Text: "• first\n  - second  \n\n* third"}, []string{"first", "second", "third"}},
		{"empty", Summary{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Points(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDominant(t *testing.T) {
	tests := []struct {
		score SentimentScore
		label string
	}{
		{SentimentScore{Positive: 0.1, Negative: 0.7, Neutral: 0.2}, SentimentNegative},
		{SentimentScore{Mixed: 0.6, Neutral: 0.4}, SentimentMixed},
		{SentimentScore{Positive: 0.5, Neutral: 0.5}, SentimentPositive},
		{SentimentScore{}, SentimentPositive},
	}
	for _, tt := range tests {
		if got, _ := tt.score.Dominant(); got != tt.label {
			t.Errorf("Dominant(%+v) = %s, want %s", tt.score, got, tt.label)
		}
	}
}

func TestIsNeutral(t *testing.T) {
	if !IsNeutral("neutral") || !IsNeutral(SentimentNeutral) || IsNeutral(SentimentMixed) {
		t.Error("unexpected IsNeutral result")
	}
}
