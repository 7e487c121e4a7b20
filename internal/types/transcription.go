package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Item types used by Transcribe.
const (
	ItemPronunciation = "pronunciation"
	ItemPunctuation   = "punctuation"
)

// DefaultSpeaker is assigned to items that carry no speaker label.
const DefaultSpeaker = "spk_0"

// TranscriptionResult represents the JSON structure returned by Transcribe.
type TranscriptionResult struct {
	JobName string `json:"jobName,omitempty"`
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		SpeakerLabels *SpeakerLabels `json:"speaker_labels,omitempty"`
		Items         []Item         `json:"items,omitempty"`
	} `json:"results"`
	Status string `json:"status"`
}

// SpeakerLabels contains speaker diarization information
type SpeakerLabels struct {
	Speakers int `json:"speakers"`
	Segments []struct {
		StartTime    string `json:"start_time"`
		EndTime      string `json:"end_time"`
		SpeakerLabel string `json:"speaker_label"`
		Items        []struct {
			StartTime    string `json:"start_time"`
			EndTime      string `json:"end_time"`
			SpeakerLabel string `json:"speaker_label"`
		} `json:"items"`
	} `json:"segments"`
}

// Item represents individual words/items in the transcription
type Item struct {
	StartTime    string        `json:"start_time,omitempty"`
	EndTime      string        `json:"end_time,omitempty"`
	Type         string        `json:"type"`
	Alternatives []Alternative `json:"alternatives"`
	SpeakerLabel string        `json:"speaker_label,omitempty"`
}

// Alternative represents word alternatives
type Alternative struct {
	Confidence string `json:"confidence"`
	Content    string `json:"content"`
}

// Transcript is the normalized form of a Transcribe result that the
// insight computations work on.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Words    []Word    `json:"words"`
}

// Segment is a run of speech by a single speaker. Times are in seconds.
type Segment struct {
	Speaker   string  `json:"speaker"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
}

// Word is a single transcribed item with numeric timing. Confidence is nil
// when Transcribe did not report one (punctuation, mostly).
type Word struct {
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	StartTime  float64  `json:"start_time"`
	EndTime    float64  `json:"end_time"`
	Confidence *float64 `json:"confidence,omitempty"`
	Speaker    string   `json:"speaker,omitempty"`
}

// FullText returns the first transcript alternative, or "" if there is none.
func (r *TranscriptionResult) FullText() string {
	if len(r.Results.Transcripts) == 0 {
		return ""
	}
	return r.Results.Transcripts[0].Transcript
}

// Normalize converts the raw Transcribe document into a Transcript. Segments
// are maximal runs of consecutive items with the same speaker label;
// punctuation is attached to the run it follows.
func (r *TranscriptionResult) Normalize() (Transcript, error) {
	t := Transcript{
		Text:  r.FullText(),
		Words: make([]Word, 0, len(r.Results.Items)),
	}

	var (
		cur     *Segment
		text    strings.Builder
		speaker string
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = text.String()
		t.Segments = append(t.Segments, *cur)
		cur = nil
		text.Reset()
	}

	for i, item := range r.Results.Items {
		w, err := item.word()
		if err != nil {
			return Transcript{}, fmt.Errorf("item %d: %w", i, err)
		}

		switch w.Type {
		case ItemPunctuation:
			// punctuation inherits the running speaker
			w.Speaker = speaker
			t.Words = append(t.Words, w)
			if cur != nil {
				text.WriteString(w.Content)
			}
			continue
		case ItemPronunciation:
		default:
			return Transcript{}, fmt.Errorf("item %d: unknown type %q", i, w.Type)
		}

		if w.Speaker == "" {
			w.Speaker = DefaultSpeaker
		}
		t.Words = append(t.Words, w)

		if cur == nil || w.Speaker != speaker {
			flush()
			speaker = w.Speaker
			cur = &Segment{Speaker: w.Speaker, StartTime: w.StartTime}
		} else {
			text.WriteString(" ")
		}
		text.WriteString(w.Content)
		cur.EndTime = w.EndTime
	}
	flush()

	if t.Text == "" && len(t.Segments) > 0 {
		parts := make([]string, len(t.Segments))
		for i, s := range t.Segments {
			parts[i] = s.Text
		}
		t.Text = strings.Join(parts, " ")
	}
	return t, nil
}

func (it Item) word() (Word, error) {
	w := Word{Type: it.Type, Speaker: it.SpeakerLabel}
	if len(it.Alternatives) > 0 {
		w.Content = it.Alternatives[0].Content
		if c := it.Alternatives[0].Confidence; c != "" {
			f, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return Word{}, fmt.Errorf("parse confidence %q: %w", c, err)
			}
			w.Confidence = &f
		}
	}

	var err error
	if w.StartTime, err = parseSeconds(it.StartTime); err != nil {
		return Word{}, fmt.Errorf("parse start_time: %w", err)
	}
	if w.EndTime, err = parseSeconds(it.EndTime); err != nil {
		return Word{}, fmt.Errorf("parse end_time: %w", err)
	}
	return w, nil
}

func parseSeconds(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
