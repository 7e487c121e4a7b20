package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/embano1/consult-insights/internal/types"
)

var errNotObject = errors.New("artifact is not a JSON object")

// DecodeTranscript decodes a Transcribe output document and normalizes it.
func DecodeTranscript(body []byte) (types.Transcript, error) {
	var result types.TranscriptionResult
	if err := decodeObject(body, &result); err != nil {
		return types.Transcript{}, err
	}
	t, err := result.Normalize()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("normalize transcript: %w", err)
	}
	return t, nil
}

// DecodeAnalysis decodes a sentiment analysis document.
func DecodeAnalysis(body []byte) (types.Analysis, error) {
	var a types.Analysis
	if err := decodeObject(body, &a); err != nil {
		return types.Analysis{}, err
	}
	return a, nil
}

// DecodeSummary decodes a summary document.
func DecodeSummary(body []byte) (types.Summary, error) {
	var s types.Summary
	if err := decodeObject(body, &s); err != nil {
		return types.Summary{}, err
	}
	return s, nil
}

func decodeObject(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errNotObject
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}
	return nil
}
