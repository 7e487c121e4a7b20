package types

import "strings"

// Summary is the summary artifact produced for a consultation.
type Summary struct {
	Text      string   `json:"summary"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// Points returns the key points of the summary. When the job did not emit
// any, the summary text is split into non-empty lines with list markers
// removed.
func (s Summary) Points() []string {
	if len(s.KeyPoints) > 0 {
		return s.KeyPoints
	}

	var points []string
	for _, line := range strings.Split(s.Text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		line = strings.TrimSpace(line)
		if line != "" {
			points = append(points, line)
		}
	}
	return points
}
