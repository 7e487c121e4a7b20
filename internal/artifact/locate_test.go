package artifact

import (
	"strings"
	"testing"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		key  string
		kind Kind
		want string
	}{
		{"a/b/123-name.mp4", Transcript, "transcript/123-name.json"},
		{"a/b/123-name.mp4", Analysis, "analysis/123-name.json"},
		{"a/b/123-name.mp4", Summary, "summaries/123-name.json"},
		{"visit.final.mov", Transcript, "transcript/visit.final.json"},
		{"videos/noext", Summary, "summaries/noext.json"},
		{"", Transcript, "transcript/.json"},
		{"dir/", Analysis, "analysis/.json"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.kind.String(), func(t *testing.T) {
			got := Locate(tt.key, tt.kind)
			if got != tt.want {
				t.Errorf("Locate(%q, %v) = %q, want %q", tt.key, tt.kind, got, tt.want)
			}
			if again := Locate(tt.key, tt.kind); again != got {
				t.Errorf("Locate not deterministic: %q then %q", got, again)
			}
		})
	}
}

func TestLocateAll(t *testing.T) {
	locs := LocateAll("videos/abc.mp4")
	if len(locs) != 3 {
		t.Fatalf("expected 3 locations, got %d", len(locs))
	}
	if locs[Summary] != "summaries/abc.json" {
		t.Errorf("unexpected summary location %q", locs[Summary])
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"transcript": Transcript,
		"Analysis":   Analysis,
		"summary":    Summary,
		"summaries":  Summary,
	} {
		got, err := ParseKind(in)
		if err != nil {
			t.Errorf("ParseKind(%q): unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseKind("video"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestVideoKey(t *testing.T) {
	a, err := VideoKey("videos", "/tmp/my visit.mp4", strings.NewReader("same content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := VideoKey("videos/", "my visit.mp4", strings.NewReader("same content"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Errorf("expected stable key, got %q and %q", a, b)
	}
	if !strings.HasPrefix(a, "videos/") || !strings.HasSuffix(a, "-my_visit.mp4") || len(a) != len("videos/")+16+len("-my_visit.mp4") {
		t.Errorf("unexpected key %q", a)
	}
	if got := Locate(a, Transcript); got != "transcript/"+strings.TrimSuffix(strings.TrimPrefix(a, "videos/"), ".mp4")+".json" {
		t.Errorf("unexpected transcript location %q", got)
	}
}
