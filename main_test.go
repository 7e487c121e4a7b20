package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLocateCommand(t *testing.T) {
	out, err := execute(t, "locate", "videos/1a2b-visit.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"transcript: transcript/1a2b-visit.json",
		"analysis:  analysis/1a2b-visit.json",
		"summary:   summaries/1a2b-visit.json",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "Version: ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	t.Setenv("CONSULT_BUCKET", "from-env")
	if _, err := execute(t, "locate", "--bucket", "from-flag", "--interval", "2s", "--fail-on-unauthorized=false", "a.mp4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appCfg.BucketName != "from-flag" {
		t.Errorf("expected flag to win, got %q", appCfg.BucketName)
	}
	if appCfg.Poll.Interval != 2*time.Second || appCfg.Poll.FailOnUnauthorized {
		t.Errorf("unexpected poll config %+v", appCfg.Poll)
	}
}

func TestWatchRejectsUnknownKind(t *testing.T) {
	if _, err := execute(t, "watch", "--kinds", "video", "a.mp4"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
