package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Poll.Interval != 5*time.Second {
		t.Errorf("expected 5s interval, got %s", cfg.Poll.Interval)
	}
	if cfg.Thresholds.LowConfidence != 0.8 || cfg.Thresholds.StrongSentiment != 0.7 {
		t.Errorf("unexpected thresholds %+v", cfg.Thresholds)
	}
	if !cfg.Poll.FailOnUnauthorized {
		t.Error("expected unauthorized errors to fail by default")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
bucket: consult-videos
region: eu-west-1
poll:
  interval: 2s
  max_attempts: 10
thresholds:
  low_confidence: 0.6
kafka:
  enabled: true
  brokers: ["localhost:9092"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BucketName != "consult-videos" || cfg.Region != "eu-west-1" {
		t.Errorf("unexpected bucket/region %q/%q", cfg.BucketName, cfg.Region)
	}
	if cfg.Poll.Interval != 2*time.Second || cfg.Poll.MaxAttempts != 10 {
		t.Errorf("unexpected poll config %+v", cfg.Poll)
	}
	if cfg.Thresholds.LowConfidence != 0.6 || cfg.Thresholds.StrongSentiment != 0.7 {
		t.Errorf("expected partial override of thresholds, got %+v", cfg.Thresholds)
	}
	if !cfg.Kafka.Enabled || cfg.Kafka.Topic != "consult.artifacts" {
		t.Errorf("unexpected kafka config %+v", cfg.Kafka)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bucket: from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONSULT_BUCKET", "from-env")
	t.Setenv("CONSULT_POLL_INTERVAL", "250ms")
	t.Setenv("CONSULT_KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BucketName != "from-env" {
		t.Errorf("expected env bucket, got %q", cfg.BucketName)
	}
	if cfg.Poll.Interval != 250*time.Millisecond {
		t.Errorf("unexpected interval %s", cfg.Poll.Interval)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("unexpected kafka config %+v", cfg.Kafka)
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("CONSULT_POLL_MAX_ATTEMPTS", "many")
	if _, err := Load(""); err == nil {
		t.Error("expected error for invalid integer")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.BucketName = "consult-videos"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.BucketName = "Invalid_Bucket"
	cfg.Thresholds.LowConfidence = 1.5
	cfg.Poll.Interval = 0
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid bucket name", "thresholds", "poll interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestValidateZeroThreshold(t *testing.T) {
	cfg := Defaults()
	cfg.BucketName = "consult-videos"
	cfg.Thresholds.StrongSentiment = 0
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "thresholds") {
		t.Errorf("expected zero threshold to be rejected, got %v", err)
	}

	cfg.Thresholds.StrongSentiment = 1
	if err := Validate(cfg); err != nil {
		t.Errorf("expected threshold of 1 to be valid, got %v", err)
	}
}

func TestValidateBucketName(t *testing.T) {
	tests := map[string]bool{
		"consult-videos": true,
		"a.b.c":          true,
		"ab":             false,
		"-leading":       false,
		"UPPER":          false,
	}
	for name, want := range tests {
		if got := validateBucketName(name); got != want {
			t.Errorf("validateBucketName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestPrintVersion(t *testing.T) {
	Version, Commit = "v1.2.3", "abcdef0123"
	t.Cleanup(func() { Version, Commit = "unknown", "unknown" })

	var buf bytes.Buffer
	PrintVersion(&buf)
	if buf.String() != "Version: v1.2.3\nCommit: abcdef0\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}
