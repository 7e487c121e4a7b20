package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/embano1/consult-insights/internal/types"
)

// build info set by goreleaser
var (
	Version = "unknown"
	Commit  = "unknown"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONSULT_"

var bucketNameRE = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Defaults returns the built-in configuration.
func Defaults() *types.AppConfig {
	return &types.AppConfig{
		Region:             "us-east-1",
		VideoPrefix:        "videos/",
		LanguageCode:       "en-US",
		SpeakerDiarization: true,
		MaxSpeakers:        2,
		Poll: types.PollConfig{
			Interval:           5 * time.Second,
			MaxDuration:        30 * time.Minute,
			BackoffMultiplier:  1,
			MaxInterval:        time.Minute,
			FailOnUnauthorized: true,
		},
		Thresholds: types.ThresholdConfig{
			LowConfidence:   0.8,
			StrongSentiment: 0.7,
		},
		Server: types.ServerConfig{
			Addr:          ":8080",
			PresignExpiry: 15 * time.Minute,
			MaxWait:       30 * time.Second,
			MaxWatches:    64,
		},
		Kafka: types.KafkaConfig{
			Topic: "consult.artifacts",
		},
		Log: types.LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load assembles the configuration from defaults, the optional YAML file at
// path and CONSULT_* environment variables, in that order. The result is
// not validated, as command-line flags may still override it.
func Load(path string) (*types.AppConfig, error) {
	cfg := Defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *types.AppConfig) error {
	cfg.BucketName = envOrDefault("BUCKET", cfg.BucketName)
	cfg.Region = envOrDefault("REGION", cfg.Region)
	cfg.VideoPrefix = envOrDefault("VIDEO_PREFIX", cfg.VideoPrefix)
	cfg.LanguageCode = envOrDefault("LANGUAGE_CODE", cfg.LanguageCode)
	cfg.Server.Addr = envOrDefault("ADDR", cfg.Server.Addr)
	cfg.Kafka.Topic = envOrDefault("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Log.Level = envOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("LOG_FORMAT", cfg.Log.Format)

	if v := os.Getenv(EnvPrefix + "KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
		cfg.Kafka.Enabled = true
	}

	var err error
	if cfg.Poll.Interval, err = envDuration("POLL_INTERVAL", cfg.Poll.Interval); err != nil {
		return err
	}
	if cfg.Poll.MaxDuration, err = envDuration("POLL_MAX_DURATION", cfg.Poll.MaxDuration); err != nil {
		return err
	}
	if cfg.Poll.MaxAttempts, err = envInt("POLL_MAX_ATTEMPTS", cfg.Poll.MaxAttempts); err != nil {
		return err
	}
	if cfg.Thresholds.LowConfidence, err = envFloat("LOW_CONFIDENCE", cfg.Thresholds.LowConfidence); err != nil {
		return err
	}
	if cfg.Thresholds.StrongSentiment, err = envFloat("STRONG_SENTIMENT", cfg.Thresholds.StrongSentiment); err != nil {
		return err
	}
	return nil
}

// Validate checks a fully assembled configuration.
func Validate(cfg *types.AppConfig) error {
	var errs []error

	if cfg.BucketName == "" {
		errs = append(errs, errors.New("bucket name is required"))
	} else if !validateBucketName(cfg.BucketName) {
		errs = append(errs, fmt.Errorf("invalid bucket name %q", cfg.BucketName))
	}
	if cfg.Poll.Interval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", cfg.Poll.Interval))
	}
	if cfg.Poll.MaxAttempts < 0 || cfg.Poll.MaxDuration < 0 {
		errs = append(errs, errors.New("poll limits must not be negative"))
	}
	if !validThreshold(cfg.Thresholds.LowConfidence) || !validThreshold(cfg.Thresholds.StrongSentiment) {
		errs = append(errs, errors.New("thresholds must be within (0,1]"))
	}
	if cfg.SpeakerDiarization && (cfg.MaxSpeakers < 2 || cfg.MaxSpeakers > 30) {
		errs = append(errs, fmt.Errorf("max speakers must be between 2 and 30, got %d", cfg.MaxSpeakers))
	}
	if cfg.Kafka.Enabled && cfg.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when kafka is enabled"))
	}
	return errors.Join(errs...)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "Version: %s\n", Version)
	if len(Commit) >= 7 {
		fmt.Fprintf(w, "Commit: %s\n", Commit[:7])
	} else {
		fmt.Fprintf(w, "Commit: %s\n", Commit)
	}
}

// validateBucketName validates an S3 bucket name
func validateBucketName(bucket string) bool {
	return bucketNameRE.MatchString(bucket)
}

// validThreshold excludes 0, which thresholds treat as unset.
func validThreshold(v float64) bool { return v > 0 && v <= 1 }

func envOrDefault(key, def string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
