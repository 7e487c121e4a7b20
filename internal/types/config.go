package types

import "time"

// AppConfig holds the application settings, assembled from defaults, an
// optional YAML file, environment variables and command-line flags.
type AppConfig struct {
	BucketName   string `yaml:"bucket"`
	Region       string `yaml:"region"`
	VideoPrefix  string `yaml:"video_prefix"`
	LanguageCode string `yaml:"language_code"`

	SpeakerDiarization bool `yaml:"speaker_diarization"`
	MaxSpeakers        int  `yaml:"max_speakers"`
	Force              bool `yaml:"-"`

	Poll       PollConfig      `yaml:"poll"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Server     ServerConfig    `yaml:"server"`
	Kafka      KafkaConfig     `yaml:"kafka"`
	Log        LogConfig       `yaml:"log"`
}

// PollConfig controls how long and how often artifacts are polled.
type PollConfig struct {
	Interval          time.Duration `yaml:"interval"`
	MaxAttempts       int           `yaml:"max_attempts"`
	MaxDuration       time.Duration `yaml:"max_duration"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	MaxInterval       time.Duration `yaml:"max_interval"`
	// FailOnUnauthorized stops polling on permission errors instead of
	// retrying them like any other failure.
	FailOnUnauthorized bool `yaml:"fail_on_unauthorized"`
}

// ThresholdConfig holds the tunable insight thresholds.
type ThresholdConfig struct {
	LowConfidence   float64 `yaml:"low_confidence"`
	StrongSentiment float64 `yaml:"strong_sentiment"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	PresignExpiry time.Duration `yaml:"presign_expiry"`
	MaxWait       time.Duration `yaml:"max_wait"`
	MaxWatches    int64         `yaml:"max_watches"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
