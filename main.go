package main

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/embano1/consult-insights/internal/aws"
	"github.com/embano1/consult-insights/internal/config"
	"github.com/embano1/consult-insights/internal/dashboard"
	"github.com/embano1/consult-insights/internal/events"
	"github.com/embano1/consult-insights/internal/logging"
	"github.com/embano1/consult-insights/internal/metrics"
	"github.com/embano1/consult-insights/internal/types"
)

// Global flags
var (
	configPath     string
	bucketFlag     string
	regionFlag     string
	logLevelFlag   string
	logFormatFlag  string
	failOnAuthFlag bool
	pollInterval   time.Duration
)

// appCfg is loaded before any subcommand runs.
var appCfg *types.AppConfig

var rootCmd = &cobra.Command{
	Use:   "consult-insights",
	Short: "Upload consultation videos and track their transcripts, sentiment and summaries",
	Long: `consult-insights uploads consultation recordings to S3, starts their
transcription and waits for the transcript, sentiment analysis and summary
artifacts to appear. Once available, they are turned into conversation
metrics such as speaker balance, speaking rate and emotional moments.

Configuration is read from an optional YAML file, CONSULT_* environment
variables and flags, in increasing order of precedence.

Examples:
  consult-insights upload -b my-bucket ./visit.mp4
  consult-insights watch -b my-bucket videos/1a2b3c4d5e6f7a8b-visit.mp4
  consult-insights locate videos/1a2b3c4d5e6f7a8b-visit.mp4
  consult-insights serve --config config.yaml`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to YAML config file")
	pf.StringVarP(&bucketFlag, "bucket", "b", "", "S3 bucket name")
	pf.StringVarP(&regionFlag, "region", "r", "", "AWS region")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFormatFlag, "log-format", "", "Log format (console, json)")
	pf.BoolVar(&failOnAuthFlag, "fail-on-unauthorized", true, "Stop polling an artifact on permission errors")
	pf.DurationVar(&pollInterval, "interval", 0, "Poll interval (default from config)")

	rootCmd.AddCommand(uploadCmd, watchCmd, locateCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig assembles the configuration and initializes logging.
func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("bucket") {
		cfg.BucketName = bucketFlag
	}
	if flags.Changed("region") {
		cfg.Region = regionFlag
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevelFlag
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormatFlag
	}
	if flags.Changed("fail-on-unauthorized") {
		cfg.Poll.FailOnUnauthorized = failOnAuthFlag
	}
	if flags.Changed("interval") {
		cfg.Poll.Interval = pollInterval
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	appCfg = cfg
	return nil
}

// runtime wires the AWS clients and services used by the commands.
type runtime struct {
	s3         *aws.S3Service
	transcribe *aws.TranscribeService
	metrics    *metrics.Metrics
	events     *events.Publisher
	dashboard  *dashboard.Service
}

func newRuntime(ctx context.Context, cfg *types.AppConfig) (*runtime, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Load AWS SDK configuration.
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS SDK config: %w", err)
	}

	s3Svc := aws.NewS3Service(s3.NewFromConfig(awsCfg), cfg.BucketName)
	transcribeSvc := aws.NewTranscribeService(transcribe.NewFromConfig(awsCfg), logging.WithComponent("transcribe"))
	m := metrics.New(prometheus.DefaultRegisterer)
	pub := events.New(events.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		Enabled: cfg.Kafka.Enabled,
	}, m)

	svc := dashboard.New(s3Svc, dashboard.Config{
		Poll:       cfg.Poll,
		Thresholds: dashboard.ThresholdsFromConfig(cfg.Thresholds),
		Publisher:  pub,
		Observer:   m,
		Active:     m.WatchesActive,
		MaxWatches: cfg.Server.MaxWatches,
	})

	return &runtime{
		s3:         s3Svc,
		transcribe: transcribeSvc,
		metrics:    m,
		events:     pub,
		dashboard:  svc,
	}, nil
}

func (r *runtime) Close() {
	if err := r.events.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close event publisher")
	}
}
