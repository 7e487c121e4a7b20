package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/embano1/consult-insights/internal/server"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for videos, artifacts and insights",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appCfg
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addrFlag
	}

	ctx, cancel := signalContext(0)
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.s3.HeadBucket(ctx); err != nil {
		log.Warn().Err(err).Str("bucket", cfg.BucketName).Msg("Bucket is not reachable")
	}

	srv := server.New(cfg, server.Deps{
		Videos:      rt.s3,
		Transcriber: rt.transcribe,
		Insights:    rt.dashboard,
		Recorder:    rt.metrics,
		Gatherer:    prometheus.DefaultGatherer,
	})

	log.Info().
		Str("bucket", cfg.BucketName).
		Bool("kafkaEvents", rt.events.Enabled()).
		Msg("Runtime ready")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
