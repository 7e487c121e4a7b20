package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/embano1/consult-insights/internal/artifact"
	"github.com/embano1/consult-insights/internal/dashboard"
	"github.com/embano1/consult-insights/internal/formatting"
)

var (
	kindsFlag      []string
	timeoutFlag    time.Duration
	outputFilePath string
	jsonFlag       bool
)

var watchCmd = &cobra.Command{
	Use:   "watch KEY",
	Short: "Wait for the artifacts of a video and print its insights",
	Long: `Watch polls S3 for the transcript, sentiment analysis and summary of an
uploaded video. Each artifact is reported as soon as it appears. Once all
requested artifacts are ready or have failed, the conversation metrics are
printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringSliceVarP(&kindsFlag, "kinds", "k", []string{"transcript", "analysis", "summary"}, "Artifacts to wait for")
	f.DurationVar(&timeoutFlag, "timeout", 0, "Give up after this duration (0 = poll limits from config)")
	f.StringVarP(&outputFilePath, "output", "o", "", "Write the formatted transcript to this file")
	f.BoolVar(&jsonFlag, "json", false, "Print the full report as JSON")
}

func runWatch(cmd *cobra.Command, args []string) error {
	key := args[0]

	kinds := make([]artifact.Kind, 0, len(kindsFlag))
	for _, s := range kindsFlag {
		k, err := artifact.ParseKind(s)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}

	ctx, cancel := signalContext(timeoutFlag)
	defer cancel()

	rt, err := newRuntime(ctx, appCfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	log.Info().Str("video", key).Strs("kinds", kindsFlag).Msg("Waiting for artifacts")

	out := cmd.OutOrStdout()
	report, err := rt.dashboard.Watch(ctx, key, kinds, func(kind artifact.Kind, _ *dashboard.Report) {
		if !jsonFlag {
			fmt.Fprintf(out, "%s ready: %s\n", kind, artifact.Locate(key, kind))
		}
	})
	if err != nil && report == nil {
		return err
	}
	if err != nil {
		log.Warn().Err(err).Msg("Stopped waiting, showing partial results")
	}

	if report.Transcript != nil && outputFilePath != "" {
		text := formatting.FormatTranscriptWithSpeakers(*report.Transcript)
		if err := os.WriteFile(outputFilePath, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write transcript to file: %w", err)
		}
		log.Info().Str("path", outputFilePath).Msg("Transcript saved")
	}

	if jsonFlag {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out)
		fmt.Fprint(out, formatting.FormatMetrics(report.Metrics))
		if report.Summary != nil {
			fmt.Fprintln(out, "Summary")
			fmt.Fprint(out, formatting.FormatSummary(*report.Summary))
		}
		for _, kind := range kinds {
			if st := report.Status[kind.String()]; st.Error != "" {
				fmt.Fprintf(out, "%s: %s (%s)\n", kind, st.State, st.Error)
			}
		}
	}

	if !report.Complete() {
		if err != nil {
			return err
		}
		return errors.New("not all artifacts are available")
	}
	return nil
}
