package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/embano1/consult-insights/internal/artifact"
	"github.com/embano1/consult-insights/internal/aws"
	"github.com/embano1/consult-insights/internal/logging"
)

var (
	languageFlag    string
	diarizationFlag bool
	maxSpeakersFlag int
	forceFlag       bool
	noTranscribe    bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a consultation video and start its transcription",
	Long: `Upload stores a local video in S3 under a content-addressed key and starts
an AWS Transcribe job writing its transcript where "watch" looks for it.
Uploading the same file twice reuses the existing object and job.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	f := uploadCmd.Flags()
	f.StringVarP(&languageFlag, "language", "l", "", "Language code for transcription (default from config)")
	f.BoolVarP(&diarizationFlag, "diarization", "d", true, "Enable speaker diarization")
	f.IntVarP(&maxSpeakersFlag, "max-speakers", "m", 0, "Maximum number of speakers for diarization (default from config)")
	f.BoolVar(&forceFlag, "force", false, "Start a new transcription job even if one exists")
	f.BoolVar(&noTranscribe, "no-transcribe", false, "Only upload, do not start a transcription job")
}

func runUpload(cmd *cobra.Command, args []string) error {
	inputFilePath := args[0]

	cfg := appCfg
	if cmd.Flags().Changed("language") {
		cfg.LanguageCode = languageFlag
	}
	if cmd.Flags().Changed("diarization") {
		cfg.SpeakerDiarization = diarizationFlag
	}
	if cmd.Flags().Changed("max-speakers") {
		cfg.MaxSpeakers = maxSpeakersFlag
	}
	cfg.Force = forceFlag

	// Ensure the input file exists and is a supported video.
	fileInfo, err := os.Stat(inputFilePath)
	if err != nil {
		return fmt.Errorf("stat input file: %w", err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("input path %q is a directory, not a file", inputFilePath)
	}
	if _, err := aws.MediaFormat(inputFilePath); err != nil {
		return err
	}

	ctx, cancel := signalContext(30 * time.Minute)
	defer cancel()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Open the file and compute its content-addressed key.
	f, err := os.Open(inputFilePath)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	key, err := artifact.VideoKey(cfg.VideoPrefix, inputFilePath, f)
	f.Close()
	if err != nil {
		return err
	}
	logger := logging.WithVideo("upload", key)

	exists, err := rt.s3.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check S3 object existence: %w", err)
	}
	if exists {
		logger.Info().Msg("File already exists in S3, skipping upload")
	} else {
		logger.Info().Int64("size", fileInfo.Size()).Msg("Uploading file to S3")
		if err := rt.s3.UploadFile(ctx, key, inputFilePath); err != nil {
			return fmt.Errorf("upload file to S3: %w", err)
		}
		logger.Info().Msg("Upload completed")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Video: s3://%s/%s\n", rt.s3.Bucket(), key)

	if !noTranscribe {
		status, err := rt.transcribe.EnsureTranscriptionJob(ctx, rt.s3.Bucket(), key, cfg)
		if err != nil {
			return fmt.Errorf("ensure transcription job: %w", err)
		}
		fmt.Fprintf(out, "Transcription job %s: %s\n", aws.JobName(key), status)
	}

	printLocations(out, key)
	return nil
}
