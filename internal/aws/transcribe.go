package aws

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/rs/zerolog"

	"github.com/embano1/consult-insights/internal/artifact"
	appTypes "github.com/embano1/consult-insights/internal/types"
)

// TranscribeAPI is the subset of the Transcribe client used by TranscribeService.
type TranscribeAPI interface {
	GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
}

// TranscribeService handles Transcribe operations
type TranscribeService struct {
	client TranscribeAPI
	log    zerolog.Logger
	now    func() time.Time
}

// NewTranscribeService creates a new Transcribe service
func NewTranscribeService(client TranscribeAPI, log zerolog.Logger) *TranscribeService {
	return &TranscribeService{client: client, log: log, now: time.Now}
}

var (
	jobNameInvalid = regexp.MustCompile(`[^0-9a-zA-Z._-]+`)

	mediaFormats = map[string]types.MediaFormat{
		"mp3":  types.MediaFormatMp3,
		"mp4":  types.MediaFormatMp4,
		"wav":  types.MediaFormatWav,
		"flac": types.MediaFormatFlac,
		"ogg":  types.MediaFormatOgg,
		"amr":  types.MediaFormatAmr,
		"webm": types.MediaFormatWebm,
		"m4a":  types.MediaFormatM4a,
	}
)

const (
	maxJobNameLen  = 200
	rerunStampForm = "20060102T150405"
)

// JobName derives the transcription job name for a video key.
func JobName(mediaKey string) string {
	name := "consult-" + jobNameInvalid.ReplaceAllString(artifact.BaseName(mediaKey), "-")
	if len(name) > maxJobNameLen {
		name = name[:maxJobNameLen]
	}
	return name
}

// rerunJobName names a forced re-transcription. Job names are unique per
// account and region, so a rerun cannot reuse JobName.
func rerunJobName(mediaKey string, at time.Time) string {
	suffix := "-" + at.UTC().Format(rerunStampForm)
	name := JobName(mediaKey)
	if len(name)+len(suffix) > maxJobNameLen {
		name = name[:maxJobNameLen-len(suffix)]
	}
	return name + suffix
}

// MediaFormat returns the Transcribe media format of a video key.
func MediaFormat(mediaKey string) (types.MediaFormat, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(mediaKey), "."))
	f, ok := mediaFormats[ext]
	if !ok {
		return "", fmt.Errorf("unsupported media format %q", ext)
	}
	return f, nil
}

// EnsureTranscriptionJob checks for an existing transcription job and starts
// one if not found. The job writes its output where the transcript poller
// looks for it. It returns the job status.
func (t *TranscribeService) EnsureTranscriptionJob(ctx context.Context, bucket, mediaKey string, cfg *appTypes.AppConfig) (string, error) {
	jobName := JobName(mediaKey)
	log := t.log.With().Str("job", jobName).Logger()

	jobExists, jobStatus, err := t.JobStatus(ctx, jobName)
	if err != nil {
		return "", fmt.Errorf("checking transcription job status: %w", err)
	}
	if jobExists && !cfg.Force {
		log.Info().Str("status", jobStatus).Msg("Transcription job already exists")
		return jobStatus, nil
	}

	if jobExists {
		jobName = rerunJobName(mediaKey, t.now())
		log = t.log.With().Str("job", jobName).Str("previousStatus", jobStatus).Logger()
	}

	log.Info().Msg("Starting transcription job")
	if err := t.startTranscriptionJob(ctx, jobName, bucket, mediaKey, cfg); err != nil {
		return "", fmt.Errorf("start transcription job: %w", err)
	}
	log.Info().Str("output", artifact.Locate(mediaKey, artifact.Transcript)).Msg("Transcription job started")
	return string(types.TranscriptionJobStatusQueued), nil
}

// JobStatus checks whether the transcription job exists and returns its status.
func (t *TranscribeService) JobStatus(ctx context.Context, jobName string) (bool, string, error) {
	out, err := t.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: &jobName,
	})
	if err != nil {
		if strings.Contains(err.Error(), "The requested job couldn't be found") || isNotFoundError(err) {
			return false, "", nil
		}
		return false, "", classify("get transcription job", err)
	}
	return true, string(out.TranscriptionJob.TranscriptionJobStatus), nil
}

// startTranscriptionJob starts a transcription job using the provided S3 file.
func (t *TranscribeService) startTranscriptionJob(ctx context.Context, jobName, bucket, mediaKey string, cfg *appTypes.AppConfig) error {
	format, err := MediaFormat(mediaKey)
	if err != nil {
		return err
	}

	mediaURI := fmt.Sprintf("s3://%s/%s", bucket, mediaKey)
	outputKey := artifact.Locate(mediaKey, artifact.Transcript)
	input := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: &jobName,
		LanguageCode:         types.LanguageCode(cfg.LanguageCode),
		MediaFormat:          format,
		Media: &types.Media{
			MediaFileUri: &mediaURI,
		},
		OutputBucketName: &bucket,
		OutputKey:        &outputKey,
	}

	// Add speaker diarization settings if enabled
	if cfg.SpeakerDiarization {
		maxSpeakers := int32(cfg.MaxSpeakers)
		input.Settings = &types.Settings{
			ShowSpeakerLabels: &cfg.SpeakerDiarization,
			MaxSpeakerLabels:  &maxSpeakers,
		}
	}
	_, err = t.client.StartTranscriptionJob(ctx, input)
	return err
}
