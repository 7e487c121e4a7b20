package server

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/embano1/consult-insights/internal/artifact"
	"github.com/embano1/consult-insights/internal/aws"
	"github.com/embano1/consult-insights/internal/config"
	"github.com/embano1/consult-insights/internal/dashboard"
)

type videoResponse struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	LastModified time.Time         `json:"lastModified"`
	URL          string            `json:"url,omitempty"`
	Artifacts    map[string]string `json:"artifacts"`
}

type uploadResponse struct {
	Key       string            `json:"key"`
	Existing  bool              `json:"existing,omitempty"`
	JobStatus string            `json:"jobStatus,omitempty"`
	Artifacts map[string]string `json:"artifacts"`
}

type artifactResponse struct {
	Status   string `json:"status"`
	Location string `json:"location"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error,omitempty"`
	Data     any    `json:"data,omitempty"`
}

func artifactLocations(key string) map[string]string {
	locs := make(map[string]string, len(artifact.Kinds))
	for k, loc := range artifact.LocateAll(key) {
		locs[k.String()] = loc
	}
	return locs
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleListVideos(c *fiber.Ctx) error {
	objs, err := s.deps.Videos.ListVideos(c.UserContext(), s.cfg.VideoPrefix)
	if err != nil {
		return statusFromStoreError(err)
	}

	videos := make([]videoResponse, 0, len(objs))
	for _, o := range objs {
		v := videoResponse{
			Key:          o.Key,
			Size:         o.Size,
			LastModified: o.LastModified,
			Artifacts:    artifactLocations(o.Key),
		}
		url, err := s.deps.Videos.PresignGet(c.UserContext(), o.Key, s.cfg.Server.PresignExpiry)
		if err != nil {
			s.log.Warn().Err(err).Str("video", o.Key).Msg("Failed to presign video URL")
		} else {
			v.URL = url
		}
		videos = append(videos, v)
	}
	return c.JSON(videos)
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file")
	}
	if _, err := aws.MediaFormat(fh.Filename); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	key, err := artifact.VideoKey(s.cfg.VideoPrefix, fh.Filename, f)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	resp := uploadResponse{Key: key, Artifacts: artifactLocations(key)}

	// keys are content addressed, an existing key holds the same bytes
	exists, err := s.deps.Videos.Exists(ctx, key)
	if err != nil {
		return statusFromStoreError(err)
	}
	if exists {
		resp.Existing = true
		s.log.Info().Str("video", key).Msg("Video already stored, skipping upload")
	} else {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := s.deps.Videos.Upload(ctx, key, f, fh.Header.Get(fiber.HeaderContentType)); err != nil {
			return statusFromStoreError(err)
		}
		s.log.Info().Str("video", key).Int64("size", fh.Size).Msg("Video uploaded")
	}

	if s.deps.Transcriber != nil && c.QueryBool("transcribe", true) {
		status, err := s.deps.Transcriber.EnsureTranscriptionJob(ctx, s.deps.Videos.Bucket(), key, s.cfg)
		if err != nil {
			return statusFromStoreError(err)
		}
		resp.JobStatus = status
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s *Server) handleArtifact(c *fiber.Ctx) error {
	kind, err := artifact.ParseKind(c.Params("kind"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	key := c.Query("key")
	if key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing key")
	}

	snap, err := s.deps.Insights.FetchOnce(c.UserContext(), key, kind)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	code, resp := artifactResult(artifact.Locate(key, kind), snap)
	return c.Status(code).JSON(resp)
}

// artifactResult maps a lookup to an HTTP status and body.
func artifactResult(location string, snap dashboard.Snapshot) (int, artifactResponse) {
	resp := artifactResponse{Location: location}
	switch snap.Outcome {
	case artifact.Ready:
		resp.Status = "ready"
		resp.Data = snap.Data
		return fiber.StatusOK, resp
	case artifact.NotReady:
		resp.Status = "pending"
		return fiber.StatusAccepted, resp
	}

	resp.Status = "error"
	resp.Kind = snap.Err.Kind.String()
	resp.Error = snap.Err.Error()
	switch snap.Err.Kind {
	case artifact.Unauthorized:
		return fiber.StatusForbidden, resp
	case artifact.Malformed:
		return fiber.StatusBadGateway, resp
	default:
		return fiber.StatusServiceUnavailable, resp
	}
}

func (s *Server) handleInsights(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing key")
	}

	var wait time.Duration
	if w := c.Query("wait"); w != "" {
		d, err := time.ParseDuration(w)
		if err != nil || d < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid wait duration")
		}
		wait = d
	}
	if limit := s.cfg.Server.MaxWait; limit > 0 && wait > limit {
		wait = limit
	}

	r, err := s.deps.Insights.Insights(c.UserContext(), key, wait)
	if err != nil {
		return statusFromStoreError(err)
	}
	return c.JSON(r)
}

func statusFromStoreError(err error) error {
	if errors.Is(err, artifact.ErrUnauthorized) {
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}
	return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
}
