// Package server exposes videos, artifacts and insights over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/embano1/consult-insights/internal/artifact"
	"github.com/embano1/consult-insights/internal/aws"
	"github.com/embano1/consult-insights/internal/dashboard"
	"github.com/embano1/consult-insights/internal/types"
)

const maxUploadBytes = 2 << 30

// VideoStore stores uploaded videos.
type VideoStore interface {
	Bucket() string
	Exists(ctx context.Context, key string) (bool, error)
	ListVideos(ctx context.Context, prefix string) ([]aws.Object, error)
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Transcriber starts transcription jobs.
type Transcriber interface {
	EnsureTranscriptionJob(ctx context.Context, bucket, mediaKey string, cfg *types.AppConfig) (string, error)
}

// Insights looks up artifacts and derived metrics.
type Insights interface {
	FetchOnce(ctx context.Context, key string, kind artifact.Kind) (dashboard.Snapshot, error)
	Insights(ctx context.Context, key string, wait time.Duration) (*dashboard.Report, error)
}

// Recorder records served requests.
type Recorder interface {
	RecordRequest(route, status string)
}

// Deps are the collaborators of the API. Transcriber, Recorder and Gatherer
// are optional.
type Deps struct {
	Videos      VideoStore
	Transcriber Transcriber
	Insights    Insights
	Recorder    Recorder
	Gatherer    prometheus.Gatherer
}

// Server is the HTTP API.
type Server struct {
	app  *fiber.App
	cfg  *types.AppConfig
	deps Deps
	log  zerolog.Logger
}

// New creates the API and registers all routes.
func New(cfg *types.AppConfig, deps Deps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  log.With().Str("component", "server").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "consult-insights",
		BodyLimit:             maxUploadBytes,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))

	s.app.Get("/healthz", s.handleHealth)
	if deps.Gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := s.app.Group("/api")
	api.Get("/videos", s.handleListVideos)
	api.Post("/videos", s.handleUpload)
	api.Get("/artifacts/:kind", s.handleArtifact)
	api.Get("/insights", s.handleInsights)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("Starting HTTP server")
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)

	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	route := c.Route().Path
	if s.deps.Recorder != nil {
		s.deps.Recorder.RecordRequest(route, strconv.Itoa(status))
	}

	evt := s.log.Info()
	if status >= fiber.StatusInternalServerError {
		evt = s.log.Error().Err(err)
	}
	evt.Str("requestId", id).
		Str("method", c.Method()).
		Str("route", route).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("Request served")
	return err
}
