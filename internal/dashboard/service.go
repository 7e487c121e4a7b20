// Package dashboard waits for the artifacts of a consultation and turns them
// into the figures shown to a clinician.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/embano1/consult-insights/internal/artifact"
	"github.com/embano1/consult-insights/internal/insights"
	"github.com/embano1/consult-insights/internal/poller"
	"github.com/embano1/consult-insights/internal/types"
)

// Publisher announces artifacts that became ready.
type Publisher interface {
	PublishReady(ctx context.Context, videoKey string, kind artifact.Kind) error
}

// Gauge tracks the number of running watches.
type Gauge interface {
	Inc()
	Dec()
}

// Status is the polling outcome of a single artifact.
type Status struct {
	State    string `json:"state"`
	Attempts int    `json:"attempts"`
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Report holds whatever artifacts of a consultation are available together
// with the derived metrics.
type Report struct {
	VideoKey   string                  `json:"videoKey"`
	Transcript *types.Transcript       `json:"transcript,omitempty"`
	Analysis   *types.Analysis         `json:"analysis,omitempty"`
	Summary    *types.Summary          `json:"summary,omitempty"`
	Metrics    insights.DerivedMetrics `json:"metrics"`
	Status     map[string]Status       `json:"status"`
}

// Complete reports whether every watched artifact is ready.
func (r *Report) Complete() bool {
	for _, s := range r.Status {
		if s.State != poller.Ready.String() {
			return false
		}
	}
	return true
}

// Config configures a Service.
type Config struct {
	Poll       types.PollConfig
	Thresholds insights.Thresholds
	Publisher  Publisher
	Observer   poller.Observer
	Active     Gauge
	// MaxWatches limits concurrently running watches; 0 means unlimited.
	MaxWatches int64
}

// Service watches consultation artifacts in a store.
type Service struct {
	store      artifact.Store
	poll       types.PollConfig
	thresholds insights.Thresholds
	publisher  Publisher
	observer   poller.Observer
	active     Gauge
	watches    *semaphore.Weighted
	log        zerolog.Logger
}

// New creates a Service. Publisher, Observer and Active are optional.
func New(store artifact.Store, cfg Config) *Service {
	th := cfg.Thresholds
	if th == (insights.Thresholds{}) {
		th = insights.DefaultThresholds()
	}
	s := &Service{
		store:      store,
		poll:       cfg.Poll,
		thresholds: th,
		publisher:  cfg.Publisher,
		observer:   cfg.Observer,
		active:     cfg.Active,
		log:        log.With().Str("component", "dashboard").Logger(),
	}
	if cfg.MaxWatches > 0 {
		s.watches = semaphore.NewWeighted(cfg.MaxWatches)
	}
	return s
}

// ThresholdsFromConfig maps configured thresholds, falling back to the
// defaults for unset values.
func ThresholdsFromConfig(c types.ThresholdConfig) insights.Thresholds {
	th := insights.DefaultThresholds()
	if c.LowConfidence > 0 {
		th.LowConfidence = c.LowConfidence
	}
	if c.StrongSentiment > 0 {
		th.StrongSentiment = c.StrongSentiment
	}
	return th
}

// PollOptions translates the poll configuration into controller options.
func (s *Service) PollOptions(key string, kind artifact.Kind) []poller.Option {
	p := s.poll
	opts := []poller.Option{
		poller.WithInterval(p.Interval),
		poller.WithMaxAttempts(p.MaxAttempts),
		poller.WithMaxDuration(p.MaxDuration),
		poller.WithBackoff(p.BackoffMultiplier, p.MaxInterval),
		poller.WithObserver(s.observer),
		poller.WithLogger(s.log.With().
			Str("video", key).
			Str("artifact", kind.String()).
			Logger()),
	}
	if !p.FailOnUnauthorized {
		opts = append(opts, poller.WithPolicy(poller.ReferencePolicy()))
	}
	return opts
}

// Watch polls the given artifacts of a video until each one is ready or
// has failed, then computes the metrics. A failed artifact does not abort
// the others; its failure is recorded in the report status. onReady, if
// set, is called as soon as an artifact arrives. Watch returns a context
// error when ctx ends first, along with the partial report. When the watch
// limit is reached Watch blocks until a slot frees up or ctx ends; in the
// latter case no report is returned.
func (s *Service) Watch(ctx context.Context, key string, kinds []artifact.Kind, onReady func(artifact.Kind, *Report)) (*Report, error) {
	if len(kinds) == 0 {
		kinds = artifact.Kinds
	}
	for _, kind := range kinds {
		if kind != artifact.Transcript && kind != artifact.Analysis && kind != artifact.Summary {
			return nil, fmt.Errorf("unsupported artifact kind %s", kind)
		}
	}
	if s.watches != nil {
		if err := s.watches.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("wait for watch slot: %w", err)
		}
		defer s.watches.Release(1)
	}
	if s.active != nil {
		s.active.Inc()
		defer s.active.Dec()
	}

	r := &Report{VideoKey: key, Status: make(map[string]Status, len(kinds))}
	var mu sync.Mutex
	notify := func(kind artifact.Kind) {
		if onReady != nil {
			mu.Lock()
			defer mu.Unlock()
			onReady(kind, r)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		mu.Lock()
		r.Status[kind.String()] = Status{State: poller.Idle.String()}
		mu.Unlock()

		switch kind {
		case artifact.Transcript:
			g.Go(func() error {
				return watchKind(gctx, s, key, kind, artifact.DecodeTranscript, &mu, r, func(v types.Transcript) { r.Transcript = &v }, notify)
			})
		case artifact.Analysis:
			g.Go(func() error {
				return watchKind(gctx, s, key, kind, artifact.DecodeAnalysis, &mu, r, func(v types.Analysis) { r.Analysis = &v }, notify)
			})
		case artifact.Summary:
			g.Go(func() error {
				return watchKind(gctx, s, key, kind, artifact.DecodeSummary, &mu, r, func(v types.Summary) { r.Summary = &v }, notify)
			})
		}
	}

	err := g.Wait()

	mu.Lock()
	defer mu.Unlock()
	r.Metrics = insights.Compute(r.Transcript, r.Analysis, s.thresholds)
	return r, err
}

// watchKind runs one controller. It only returns an error when ctx ends;
// poll failures are recorded in the report.
func watchKind[T any](ctx context.Context, s *Service, key string, kind artifact.Kind, decode func([]byte) (T, error), mu *sync.Mutex, r *Report, set func(T), notify func(artifact.Kind)) error {
	c := poller.New[T](artifact.NewFetcher(s.store, decode), artifact.Locate(key, kind), s.PollOptions(key, kind)...)
	defer c.Stop()

	if err := c.Start(ctx); err != nil {
		return err
	}

	v, err := c.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		// Wait returns on ctx before the controller settles. Stop settles it
		// and a result that won the race is kept.
		c.Stop()
		if rv, rerr := c.Wait(context.Background()); rerr == nil {
			v, err = rv, nil
		}
	}

	status := Status{State: c.State().String(), Attempts: c.Attempts(), Location: c.Location()}
	if err != nil {
		status.Error = err.Error()
	}
	mu.Lock()
	r.Status[kind.String()] = status
	if err == nil {
		set(v)
	}
	mu.Unlock()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return nil
	}

	if s.publisher != nil {
		if perr := s.publisher.PublishReady(ctx, key, kind); perr != nil {
			s.log.Warn().Err(perr).Str("video", key).Stringer("artifact", kind).Msg("Failed to publish ready event")
		}
	}
	notify(kind)
	return nil
}

// Snapshot is the result of a single, non-polling artifact lookup.
type Snapshot struct {
	Kind    artifact.Kind
	Outcome artifact.Outcome
	Data    any
	Err     *artifact.FetchError
}

// FetchOnce looks up one artifact without polling.
func (s *Service) FetchOnce(ctx context.Context, key string, kind artifact.Kind) (Snapshot, error) {
	loc := artifact.Locate(key, kind)
	switch kind {
	case artifact.Transcript:
		return snapshot(ctx, s.store, kind, loc, artifact.DecodeTranscript), nil
	case artifact.Analysis:
		return snapshot(ctx, s.store, kind, loc, artifact.DecodeAnalysis), nil
	case artifact.Summary:
		return snapshot(ctx, s.store, kind, loc, artifact.DecodeSummary), nil
	default:
		return Snapshot{}, fmt.Errorf("unsupported artifact kind %s", kind)
	}
}

func snapshot[T any](ctx context.Context, store artifact.Store, kind artifact.Kind, loc string, decode func([]byte) (T, error)) Snapshot {
	res := artifact.NewFetcher(store, decode).Fetch(ctx, loc)
	snap := Snapshot{Kind: kind, Outcome: res.Outcome, Err: res.Err}
	if res.Outcome == artifact.Ready {
		snap.Data = res.Data
	}
	return snap
}

// Insights returns the metrics of a video. With a zero wait it looks at the
// artifacts once; otherwise it polls for up to wait and returns whatever
// arrived by then.
func (s *Service) Insights(ctx context.Context, key string, wait time.Duration) (*Report, error) {
	kinds := artifact.Kinds
	if wait > 0 {
		wctx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		r, err := s.Watch(wctx, key, kinds, nil)
		if err != nil && r != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
		return r, err
	}

	r := &Report{VideoKey: key, Status: make(map[string]Status, len(kinds))}
	for _, kind := range kinds {
		snap, err := s.FetchOnce(ctx, key, kind)
		if err != nil {
			return nil, err
		}
		st := Status{State: poller.Polling.String(), Attempts: 1, Location: artifact.Locate(key, kind)}
		switch snap.Outcome {
		case artifact.Ready:
			st.State = poller.Ready.String()
			switch v := snap.Data.(type) {
			case types.Transcript:
				r.Transcript = &v
			case types.Analysis:
				r.Analysis = &v
			case types.Summary:
				r.Summary = &v
			}
		case artifact.Failed:
			st.State = poller.Failed.String()
			st.Error = snap.Err.Error()
		}
		r.Status[kind.String()] = st
	}
	r.Metrics = insights.Compute(r.Transcript, r.Analysis, s.thresholds)
	return r, nil
}
