package poller

import (
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/embano1/consult-insights/internal/artifact"
)

// DefaultInterval is the delay between two polls.
const DefaultInterval = 5 * time.Second

// Observer receives poll telemetry. Methods are called with the controller
// lock held and must not call back into the controller.
type Observer interface {
	TickCompleted(location string, outcome artifact.Outcome, latency time.Duration)
	FetchFailed(location string, err *artifact.FetchError)
	Finished(location string, state State, attempts int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) TickCompleted(string, artifact.Outcome, time.Duration) {}
func (nopObserver) FetchFailed(string, *artifact.FetchError) {}
func (nopObserver) Finished(string, State, int, time.Duration) {}

// Options configures a Controller. The zero values of MaxAttempts and
// MaxDuration mean unbounded.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	MaxDuration time.Duration
	// Multiplier grows the interval after every poll. Values <= 1 keep the
	// cadence constant.
	Multiplier  float64
	MaxInterval time.Duration
	Policy      Policy
	Observer    Observer
	Logger      zerolog.Logger
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Interval:   DefaultInterval,
		Multiplier: 1,
		Policy:     DefaultPolicy(),
		Observer:   nopObserver{},
		Logger:     log.With().Str("component", "poller").Logger(),
	}
}

func WithInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.Interval = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(o *Options) { o.MaxAttempts = n }
}

func WithMaxDuration(d time.Duration) Option {
	return func(o *Options) { o.MaxDuration = d }
}

// WithBackoff grows the interval by multiplier after every poll, capped at
// maxInterval when it is positive.
func WithBackoff(multiplier float64, maxInterval time.Duration) Option {
	return func(o *Options) {
		o.Multiplier = multiplier
		o.MaxInterval = maxInterval
	}
}

func WithPolicy(p Policy) Option {
	return func(o *Options) {
		if p != nil {
			o.Policy = p
		}
	}
}

func WithObserver(obs Observer) Option {
	return func(o *Options) {
		if obs != nil {
			o.Observer = obs
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// NextInterval returns the delay after the given poll attempt (1-indexed):
// Interval * Multiplier^(attempt-1), capped at MaxInterval.
func (o Options) NextInterval(attempt int) time.Duration {
	if o.Multiplier <= 1 || attempt <= 1 {
		return o.Interval
	}
	d := float64(o.Interval) * math.Pow(o.Multiplier, float64(attempt-1))
	if o.MaxInterval > 0 && d > float64(o.MaxInterval) {
		return o.MaxInterval
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
