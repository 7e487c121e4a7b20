package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/embano1/consult-insights/internal/artifact"
)

// Fetcher performs a single poll tick.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, location string) artifact.Result[T]
}

// Controller polls one artifact location until the artifact is ready, the
// caller stops it, or its policy gives up. A Controller runs at most once.
//
// Every tick is tagged with the epoch current at dispatch. Stop bumps the
// epoch, and a tick result is only acted on while the epoch still matches
// and the state is Polling. The transition to Ready and the emission happen
// under the same lock, so nothing is emitted once Stop has returned.
type Controller[T any] struct {
	fetcher  Fetcher[T]
	location string
	opts     Options

	mu       sync.Mutex
	state    State
	epoch    uint64
	attempts int
	started  time.Time
	data     T
	err      error
	cancel   context.CancelFunc

	ready chan T
	done  chan struct{}
}

// New returns an idle Controller for location.
func New[T any](fetcher Fetcher[T], location string, opts ...Option) *Controller[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.Logger = o.Logger.With().Str("location", location).Logger()

	return &Controller[T]{
		fetcher:  fetcher,
		location: location,
		opts:     o,
		state:    Idle,
		ready:    make(chan T, 1),
		done:     make(chan struct{}),
	}
}

// Location returns the polled location.
func (c *Controller[T]) Location() string { return c.location }

// State returns the current state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of fetches dispatched so far.
func (c *Controller[T]) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Err returns why the controller failed, or nil.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Ready delivers the artifact exactly once if polling succeeds.
func (c *Controller[T]) Ready() <-chan T { return c.ready }

// Done is closed when the controller reaches a terminal state.
func (c *Controller[T]) Done() <-chan struct{} { return c.done }

// Start moves the controller from Idle to Polling. The first fetch happens
// immediately. Cancelling ctx has the same effect as Stop.
func (c *Controller[T]) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = Polling
	c.started = time.Now()
	epoch := c.epoch
	c.mu.Unlock()

	c.opts.Logger.Debug().
		Dur("interval", c.opts.Interval).
		Int("maxAttempts", c.opts.MaxAttempts).
		Dur("maxDuration", c.opts.MaxDuration).
		Msg("Polling started")

	go c.run(ctx, epoch)
	return nil
}

// Stop cancels polling. A fetch in flight is cancelled and its result
// discarded. Stop is a no-op once the controller is terminal.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Wait blocks until the controller is terminal or ctx is done and returns
// the artifact or the reason there is none.
func (c *Controller[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-c.done:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Ready:
		return c.data, nil
	case Failed:
		return zero, c.err
	default:
		return zero, ErrStopped
	}
}

func (c *Controller[T]) run(ctx context.Context, epoch uint64) {
	var deadline <-chan time.Time
	if c.opts.MaxDuration > 0 {
		t := time.NewTimer(c.opts.MaxDuration)
		defer t.Stop()
		deadline = t.C
	}

	for attempt := 1; ; attempt++ {
		if !c.tick(ctx, epoch) {
			return
		}

		timer := time.NewTimer(c.opts.NextInterval(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			c.cancelled(epoch)
			return
		case <-deadline:
			timer.Stop()
			c.exhausted(epoch, fmt.Errorf("%w: no artifact after %s", ErrExhausted, c.opts.MaxDuration))
			return
		case <-timer.C:
		}
	}
}

// tick runs one fetch and applies its result. It reports whether polling
// should continue.
func (c *Controller[T]) tick(ctx context.Context, epoch uint64) bool {
	c.mu.Lock()
	if c.epoch != epoch || c.state != Polling {
		c.mu.Unlock()
		return false
	}
	c.attempts++
	c.mu.Unlock()

	start := time.Now()
	res := c.fetcher.Fetch(ctx, c.location)
	latency := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch || c.state != Polling {
		c.opts.Logger.Debug().Str("outcome", res.Outcome.String()).Msg("Discarding stale poll result")
		return false
	}
	if ctx.Err() != nil {
		c.stopLocked()
		return false
	}

	c.opts.Observer.TickCompleted(c.location, res.Outcome, latency)

	switch res.Outcome {
	case artifact.Ready:
		c.data = res.Data
		c.ready <- res.Data
		c.finishLocked(Ready)
		return false
	case artifact.Failed:
		c.opts.Observer.FetchFailed(c.location, res.Err)
		action := c.opts.Policy.action(res.Err.Kind)
		c.opts.Logger.Warn().
			Err(res.Err.Err).
			Str("kind", res.Err.Kind.String()).
			Str("action", action.String()).
			Int("attempt", c.attempts).
			Msg("Fetching artifact failed")
		if action == Fail {
			c.err = res.Err
			c.finishLocked(Failed)
			return false
		}
	default:
		c.opts.Logger.Debug().Int("attempt", c.attempts).Msg("Artifact not ready")
	}

	if c.opts.MaxAttempts > 0 && c.attempts >= c.opts.MaxAttempts {
		c.err = fmt.Errorf("%w: no artifact after %d attempts", ErrExhausted, c.attempts)
		c.finishLocked(Failed)
		return false
	}
	return true
}

func (c *Controller[T]) cancelled(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch == epoch {
		c.stopLocked()
	}
}

func (c *Controller[T]) exhausted(epoch uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || c.state != Polling {
		return
	}
	c.err = err
	c.finishLocked(Failed)
}

func (c *Controller[T]) stopLocked() {
	if c.state.IsTerminal() {
		return
	}
	c.epoch++
	c.finishLocked(Stopped)
}

// finishLocked enters a terminal state. Callers hold c.mu.
func (c *Controller[T]) finishLocked(s State) {
	c.state = s
	if c.cancel != nil {
		c.cancel()
	}
	close(c.done)

	var elapsed time.Duration
	if !c.started.IsZero() {
		elapsed = time.Since(c.started)
	}
	c.opts.Observer.Finished(c.location, s, c.attempts, elapsed)

	evt := c.opts.Logger.Info()
	if s == Failed {
		evt = c.opts.Logger.Error().Err(c.err)
	}
	evt.Str("state", s.String()).
		Int("attempts", c.attempts).
		Dur("elapsed", elapsed).
		Msg("Polling finished")
}
