// Package poller waits for an asynchronously produced artifact by fetching it
// on a fixed cadence until it is ready or the caller stops waiting.
package poller

import (
	"errors"
	"fmt"

	"github.com/embano1/consult-insights/internal/artifact"
)

// State is the lifecycle state of a Controller.
//
//	Idle ──Start──→ Polling ──ready──→ Ready
//	  │               │  ↺ not ready / retryable error
//	  │               ├──policy fail / exhausted──→ Failed
//	  └────Stop───────┴──Stop / ctx done──→ Stopped
type State int

const (
	Idle State = iota
	Polling
	Ready
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Polling:
		return "POLLING"
	case Ready:
		return "READY"
	case Stopped:
		return "STOPPED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// IsTerminal reports whether no further transitions can happen.
func (s State) IsTerminal() bool {
	return s == Ready || s == Stopped || s == Failed
}

var (
	ErrAlreadyStarted = errors.New("poller already started")
	ErrStopped        = errors.New("poller stopped")
	ErrExhausted      = errors.New("poll attempts exhausted")
)

// Action is what the controller does after a failed fetch.
type Action int

const (
	// Continue keeps polling as if the artifact were not ready yet.
	Continue Action = iota
	// Fail ends polling in the Failed state.
	Fail
)

func (a Action) String() string {
	if a == Fail {
		return "fail"
	}
	return "continue"
}

// Policy maps fetch error kinds to actions. Kinds missing from the map
// continue.
type Policy map[artifact.ErrorKind]Action

// DefaultPolicy retries transport and malformed-payload errors, which may
// clear up once the producing job rewrites its output, and fails on
// permission errors, which never do.
func DefaultPolicy() Policy {
	return Policy{
		artifact.Transport:    Continue,
		artifact.Malformed:    Continue,
		artifact.Unauthorized: Fail,
	}
}

// ReferencePolicy keeps polling on every error.
func ReferencePolicy() Policy {
	return Policy{
		artifact.Transport:    Continue,
		artifact.Malformed:    Continue,
		artifact.Unauthorized: Continue,
	}
}

func (p Policy) action(kind artifact.ErrorKind) Action {
	if a, ok := p[kind]; ok {
		return a
	}
	return Continue
}
