package artifact

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a Store when the object does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrUnauthorized is wrapped by a Store when access was denied.
	ErrUnauthorized = errors.New("access denied")
	// ErrMalformedResponse is wrapped by a Store when the service reply
	// could not be understood.
	ErrMalformedResponse = errors.New("malformed store response")
)

// Store is the object storage gateway artifacts are read from.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Outcome is the state reported by a single fetch.
type Outcome int

const (
	NotReady Outcome = iota
	Ready
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NotReady:
		return "not_ready"
	case Ready:
		return "ready"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ErrorKind classifies fetch failures.
type ErrorKind int

const (
	Transport ErrorKind = iota
	Unauthorized
	Malformed
)

func (k ErrorKind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Unauthorized:
		return "unauthorized"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
}

// FetchError is the error carried by a failed Result.
type FetchError struct {
	Kind     ErrorKind
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Location, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result is the tri-state outcome of Fetch: the decoded artifact when
// Outcome is Ready, an error when it is Failed, nothing when NotReady.
type Result[T any] struct {
	Outcome Outcome
	Data    T
	Err     *FetchError
}

// Fetcher checks for and retrieves one type of artifact. Every call goes to
// the store; nothing is cached since artifacts appear at unpredictable times.
type Fetcher[T any] struct {
	Store  Store
	Decode func([]byte) (T, error)
}

// NewFetcher returns a Fetcher reading from store and decoding with decode.
func NewFetcher[T any](store Store, decode func([]byte) (T, error)) *Fetcher[T] {
	return &Fetcher[T]{Store: store, Decode: decode}
}

// Fetch checks whether the artifact at location exists and, if it does,
// retrieves and decodes it.
func (f *Fetcher[T]) Fetch(ctx context.Context, location string) Result[T] {
	ok, err := f.Store.Exists(ctx, location)
	if err != nil {
		return failed[T](location, err)
	}
	if !ok {
		return Result[T]{Outcome: NotReady}
	}

	body, err := f.Store.Get(ctx, location)
	if err != nil {
		// deleted between the existence check and the read
		if errors.Is(err, ErrNotFound) {
			return Result[T]{Outcome: NotReady}
		}
		return failed[T](location, err)
	}

	data, err := f.Decode(body)
	if err != nil {
		return Result[T]{
			Outcome: Failed,
			Err:     &FetchError{Kind: Malformed, Location: location, Err: err},
		}
	}
	return Result[T]{Outcome: Ready, Data: data}
}

func failed[T any](location string, err error) Result[T] {
	kind := Transport
	switch {
	case errors.Is(err, ErrUnauthorized):
		kind = Unauthorized
	case errors.Is(err, ErrMalformedResponse):
		kind = Malformed
	}
	return Result[T]{
		Outcome: Failed,
		Err:     &FetchError{Kind: kind, Location: location, Err: err},
	}
}
