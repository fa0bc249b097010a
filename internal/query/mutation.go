package query

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/trackctl/internal/domain"
)

// MutationState is the lifecycle of a mutation run.
type MutationState int

const (
	MutationIdle MutationState = iota
	MutationPending
	MutationSuccess
	MutationError
)

func (s MutationState) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationSuccess:
		return "success"
	case MutationError:
		return "error"
	default:
		return "idle"
	}
}

// Optimistic is a local change made before a mutation resolves.
// *Patch satisfies it.
type Optimistic interface {
	Commit()
	Rollback()
}

// MutationOptions are the lifecycle hooks of a mutation. All are optional.
type MutationOptions[In, Out any] struct {
	// OnMutate runs before the request. A returned Optimistic is committed
	// on success and rolled back on failure.
	OnMutate  func(ctx context.Context, in In) (Optimistic, error)
	OnSuccess func(ctx context.Context, in In, out Out)
	OnError   func(ctx context.Context, in In, err error)
	OnSettled func(ctx context.Context, in In, out Out, err error)
	Logger    *slog.Logger
}

// Mutation runs one logical write action. At most one run is in flight at a
// time. Mutations are never retried.
type Mutation[In, Out any] struct {
	name string
	fn   func(ctx context.Context, in In) (Out, error)
	opts MutationOptions[In, Out]

	mu    sync.Mutex
	state MutationState
	err   error
}

// NewMutation creates a mutation named name that calls fn.
func NewMutation[In, Out any](name string, fn func(ctx context.Context, in In) (Out, error), opts MutationOptions[In, Out]) *Mutation[In, Out] {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Mutation[In, Out]{name: name, fn: fn, opts: opts}
}

// State returns the current state and the error of the last failed run.
func (m *Mutation[In, Out]) State() (MutationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.err
}

// Pending reports whether a run is in flight.
func (m *Mutation[In, Out]) Pending() bool {
	s, _ := m.State()
	return s == MutationPending
}

// Run executes the mutation. It returns domain.ErrMutationPending when a
// previous run has not settled.
func (m *Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	var zero Out

	m.mu.Lock()
	if m.state == MutationPending {
		m.mu.Unlock()
		return zero, domain.ErrMutationPending
	}
	m.state = MutationPending
	m.err = nil
	m.mu.Unlock()

	var optimistic Optimistic
	if m.opts.OnMutate != nil {
		o, err := m.opts.OnMutate(ctx, in)
		if err != nil {
			m.finish(ctx, in, zero, err)
			return zero, err
		}
		optimistic = o
	}

	out, err := m.fn(ctx, in)
	if optimistic != nil {
		if err != nil {
			optimistic.Rollback()
		} else {
			optimistic.Commit()
		}
	}

	m.finish(ctx, in, out, err)
	return out, err
}

func (m *Mutation[In, Out]) finish(ctx context.Context, in In, out Out, err error) {
	if err != nil {
		m.opts.Logger.Error("mutation failed", "mutation", m.name, "error", err)
		if m.opts.OnError != nil {
			m.opts.OnError(ctx, in, err)
		}
	} else if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(ctx, in, out)
	}
	if m.opts.OnSettled != nil {
		m.opts.OnSettled(ctx, in, out, err)
	}

	m.mu.Lock()
	if err != nil {
		m.state = MutationError
		m.err = err
	} else {
		m.state = MutationSuccess
	}
	m.mu.Unlock()
}
