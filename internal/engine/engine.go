package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/courseapi"
	"github.com/courseforge/courseforge/internal/store"
)

const (
	// DefaultDebounce is the quiet period between the last mutation of a
	// target and its save dispatch. Long enough to coalesce a typing
	// burst, short enough that closing the tab rarely loses work.
	DefaultDebounce = 400 * time.Millisecond

	// DefaultMaxAttempts is the dispatch ceiling per editing cycle: one
	// initial send plus three retries.
	DefaultMaxAttempts = 4

	// DefaultBaseBackoff is the delay before the first retry.
	DefaultBaseBackoff = 250 * time.Millisecond

	// DefaultMaxBackoff caps the exponential retry delay.
	DefaultMaxBackoff = 5 * time.Second
)

// Engine applies editor mutations to a normalized course state and
// persists them in the background. See the package documentation for
// the architecture.
type Engine struct {
	// mu serializes mutations and all scheduler bookkeeping.
	mu sync.Mutex

	store   *store.Store
	client  courseapi.Client
	ids     content.IDGenerator
	logger  *slog.Logger
	journal *Journal
	events  *StatusQueue

	debounce    time.Duration
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration

	targets map[Target]*saveState

	// ctx is the engine's lifetime; every dispatched request derives
	// from it so Close cancels whatever is on the wire.
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithIDGenerator sets the placeholder identifier generator. Defaults
// to content.TempIDGenerator; tests substitute a fixed sequence.
func WithIDGenerator(ids content.IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = ids
	}
}

// WithDebounce sets the save debounce window.
func WithDebounce(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.debounce = d
	}
}

// WithMaxAttempts sets the per-cycle dispatch ceiling.
func WithMaxAttempts(n int) EngineOption {
	return func(e *Engine) {
		e.maxAttempts = n
	}
}

// WithBackoff sets the retry backoff's base delay and cap.
func WithBackoff(base, max time.Duration) EngineOption {
	return func(e *Engine) {
		e.baseBackoff = base
		e.maxBackoff = max
	}
}

// New creates an engine over an existing store.
func New(st *store.Store, client courseapi.Client, opts ...EngineOption) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		store:       st,
		client:      client,
		ids:         content.TempIDGenerator{},
		logger:      slog.Default(),
		events:      NewStatusQueue(),
		debounce:    DefaultDebounce,
		maxAttempts: DefaultMaxAttempts,
		baseBackoff: DefaultBaseBackoff,
		maxBackoff:  DefaultMaxBackoff,
		targets:     map[Target]*saveState{},
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.journal = NewJournal(e.logger)
	return e
}

// Load fetches a course from the client, normalizes it, and returns an
// engine over the resulting store.
func Load(ctx context.Context, client courseapi.Client, courseID string, opts ...EngineOption) (*Engine, error) {
	tree, err := client.FetchCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return New(store.NewFromState(store.FromTree(tree)), client, opts...), nil
}

// Store exposes the underlying store for read access.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Tree returns the denormalized view of the current state. The tree is
// shared and memoized; callers must not modify it.
func (e *Engine) Tree() *content.CourseTree {
	return e.store.Tree()
}

// Events returns the status event queue. The queue is closed when the
// engine closes.
func (e *Engine) Events() *StatusQueue {
	return e.events
}

// Status returns a target's current save status and, for failed or
// retrying targets, the most recent error.
func (e *Engine) Status(t Target) (SaveStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.targets[t]
	if st == nil {
		return StatusIdle, nil
	}
	return st.status, st.lastErr
}

// Dirty reports whether any target has a scheduled or in-flight save.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busyLocked()
}

func (e *Engine) busyLocked() bool {
	for _, st := range e.targets {
		if st.status == StatusScheduled || st.status == StatusInFlight {
			return true
		}
	}
	return false
}

// Flush blocks until no target has a scheduled or in-flight save, or
// ctx expires. Failed targets do not block a flush.
func (e *Engine) Flush(ctx context.Context) error {
	for {
		if !e.Dirty() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Retry re-arms persistence for a failed target, saving the current
// state. No-op unless the target is in StatusFailed.
func (e *Engine) Retry(t Target) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.targets[t]
	if e.closed || st == nil || st.status != StatusFailed {
		return
	}
	e.markDirtyLocked(t, e.store.State())
}

// Close cancels all scheduled and in-flight saves, waits for their
// goroutines to drain, and closes the status queue. Unsaved changes are
// NOT persisted; call Flush first to drain them.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for _, st := range e.targets {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		if st.cancel != nil {
			st.cancel()
			st.cancel = nil
		}
	}
	e.cancel()
	e.mu.Unlock()

	e.wg.Wait()
	e.events.Close()
	e.logger.Debug("engine: closed")
}
