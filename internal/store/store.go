package store

import (
	"log/slog"
	"sync"

	"github.com/courseforge/courseforge/internal/content"
)

// Store owns the current course State and mediates every replacement
// of it. Reads return the current immutable snapshot; writes go
// through Commit, which either installs the whole candidate state or
// rejects it and leaves the prior state current.
//
// Thread-safety model:
//   - State(), Revision(), Tree(): safe from any goroutine
//   - Commit(), Restore(): safe from any goroutine, but the engine
//     serializes them behind its own single-writer discipline
type Store struct {
	mu     sync.RWMutex
	state  *State
	rev    Revision
	logger *slog.Logger

	// Denormalization memo, keyed by state pointer identity. Valid
	// because committed states are never mutated.
	treeMu    sync.Mutex
	treeState *State
	tree      *content.CourseTree
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for commit diagnostics.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a store holding an empty state for the given course.
func New(course *content.Course, opts ...Option) *Store {
	s := &Store{
		state:  NewState(course),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rev.Next()
	return s
}

// NewFromState creates a store around an existing state (e.g. one
// normalized from a fetched course tree). Panics if the state violates
// the store invariants - loading inconsistent data is a programming
// error, not a runtime condition to limp past.
func NewFromState(state *State, opts ...Option) *Store {
	if err := CheckIntegrity(state); err != nil {
		panic("store: initial state is inconsistent: " + err.Error())
	}
	s := &Store{
		state:  state,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rev.Next()
	return s
}

// State returns the current snapshot. The snapshot is immutable;
// callers that want to change it must Clone it and Commit the clone.
func (s *Store) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Revision returns the revision of the current state. Each successful
// Commit or Restore produces a new, strictly greater revision.
func (s *Store) Revision() int64 {
	return s.rev.Current()
}

// Commit atomically replaces the current state with next after
// verifying the store invariants. On violation the candidate is
// discarded, a diagnostic is logged, and the error is returned; the
// prior state stays current.
func (s *Store) Commit(next *State) error {
	if err := CheckIntegrity(next); err != nil {
		s.logger.Error("store: commit rejected",
			"error", err,
			"revision", s.rev.Current(),
		)
		return err
	}

	s.mu.Lock()
	s.state = next
	rev := s.rev.Next()
	s.mu.Unlock()

	s.logger.Debug("store: committed", "revision", rev)
	return nil
}

// Restore swaps a previously captured snapshot back in, discarding the
// current state. Snapshots were valid when captured and states are
// immutable, so no integrity check is repeated here.
func (s *Store) Restore(snapshot *State) {
	s.mu.Lock()
	s.state = snapshot
	rev := s.rev.Next()
	s.mu.Unlock()

	s.logger.Debug("store: restored snapshot", "revision", rev)
}

// Tree returns the denormalized view of the current state.
//
// The result is memoized against the state pointer: repeated calls
// between commits return the identical tree, so consumers can use
// reference equality as a cheap "nothing changed" check. The returned
// tree is shared and must not be modified; use Clone for a mutable copy.
func (s *Store) Tree() *content.CourseTree {
	cur := s.State()

	s.treeMu.Lock()
	defer s.treeMu.Unlock()
	if s.treeState == cur {
		return s.tree
	}
	s.tree = Denormalize(cur)
	s.treeState = cur
	return s.tree
}
