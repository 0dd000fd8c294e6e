package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/courseforge/courseforge/internal/store"
)

// JournalEntry is one rollback point: the state retained before an
// optimistic change whose persistence is still unresolved.
type JournalEntry struct {
	Op       string
	Snapshot *store.State
	At       time.Time
}

// Journal tracks rollback points for unresolved optimistic changes.
//
// States are immutable, so an entry is nothing more than a retained
// pointer; rolling back swaps that pointer back into the store. The
// engine records one entry per unsaved editing cycle of a save target
// and one per server-dependent operation (publish, unpublish).
//
// Rollback is coarse: restoring an entry discards every optimistic
// change applied after it was recorded, not only the failed one. With
// the single-writer mutation model this is the honest choice; selective
// undo of an interleaved edit would fabricate states that never existed.
type Journal struct {
	mu      sync.Mutex
	entries map[*JournalEntry]struct{}
	logger  *slog.Logger
}

// NewJournal creates an empty journal.
func NewJournal(logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		entries: map[*JournalEntry]struct{}{},
		logger:  logger,
	}
}

// Record retains snap as the rollback point for op.
func (j *Journal) Record(op string, snap *store.State) *JournalEntry {
	e := &JournalEntry{Op: op, Snapshot: snap, At: time.Now()}
	j.mu.Lock()
	j.entries[e] = struct{}{}
	j.mu.Unlock()

	j.logger.Debug("journal: recorded", "op", op)
	return e
}

// Resolve drops an entry whose operation was confirmed by the backend.
func (j *Journal) Resolve(e *JournalEntry) {
	j.mu.Lock()
	delete(j.entries, e)
	j.mu.Unlock()

	j.logger.Debug("journal: resolved", "op", e.Op)
}

// Rollback restores an entry's snapshot into st and drops the entry.
func (j *Journal) Rollback(e *JournalEntry, st *store.Store) {
	j.mu.Lock()
	delete(j.entries, e)
	j.mu.Unlock()

	st.Restore(e.Snapshot)
	j.logger.Warn("journal: rolled back", "op", e.Op)
}

// Pending returns the number of unresolved entries.
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}
