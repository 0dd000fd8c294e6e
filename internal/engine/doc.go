// Package engine implements the course builder's state engine.
//
// The engine owns a normalized course state (internal/store) and applies
// editor mutations to it optimistically: every mutation validates its
// inputs, commits a new immutable snapshot, and schedules persistence in
// the background. The editor never waits on the network.
//
// ARCHITECTURE:
//
// Single-Writer Mutations:
// All mutations serialize behind one mutex. Each mutation reads the
// current snapshot, clones it, applies its change, and commits the clone.
// Readers keep whatever snapshot they already hold; nothing is mutated
// in place.
//
// Persistence Scheduler:
// Each save target (the course tree, the module ordering, one module's
// lesson ordering) runs an independent state machine:
//
//	idle -> scheduled -> in-flight -> saved | failed
//
// A mutation marks its target dirty, which (re)arms a debounce timer.
// When the timer fires the engine captures the payload from the CURRENT
// state, dispatches the save on a goroutine, and records the attempt.
// A newer mutation on the same target supersedes any scheduled or
// in-flight save: the timer is stopped, the in-flight request's context
// is cancelled, and the stale result is discarded by epoch comparison.
//
// Failures are classified by internal/courseapi. Network and rate-limit
// failures retry with exponential backoff up to an attempt ceiling;
// conflicts trigger a fresh fetch plus identifier reconciliation and
// one re-send; everything else fails the target and rolls the store
// back to the last saved snapshot.
//
// Placeholder Reconciliation:
// Entities created locally carry "tmp_" identifiers until the backend
// assigns permanent ones. Reconcile maps server-returned entities onto
// local placeholders by title, position, and child count, then rewrites
// every reference to the placeholder in one commit.
//
// Rollback Journal:
// Snapshots are immutable, so a rollback point is just a retained state
// pointer. The journal records one entry per unsaved editing cycle and
// per server-dependent operation (publish, unpublish); rolling back
// swaps the retained snapshot back into the store.
package engine
