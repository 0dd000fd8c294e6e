// Package store holds the normalized course state: flat entity maps
// keyed by identifier plus explicit ordering lists per parent. It is
// the single source of truth for the builder; the nested tree view is
// always derived from it and never the other way around.
//
// State values are immutable by discipline: a mutation clones the
// current state, edits the clone, and asks the Store to commit it.
// Entities are replaced wholesale, never field-mutated through a
// shared pointer. This makes change detection (pointer comparison),
// snapshots, and rollback trivial - a snapshot is just the old *State.
//
// Commit is atomic behind an integrity check: a state that violates
// referential integrity (dangling ordering-list entries, order fields
// out of step with list positions, parent references pointing at the
// wrong parent) is rejected and logged, and the prior state remains
// current. No partial write is ever observable.
package store
