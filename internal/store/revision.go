package store

import "sync/atomic"

// Revision is a monotonic counter stamped on every committed state.
//
// Consumers (memoized selectors, save scheduling) compare revisions to
// answer "did anything change since I last looked" without walking the
// state. A strictly increasing counter also keeps log lines orderable
// without wall-clock comparisons.
//
// Thread-safety: safe for concurrent use (atomic operations). The
// store's single-writer commit path means only one goroutine typically
// calls Next().
type Revision struct {
	n atomic.Int64
}

// Next increments the counter and returns the new value.
// Calls are linearizable - each call returns a unique, increasing value.
func (r *Revision) Next() int64 {
	return r.n.Add(1)
}

// Current returns the counter without incrementing.
func (r *Revision) Current() int64 {
	return r.n.Load()
}
