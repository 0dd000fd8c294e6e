package engine

import (
	"sync"
)

// TargetKind distinguishes the independently persisted slices of state.
type TargetKind string

const (
	// TargetCourse is the full course tree, saved as one document.
	TargetCourse TargetKind = "course"
	// TargetModuleOrder is the course's module ordering list.
	TargetModuleOrder TargetKind = "module-order"
	// TargetLessonOrder is one module's lesson ordering list.
	TargetLessonOrder TargetKind = "lesson-order"
)

// Target names one save target. Key is the owning module identifier for
// TargetLessonOrder and empty otherwise. Targets are comparable and used
// as map keys.
type Target struct {
	Kind TargetKind
	Key  string
}

// CourseTarget returns the full-tree save target.
func CourseTarget() Target {
	return Target{Kind: TargetCourse}
}

// ModuleOrderTarget returns the module ordering save target.
func ModuleOrderTarget() Target {
	return Target{Kind: TargetModuleOrder}
}

// LessonOrderTarget returns the lesson ordering target for a module.
func LessonOrderTarget(moduleID string) Target {
	return Target{Kind: TargetLessonOrder, Key: moduleID}
}

func (t Target) String() string {
	if t.Key == "" {
		return string(t.Kind)
	}
	return string(t.Kind) + ":" + t.Key
}

// SaveStatus is one state of a target's persistence state machine.
type SaveStatus string

const (
	// StatusIdle means the target has no unsaved changes and no history
	// worth reporting.
	StatusIdle SaveStatus = "idle"
	// StatusScheduled means a save is armed behind the debounce timer
	// or a retry backoff.
	StatusScheduled SaveStatus = "scheduled"
	// StatusInFlight means a save request is on the wire.
	StatusInFlight SaveStatus = "in-flight"
	// StatusSaved means the last save succeeded and nothing is pending.
	StatusSaved SaveStatus = "saved"
	// StatusFailed means the save gave up; the store was rolled back to
	// the last saved snapshot and Err carries the final failure.
	StatusFailed SaveStatus = "failed"
)

// StatusEvent is one transition of a target's state machine, published
// to the engine's status queue for UI consumption.
type StatusEvent struct {
	Target   Target
	Status   SaveStatus
	Attempt  int   // dispatch attempts in the current editing cycle
	Revision int64 // store revision when the transition happened
	Err      error // terminal or most recent failure, nil otherwise
}

// StatusQueue is a thread-safe FIFO of status events.
//
// The queue is unbounded so a burst of mutations can never block the
// single-writer mutation path on a slow consumer.
//
// The signal channel is buffered with size 1 so repeated publishes
// coalesce; consumers pair Wait with TryNext in a select loop for
// context-aware draining.
type StatusQueue struct {
	mu     sync.Mutex
	events []StatusEvent
	closed bool
	signal chan struct{}
}

// NewStatusQueue creates an empty status queue.
func NewStatusQueue() *StatusQueue {
	return &StatusQueue{
		events: make([]StatusEvent, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Publish appends an event. Returns false if the queue is closed.
func (q *StatusQueue) Publish(ev StatusEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, ev)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryNext pops the oldest event without blocking.
// Returns (StatusEvent{}, false) when the queue is empty.
func (q *StatusQueue) TryNext() (StatusEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return StatusEvent{}, false
	}
	ev := q.events[0]
	q.events[0] = StatusEvent{} // release the Err pointer
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return ev, true
}

// Wait returns a channel that signals when events may be available.
// Use with select alongside a context's Done channel, then TryNext.
func (q *StatusQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued events.
func (q *StatusQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops accepting events and wakes all waiters.
func (q *StatusQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
