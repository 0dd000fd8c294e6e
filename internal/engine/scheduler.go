package engine

import (
	"context"
	"time"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/courseapi"
	"github.com/courseforge/courseforge/internal/store"
)

// saveState is one target's persistence state machine. All fields are
// guarded by Engine.mu.
type saveState struct {
	status SaveStatus

	// epoch increments every time the target is marked dirty. A
	// dispatch carries the epoch it was armed under; results arriving
	// with a stale epoch were superseded and are discarded.
	epoch uint64

	// attempt counts dispatches in the current editing cycle.
	attempt int

	// entry is the rollback point for the cycle: the last state the
	// backend is known to hold. Recorded on the first dirtying mutation
	// after a save, resolved on success, rolled back on terminal failure.
	entry *JournalEntry

	// conflictRefetched guards the fetch-reconcile-resend conflict
	// recovery so a persistent conflict cannot loop.
	conflictRefetched bool

	timer   *time.Timer
	cancel  context.CancelFunc
	lastErr error
}

// savePayload is the data captured under the engine lock for one
// dispatch. Only the fields for the target's kind are set.
type savePayload struct {
	tree     *content.CourseTree
	courseID string
	moduleID string
	ids      []string
}

// markDirtyLocked transitions a target to scheduled, superseding any
// pending or in-flight save. prev is the pre-mutation snapshot; the
// first dirtying mutation of a cycle retains it as the rollback point.
func (e *Engine) markDirtyLocked(t Target, prev *store.State) {
	if e.closed {
		return
	}
	st := e.targets[t]
	if st == nil {
		st = &saveState{}
		e.targets[t] = st
	}
	st.epoch++
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	if st.cancel != nil {
		// Supersede the in-flight save. The request context is
		// cancelled and its eventual result fails the epoch check.
		st.cancel()
		st.cancel = nil
	}
	if st.entry == nil {
		st.entry = e.journal.Record("autosave "+t.String(), prev)
	}
	st.status = StatusScheduled
	st.attempt = 0
	st.lastErr = nil
	st.conflictRefetched = false

	epoch := st.epoch
	st.timer = time.AfterFunc(e.debounce, func() {
		e.beginSave(t, epoch)
	})
	e.publishLocked(t, st)
}

// beginSave fires when a target's debounce or backoff timer expires.
// It captures the payload from the CURRENT state and dispatches it.
func (e *Engine) beginSave(t Target, epoch uint64) {
	e.mu.Lock()
	st := e.targets[t]
	if st == nil || st.epoch != epoch || e.closed {
		e.mu.Unlock()
		return
	}
	st.timer = nil

	payload, ok := e.capturePayloadLocked(t)
	if !ok {
		// The target's subject vanished (module deleted while its
		// lesson order was pending). Nothing left to save.
		e.resolveEmptyLocked(t, st)
		e.mu.Unlock()
		return
	}

	if t.Kind != TargetCourse && hasTempID(payload.ids) {
		// The ordering endpoints only accept permanent identifiers.
		// Hold the dispatch until the course save reconciles the
		// placeholders, then re-check.
		st.timer = time.AfterFunc(e.debounce, func() {
			e.beginSave(t, epoch)
		})
		e.logger.Debug("engine: ordering save waiting for permanent identifiers",
			"target", t.String())
		e.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(e.ctx)
	st.cancel = cancel
	st.status = StatusInFlight
	st.attempt++
	e.publishLocked(t, st)

	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		result, err := e.dispatch(ctx, t, payload)
		cancel()
		e.onSaveDone(t, epoch, result, err)
	}()
}

func hasTempID(ids []string) bool {
	for _, id := range ids {
		if content.IsTempID(id) {
			return true
		}
	}
	return false
}

func (e *Engine) resolveEmptyLocked(t Target, st *saveState) {
	if st.entry != nil {
		e.journal.Resolve(st.entry)
		st.entry = nil
	}
	st.status = StatusIdle
	st.lastErr = nil
	e.publishLocked(t, st)
}

func (e *Engine) capturePayloadLocked(t Target) (savePayload, bool) {
	cur := e.store.State()
	switch t.Kind {
	case TargetCourse:
		return savePayload{tree: store.Denormalize(cur)}, true
	case TargetModuleOrder:
		return savePayload{
			courseID: cur.Course.ID,
			ids:      append([]string(nil), cur.ModuleOrder...),
		}, true
	case TargetLessonOrder:
		if _, ok := cur.Modules[t.Key]; !ok {
			return savePayload{}, false
		}
		return savePayload{
			moduleID: t.Key,
			ids:      append([]string(nil), cur.LessonIDs(t.Key)...),
		}, true
	}
	return savePayload{}, false
}

func (e *Engine) dispatch(ctx context.Context, t Target, p savePayload) (*content.CourseTree, error) {
	switch t.Kind {
	case TargetCourse:
		return e.client.SaveCourse(ctx, p.tree)
	case TargetModuleOrder:
		return nil, e.client.ReorderModules(ctx, p.courseID, p.ids)
	default:
		return nil, e.client.ReorderLessons(ctx, p.moduleID, p.ids)
	}
}

// onSaveDone applies a dispatch result to the target's state machine.
func (e *Engine) onSaveDone(t Target, epoch uint64, result *content.CourseTree, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.targets[t]
	if st == nil || st.epoch != epoch || e.closed {
		// Superseded or shut down; the result belongs to a state the
		// editor has already moved past.
		e.logger.Debug("engine: discarding stale save result", "target", t.String())
		return
	}
	st.cancel = nil

	if err == nil {
		if st.entry != nil {
			e.journal.Resolve(st.entry)
			st.entry = nil
		}
		st.status = StatusSaved
		st.lastErr = nil
		st.conflictRefetched = false
		if result != nil {
			e.adoptServerTreeLocked(result)
		}
		e.logger.Info("engine: saved", "target", t.String(), "attempt", st.attempt)
		e.publishLocked(t, st)
		return
	}

	st.lastErr = err
	switch {
	case courseapi.IsConflict(err) && !st.conflictRefetched:
		// The backend no longer recognizes something we sent, most
		// often a placeholder identifier in an ordering list. Blind
		// retries cannot fix that; fetch, reconcile, re-send once.
		st.conflictRefetched = true
		st.status = StatusScheduled
		e.logger.Warn("engine: save conflict, refetching", "target", t.String(), "error", err)
		e.publishLocked(t, st)
		e.wg.Add(1)
		go e.refetchAndRearm(t, epoch)

	case courseapi.Retryable(err) && st.attempt < e.maxAttempts:
		st.status = StatusScheduled
		delay := backoffDelay(e.baseBackoff, e.maxBackoff, st.attempt)
		e.logger.Warn("engine: save failed, retrying",
			"target", t.String(),
			"attempt", st.attempt,
			"delay", delay,
			"error", err,
		)
		st.timer = time.AfterFunc(delay, func() {
			e.beginSave(t, epoch)
		})
		e.publishLocked(t, st)

	default:
		st.status = StatusFailed
		if st.entry != nil {
			e.journal.Rollback(st.entry, e.store)
			st.entry = nil
		}
		e.logger.Error("engine: save failed, rolled back",
			"target", t.String(),
			"attempts", st.attempt,
			"error", err,
		)
		e.publishLocked(t, st)
	}
}

// refetchAndRearm recovers from a conflict: pull the backend's current
// tree, reconcile local placeholders against it, then re-arm the save
// so the next dispatch carries recognized identifiers.
func (e *Engine) refetchAndRearm(t Target, epoch uint64) {
	defer e.wg.Done()

	courseID := e.store.State().Course.ID
	fresh, err := e.client.FetchCourse(e.ctx, courseID)

	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.targets[t]
	if st == nil || st.epoch != epoch || e.closed {
		return
	}
	if err != nil {
		st.status = StatusFailed
		st.lastErr = err
		if st.entry != nil {
			e.journal.Rollback(st.entry, e.store)
			st.entry = nil
		}
		e.logger.Error("engine: conflict refetch failed, rolled back",
			"target", t.String(), "error", err)
		e.publishLocked(t, st)
		return
	}

	e.adoptServerTreeLocked(fresh)

	st.epoch++
	st.attempt = 0
	st.status = StatusScheduled
	next := st.epoch
	st.timer = time.AfterFunc(e.debounce, func() {
		e.beginSave(t, next)
	})
	e.publishLocked(t, st)
}

// adoptServerTreeLocked reconciles a server-returned tree against the
// current state and commits the result when anything changed.
func (e *Engine) adoptServerTreeLocked(tree *content.CourseTree) {
	cur := e.store.State()
	next, stats := Reconcile(cur, tree, e.logger)
	if next == cur {
		return
	}
	if err := e.store.Commit(next); err != nil {
		// Reconcile only rewrites identifiers in place, so a rejected
		// commit means a bug in the rewrite, not bad server data.
		e.logger.Error("engine: reconciled state rejected", "error", err)
		return
	}
	e.logger.Info("engine: reconciled placeholder identifiers",
		"modules", stats.Modules,
		"lessons", stats.Lessons,
		"resources", stats.Resources,
		"ambiguous", stats.Ambiguous,
	)
}

func (e *Engine) publishLocked(t Target, st *saveState) {
	e.events.Publish(StatusEvent{
		Target:   t,
		Status:   st.status,
		Attempt:  st.attempt,
		Revision: e.store.Revision(),
		Err:      st.lastErr,
	})
}
