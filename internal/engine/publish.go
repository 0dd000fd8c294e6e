package engine

import (
	"context"

	"github.com/courseforge/courseforge/internal/content"
)

// Publish optimistically marks the course published, records a rollback
// point, and confirms with the backend. On failure the pre-publish
// state is restored and the classified error returned.
//
// Unlike autosaves, publish is synchronous: the caller asked for a
// server-visible effect and wants to know whether it happened.
func (e *Engine) Publish(ctx context.Context) error {
	return e.serverFlip(ctx, "publish", true, e.client.Publish)
}

// Unpublish optimistically reverts the course to draft, records a
// rollback point, and confirms with the backend.
func (e *Engine) Unpublish(ctx context.Context) error {
	return e.serverFlip(ctx, "unpublish", false, e.client.Unpublish)
}

func (e *Engine) serverFlip(ctx context.Context, op string, published bool, call func(context.Context, string) (*content.CourseTree, error)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	prev := e.store.State()
	next := prev.Clone()
	c := *next.Course
	c.Published = published
	c.Draft = !published
	next.Course = &c
	if err := e.store.Commit(next); err != nil {
		e.mu.Unlock()
		return err
	}
	entry := e.journal.Record(op, prev)
	courseID := c.ID
	e.mu.Unlock()

	tree, err := call(ctx, courseID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.journal.Rollback(entry, e.store)
		e.logger.Warn("engine: "+op+" failed, rolled back", "error", err)
		return err
	}
	e.journal.Resolve(entry)
	if tree != nil {
		e.adoptServerTreeLocked(tree)
	}
	e.logger.Info("engine: " + op + " confirmed")
	return nil
}

// CloneCourse asks the backend to duplicate the course and returns the
// new course's tree. Local state is untouched; the clone is a separate
// course that gets its own engine when opened.
func (e *Engine) CloneCourse(ctx context.Context) (*content.CourseTree, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	courseID := e.store.State().Course.ID
	e.mu.Unlock()

	tree, err := e.client.Clone(ctx, courseID)
	if err != nil {
		e.logger.Warn("engine: clone failed", "error", err)
		return nil, err
	}
	e.logger.Info("engine: cloned course", "source", courseID, "clone", tree.ID)
	return tree, nil
}
