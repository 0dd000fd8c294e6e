package testutil

import (
	"context"
	"strconv"
	"sync"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/courseapi"
)

// Call records one collaborator invocation for assertions.
type Call struct {
	Method   string
	CourseID string
	ModuleID string
	LessonID string
	IDs      []string
	Index    int
}

// FakeClient is an in-memory courseapi.Client.
//
// It keeps a canonical server-side copy of the course tree, assigns
// sequential permanent identifiers ("1", "2", ...) to placeholders on
// save, records every call, and pops scripted errors queued per method
// with FailNext.
//
// Thread-safety: all methods are safe for concurrent use; the engine
// calls them from dispatch goroutines.
type FakeClient struct {
	mu       sync.Mutex
	tree     *content.CourseTree
	nextID   int
	calls    []Call
	failures map[string][]error

	// saveGate, when set, blocks SaveCourse until the gate is closed or
	// the request context is cancelled. Used to test supersede.
	saveGate chan struct{}
}

var _ courseapi.Client = (*FakeClient)(nil)

// NewFakeClient creates a fake serving the given tree. The tree is
// deep-copied; the caller's copy stays independent.
func NewFakeClient(tree *content.CourseTree) *FakeClient {
	return &FakeClient{
		tree:     tree.Clone(),
		nextID:   1,
		failures: map[string][]error{},
	}
}

// FailNext queues errors to return from the next calls of method, in
// order. Method names match the Client interface ("SaveCourse" etc).
func (f *FakeClient) FailNext(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = append(f.failures[method], errs...)
}

// GateSaves makes SaveCourse block until the returned function is
// called (or the request context is cancelled).
func (f *FakeClient) GateSaves() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.saveGate = gate
	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Calls returns a copy of the recorded call log.
func (f *FakeClient) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times method was invoked.
func (f *FakeClient) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// ServerTree returns a deep copy of the fake's canonical tree.
func (f *FakeClient) ServerTree() *content.CourseTree {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tree.Clone()
}

// SetServerTree replaces the fake's canonical tree, simulating an edit
// made by another client.
func (f *FakeClient) SetServerTree(tree *content.CourseTree) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tree = tree.Clone()
}

// record logs the call and pops a scripted failure, if one is queued.
func (f *FakeClient) record(c Call) error {
	f.calls = append(f.calls, c)
	if q := f.failures[c.Method]; len(q) > 0 {
		err := q[0]
		f.failures[c.Method] = q[1:]
		return err
	}
	return nil
}

func (f *FakeClient) newIDLocked() string {
	id := strconv.Itoa(f.nextID)
	f.nextID++
	return id
}

// assignIDsLocked replaces placeholder identifiers throughout the tree
// and resyncs parent references and Order fields with position.
func (f *FakeClient) assignIDsLocked(tree *content.CourseTree) {
	for mi := range tree.Modules {
		mt := &tree.Modules[mi]
		if content.IsTempID(mt.ID) {
			mt.ID = f.newIDLocked()
		}
		mt.CourseID = tree.ID
		mt.Order = mi
		for li := range mt.Lessons {
			lt := &mt.Lessons[li]
			if content.IsTempID(lt.ID) {
				lt.ID = f.newIDLocked()
			}
			lt.ModuleID = mt.ID
			lt.Order = li
			for ri := range lt.Resources {
				r := &lt.Resources[ri]
				if content.IsTempID(r.ID) {
					r.ID = f.newIDLocked()
				}
				r.LessonID = lt.ID
				r.Order = ri
			}
		}
	}
}

// FetchCourse implements courseapi.Client.
func (f *FakeClient) FetchCourse(ctx context.Context, courseID string) (*content.CourseTree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "FetchCourse", CourseID: courseID}); err != nil {
		return nil, err
	}
	if courseID != f.tree.ID {
		return nil, courseapi.NewError(courseapi.KindFatal, "fetch course", "no such course "+courseID)
	}
	return f.tree.Clone(), nil
}

// SaveCourse implements courseapi.Client.
func (f *FakeClient) SaveCourse(ctx context.Context, tree *content.CourseTree) (*content.CourseTree, error) {
	f.mu.Lock()
	gate := f.saveGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "SaveCourse", CourseID: tree.ID}); err != nil {
		return nil, err
	}
	stored := tree.Clone()
	f.assignIDsLocked(stored)
	f.tree = stored
	return stored.Clone(), nil
}

// CreateLesson implements courseapi.Client.
func (f *FakeClient) CreateLesson(ctx context.Context, moduleID string, lesson *content.Lesson) (*content.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "CreateLesson", ModuleID: moduleID}); err != nil {
		return nil, err
	}
	for mi := range f.tree.Modules {
		mt := &f.tree.Modules[mi]
		if mt.ID != moduleID {
			continue
		}
		l := *lesson
		if content.IsTempID(l.ID) || l.ID == "" {
			l.ID = f.newIDLocked()
		}
		l.ModuleID = moduleID
		l.Order = len(mt.Lessons)
		mt.Lessons = append(mt.Lessons, content.LessonTree{Lesson: l})
		out := l
		return &out, nil
	}
	return nil, courseapi.NewError(courseapi.KindConflict, "create lesson", "no such module "+moduleID)
}

// ReorderModules implements courseapi.Client. Identifiers the server
// does not hold (placeholders included) are rejected as conflicts,
// mirroring the REST backend.
func (f *FakeClient) ReorderModules(ctx context.Context, courseID string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "ReorderModules", CourseID: courseID, IDs: append([]string(nil), ids...)}); err != nil {
		return err
	}
	byID := map[string]content.ModuleTree{}
	for _, mt := range f.tree.Modules {
		byID[mt.ID] = mt
	}
	next := make([]content.ModuleTree, 0, len(ids))
	for i, id := range ids {
		mt, ok := byID[id]
		if !ok {
			return courseapi.NewError(courseapi.KindConflict, "reorder modules", "unknown module "+id)
		}
		mt.Order = i
		next = append(next, mt)
		delete(byID, id)
	}
	if len(byID) != 0 {
		return courseapi.NewError(courseapi.KindValidation, "reorder modules", "ordering must list every module exactly once")
	}
	f.tree.Modules = next
	return nil
}

// ReorderLessons implements courseapi.Client.
func (f *FakeClient) ReorderLessons(ctx context.Context, moduleID string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "ReorderLessons", ModuleID: moduleID, IDs: append([]string(nil), ids...)}); err != nil {
		return err
	}
	for mi := range f.tree.Modules {
		mt := &f.tree.Modules[mi]
		if mt.ID != moduleID {
			continue
		}
		byID := map[string]content.LessonTree{}
		for _, lt := range mt.Lessons {
			byID[lt.ID] = lt
		}
		next := make([]content.LessonTree, 0, len(ids))
		for i, id := range ids {
			lt, ok := byID[id]
			if !ok {
				return courseapi.NewError(courseapi.KindConflict, "reorder lessons", "unknown lesson "+id)
			}
			lt.Order = i
			next = append(next, lt)
			delete(byID, id)
		}
		if len(byID) != 0 {
			return courseapi.NewError(courseapi.KindValidation, "reorder lessons", "ordering must list every lesson exactly once")
		}
		mt.Lessons = next
		return nil
	}
	return courseapi.NewError(courseapi.KindConflict, "reorder lessons", "no such module "+moduleID)
}

// MoveLesson implements courseapi.Client.
func (f *FakeClient) MoveLesson(ctx context.Context, lessonID, targetModuleID string, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "MoveLesson", LessonID: lessonID, ModuleID: targetModuleID, Index: index}); err != nil {
		return err
	}
	var moved *content.LessonTree
	for mi := range f.tree.Modules {
		mt := &f.tree.Modules[mi]
		for li := range mt.Lessons {
			if mt.Lessons[li].ID == lessonID {
				lt := mt.Lessons[li]
				moved = &lt
				mt.Lessons = append(mt.Lessons[:li], mt.Lessons[li+1:]...)
				break
			}
		}
		if moved != nil {
			break
		}
	}
	if moved == nil {
		return courseapi.NewError(courseapi.KindConflict, "move lesson", "unknown lesson "+lessonID)
	}
	for mi := range f.tree.Modules {
		mt := &f.tree.Modules[mi]
		if mt.ID != targetModuleID {
			continue
		}
		if index < 0 || index > len(mt.Lessons) {
			index = len(mt.Lessons)
		}
		moved.ModuleID = targetModuleID
		mt.Lessons = append(mt.Lessons[:index], append([]content.LessonTree{*moved}, mt.Lessons[index:]...)...)
		for li := range mt.Lessons {
			mt.Lessons[li].Order = li
		}
		return nil
	}
	return courseapi.NewError(courseapi.KindConflict, "move lesson", "unknown module "+targetModuleID)
}

// Publish implements courseapi.Client.
func (f *FakeClient) Publish(ctx context.Context, courseID string) (*content.CourseTree, error) {
	return f.flip(ctx, "Publish", courseID, true)
}

// Unpublish implements courseapi.Client.
func (f *FakeClient) Unpublish(ctx context.Context, courseID string) (*content.CourseTree, error) {
	return f.flip(ctx, "Unpublish", courseID, false)
}

func (f *FakeClient) flip(ctx context.Context, method, courseID string, published bool) (*content.CourseTree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: method, CourseID: courseID}); err != nil {
		return nil, err
	}
	f.tree.Published = published
	f.tree.Draft = !published
	return f.tree.Clone(), nil
}

// Clone implements courseapi.Client. Every entity of the duplicate gets
// a fresh permanent identifier; the clone always starts as a draft.
func (f *FakeClient) Clone(ctx context.Context, courseID string) (*content.CourseTree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: "Clone", CourseID: courseID}); err != nil {
		return nil, err
	}
	dup := f.tree.Clone()
	dup.ID = f.newIDLocked()
	dup.Draft = true
	dup.Published = false
	for mi := range dup.Modules {
		mt := &dup.Modules[mi]
		mt.ID = f.newIDLocked()
		mt.CourseID = dup.ID
		for li := range mt.Lessons {
			lt := &mt.Lessons[li]
			lt.ID = f.newIDLocked()
			lt.ModuleID = mt.ID
			for ri := range lt.Resources {
				r := &lt.Resources[ri]
				r.ID = f.newIDLocked()
				r.LessonID = lt.ID
			}
		}
	}
	return dup, nil
}
