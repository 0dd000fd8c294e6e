package engine

import (
	"strings"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/store"
)

// Mutations follow one shape: lock, validate against the current
// snapshot, clone, apply, commit, mark the owning save target dirty.
// Validation failures leave the state untouched and schedule nothing.

// CourseUpdate carries the course fields a mutation may change. Nil
// means "leave as is".
type CourseUpdate struct {
	Title       *string
	Description *string
	PriceCents  *int64
}

// ModuleUpdate carries the module fields a mutation may change.
type ModuleUpdate struct {
	Title       *string
	Description *string
}

// LessonUpdate carries the lesson fields a mutation may change.
type LessonUpdate struct {
	Title       *string
	Content     *string
	ContentHTML *string
	Type        *content.LessonType
	Access      *content.AccessLevel
}

// ResourceUpdate carries the resource fields a mutation may change.
type ResourceUpdate struct {
	Title   *string
	URL     *string
	Type    *content.ResourceType
	Premium *bool
}

// UpdateCourse applies a partial update to the course's own fields.
func (e *Engine) UpdateCourse(upd CourseUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	next := cur.Clone()
	c := *next.Course
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return errEmptyTitle("course")
		}
		c.Title = *upd.Title
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.PriceCents != nil {
		c.PriceCents = *upd.PriceCents
	}
	next.Course = &c
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// AddModule appends a module with a placeholder identifier and returns
// a copy of it.
func (e *Engine) AddModule(title, description string) (*content.Module, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if strings.TrimSpace(title) == "" {
		return nil, errEmptyTitle("module")
	}

	cur := e.store.State()
	m := &content.Module{
		ID:          e.ids.NewID(),
		CourseID:    cur.Course.ID,
		Title:       title,
		Description: description,
		Order:       len(cur.ModuleOrder),
	}
	next := cur.Clone()
	next.Modules[m.ID] = m
	next.ModuleOrder = append(next.ModuleOrder, m.ID)
	next.LessonOrder[m.ID] = []string{}
	if err := e.store.Commit(next); err != nil {
		return nil, err
	}
	e.markDirtyLocked(CourseTarget(), cur)

	out := *m
	return &out, nil
}

// UpdateModule applies a partial update to a module.
func (e *Engine) UpdateModule(id string, upd ModuleUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	old, ok := cur.Modules[id]
	if !ok {
		return errUnknown("module", id)
	}
	m := *old
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return errEmptyTitle("module")
		}
		m.Title = *upd.Title
	}
	if upd.Description != nil {
		m.Description = *upd.Description
	}
	next := cur.Clone()
	next.Modules[id] = &m
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// DeleteModule removes a module with its lessons and resources, then
// reindexes the remaining modules.
func (e *Engine) DeleteModule(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	if _, ok := cur.Modules[id]; !ok {
		return errUnknown("module", id)
	}

	next := cur.Clone()
	for _, lid := range next.LessonOrder[id] {
		deleteLessonCascade(next, lid)
	}
	delete(next.LessonOrder, id)
	delete(next.Modules, id)
	next.ModuleOrder = removeID(next.ModuleOrder, id)
	renumberModules(next)
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// ReorderModules replaces the course's module ordering. ids must be a
// permutation of the current module identifiers.
func (e *Engine) ReorderModules(ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	if err := validatePermutation(ids, cur.ModuleOrder, "module"); err != nil {
		return err
	}
	next := cur.Clone()
	next.ModuleOrder = append([]string(nil), ids...)
	renumberModules(next)
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(ModuleOrderTarget(), cur)
	return nil
}

// AddLesson appends a lesson to a module and returns a copy of it.
func (e *Engine) AddLesson(moduleID, title string, typ content.LessonType, access content.AccessLevel) (*content.Lesson, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if strings.TrimSpace(title) == "" {
		return nil, errEmptyTitle("lesson")
	}

	cur := e.store.State()
	if _, ok := cur.Modules[moduleID]; !ok {
		return nil, errUnknown("module", moduleID)
	}
	l := &content.Lesson{
		ID:       e.ids.NewID(),
		ModuleID: moduleID,
		Title:    title,
		Type:     typ,
		Access:   access,
		Order:    len(cur.LessonIDs(moduleID)),
	}
	next := cur.Clone()
	next.Lessons[l.ID] = l
	next.LessonOrder[moduleID] = append(next.LessonOrder[moduleID], l.ID)
	next.ResourceOrder[l.ID] = []string{}
	if err := e.store.Commit(next); err != nil {
		return nil, err
	}
	e.markDirtyLocked(CourseTarget(), cur)

	out := *l
	return &out, nil
}

// UpdateLesson applies a partial update to a lesson.
func (e *Engine) UpdateLesson(id string, upd LessonUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	old, ok := cur.Lessons[id]
	if !ok {
		return errUnknown("lesson", id)
	}
	l := *old
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return errEmptyTitle("lesson")
		}
		l.Title = *upd.Title
	}
	if upd.Content != nil {
		l.Content = *upd.Content
	}
	if upd.ContentHTML != nil {
		l.ContentHTML = *upd.ContentHTML
	}
	if upd.Type != nil {
		l.Type = *upd.Type
	}
	if upd.Access != nil {
		l.Access = *upd.Access
	}
	next := cur.Clone()
	next.Lessons[id] = &l
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// DeleteLesson removes a lesson and its resources, then reindexes the
// remaining lessons of its module.
func (e *Engine) DeleteLesson(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	old, ok := cur.Lessons[id]
	if !ok {
		return errUnknown("lesson", id)
	}

	next := cur.Clone()
	deleteLessonCascade(next, id)
	next.LessonOrder[old.ModuleID] = removeID(next.LessonOrder[old.ModuleID], id)
	renumberLessons(next, old.ModuleID)
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// ReorderLessons replaces a module's lesson ordering. ids must be a
// permutation of the module's current lesson identifiers.
func (e *Engine) ReorderLessons(moduleID string, ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	if _, ok := cur.Modules[moduleID]; !ok {
		return errUnknown("module", moduleID)
	}
	if err := validatePermutation(ids, cur.LessonIDs(moduleID), "lesson"); err != nil {
		return err
	}
	next := cur.Clone()
	next.LessonOrder[moduleID] = append([]string(nil), ids...)
	renumberLessons(next, moduleID)
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(LessonOrderTarget(moduleID), cur)
	return nil
}

// MoveLesson reparents a lesson under targetModuleID at index. An index
// of -1 or one past the end appends. Both affected orderings reindex.
func (e *Engine) MoveLesson(lessonID, targetModuleID string, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	old, ok := cur.Lessons[lessonID]
	if !ok {
		return errUnknown("lesson", lessonID)
	}
	if _, ok := cur.Modules[targetModuleID]; !ok {
		return errUnknown("module", targetModuleID)
	}
	if index < -1 {
		return errBadMove("index must be -1 (append) or a position in the target module")
	}

	next := cur.Clone()
	source := old.ModuleID
	next.LessonOrder[source] = removeID(next.LessonOrder[source], lessonID)
	dest := next.LessonOrder[targetModuleID]
	if index == -1 || index > len(dest) {
		index = len(dest)
	}
	next.LessonOrder[targetModuleID] = insertID(dest, lessonID, index)

	l := *old
	l.ModuleID = targetModuleID
	next.Lessons[lessonID] = &l

	renumberLessons(next, source)
	if source != targetModuleID {
		renumberLessons(next, targetModuleID)
	}
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// AddResource appends a resource to a lesson and returns a copy of it.
func (e *Engine) AddResource(lessonID, title string, typ content.ResourceType, url string, premium bool) (*content.Resource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if strings.TrimSpace(title) == "" {
		return nil, errEmptyTitle("resource")
	}

	cur := e.store.State()
	if _, ok := cur.Lessons[lessonID]; !ok {
		return nil, errUnknown("lesson", lessonID)
	}
	r := &content.Resource{
		ID:       e.ids.NewID(),
		LessonID: lessonID,
		Title:    title,
		Type:     typ,
		URL:      url,
		Premium:  premium,
		Order:    len(cur.ResourceIDs(lessonID)),
	}
	next := cur.Clone()
	next.Resources[r.ID] = r
	next.ResourceOrder[lessonID] = append(next.ResourceOrder[lessonID], r.ID)
	if err := e.store.Commit(next); err != nil {
		return nil, err
	}
	e.markDirtyLocked(CourseTarget(), cur)

	out := *r
	return &out, nil
}

// UpdateResource applies a partial update to a resource.
func (e *Engine) UpdateResource(id string, upd ResourceUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	old, ok := cur.Resources[id]
	if !ok {
		return errUnknown("resource", id)
	}
	r := *old
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return errEmptyTitle("resource")
		}
		r.Title = *upd.Title
	}
	if upd.URL != nil {
		r.URL = *upd.URL
	}
	if upd.Type != nil {
		r.Type = *upd.Type
	}
	if upd.Premium != nil {
		r.Premium = *upd.Premium
	}
	next := cur.Clone()
	next.Resources[id] = &r
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// DeleteResource removes a resource and reindexes its lesson's
// remaining resources.
func (e *Engine) DeleteResource(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	old, ok := cur.Resources[id]
	if !ok {
		return errUnknown("resource", id)
	}

	next := cur.Clone()
	delete(next.Resources, id)
	next.ResourceOrder[old.LessonID] = removeID(next.ResourceOrder[old.LessonID], id)
	renumberResources(next, old.LessonID)
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// ReorderResources replaces a lesson's resource ordering. ids must be a
// permutation of the lesson's current resource identifiers.
func (e *Engine) ReorderResources(lessonID string, ids []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	if _, ok := cur.Lessons[lessonID]; !ok {
		return errUnknown("lesson", lessonID)
	}
	if err := validatePermutation(ids, cur.ResourceIDs(lessonID), "resource"); err != nil {
		return err
	}
	next := cur.Clone()
	next.ResourceOrder[lessonID] = append([]string(nil), ids...)
	renumberResources(next, lessonID)
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// MoveResource reparents a resource under targetLessonID at index. An
// index of -1 or one past the end appends.
func (e *Engine) MoveResource(resourceID, targetLessonID string, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	cur := e.store.State()
	old, ok := cur.Resources[resourceID]
	if !ok {
		return errUnknown("resource", resourceID)
	}
	if _, ok := cur.Lessons[targetLessonID]; !ok {
		return errUnknown("lesson", targetLessonID)
	}
	if index < -1 {
		return errBadMove("index must be -1 (append) or a position in the target lesson")
	}

	next := cur.Clone()
	source := old.LessonID
	next.ResourceOrder[source] = removeID(next.ResourceOrder[source], resourceID)
	dest := next.ResourceOrder[targetLessonID]
	if index == -1 || index > len(dest) {
		index = len(dest)
	}
	next.ResourceOrder[targetLessonID] = insertID(dest, resourceID, index)

	r := *old
	r.LessonID = targetLessonID
	next.Resources[resourceID] = &r

	renumberResources(next, source)
	if source != targetLessonID {
		renumberResources(next, targetLessonID)
	}
	if err := e.store.Commit(next); err != nil {
		return err
	}
	e.markDirtyLocked(CourseTarget(), cur)
	return nil
}

// deleteLessonCascade removes a lesson and its resources from the
// entity maps. The caller fixes the owning module's ordering list.
func deleteLessonCascade(next *store.State, lessonID string) {
	for _, rid := range next.ResourceOrder[lessonID] {
		delete(next.Resources, rid)
	}
	delete(next.ResourceOrder, lessonID)
	delete(next.Lessons, lessonID)
}

// validatePermutation rejects an id list that is not a permutation of
// current: wrong length, duplicates, or identifiers outside the set.
func validatePermutation(ids, current []string, kind string) error {
	if len(ids) != len(current) {
		return errBadReorder("reorder must list every " + kind + " exactly once")
	}
	have := make(map[string]bool, len(current))
	for _, id := range current {
		have[id] = true
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !have[id] {
			return errBadReorder("unknown " + kind + " in reorder: " + id)
		}
		if seen[id] {
			return errBadReorder("duplicate " + kind + " in reorder: " + id)
		}
		seen[id] = true
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func insertID(ids []string, id string, index int) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	return append(out, ids[index:]...)
}

// renumberModules resyncs every module's Order field with its position,
// replacing only the entities whose position changed.
func renumberModules(next *store.State) {
	for i, id := range next.ModuleOrder {
		if m := next.Modules[id]; m.Order != i {
			cp := *m
			cp.Order = i
			next.Modules[id] = &cp
		}
	}
}

func renumberLessons(next *store.State, moduleID string) {
	for i, id := range next.LessonOrder[moduleID] {
		if l := next.Lessons[id]; l.Order != i {
			cp := *l
			cp.Order = i
			next.Lessons[id] = &cp
		}
	}
}

func renumberResources(next *store.State, lessonID string) {
	for i, id := range next.ResourceOrder[lessonID] {
		if r := next.Resources[id]; r.Order != i {
			cp := *r
			cp.Order = i
			next.Resources[id] = &cp
		}
	}
}
