package store

import (
	"github.com/courseforge/courseforge/internal/content"
)

// State is one immutable snapshot of the normalized course.
//
// INVARIANTS (enforced by CheckIntegrity at commit time):
//   - Every identifier in an ordering list resolves to an entry in the
//     corresponding entity map, and vice versa (no dangling references,
//     no orphaned entities).
//   - Each entity's Order field equals its index in its parent's
//     ordering list.
//   - Each entity's parent-reference field names the parent whose
//     ordering list contains it.
//
// A committed State must never be modified. Mutations operate on a
// Clone and commit that instead.
type State struct {
	Course    *content.Course
	Modules   map[string]*content.Module
	Lessons   map[string]*content.Lesson
	Resources map[string]*content.Resource

	// ModuleOrder lists module identifiers in course order.
	ModuleOrder []string
	// LessonOrder maps a module identifier to its ordered lesson
	// identifiers. A missing key is equivalent to an empty list.
	LessonOrder map[string][]string
	// ResourceOrder maps a lesson identifier to its ordered resource
	// identifiers.
	ResourceOrder map[string][]string
}

// NewState creates an empty state for the given course.
func NewState(course *content.Course) *State {
	c := *course
	return &State{
		Course:        &c,
		Modules:       map[string]*content.Module{},
		Lessons:       map[string]*content.Lesson{},
		Resources:     map[string]*content.Resource{},
		ModuleOrder:   []string{},
		LessonOrder:   map[string][]string{},
		ResourceOrder: map[string][]string{},
	}
}

// Clone returns a copy safe to mutate and commit.
//
// Maps and ordering lists are copied; entity pointers are shared.
// Sharing is safe because committed entities are never field-mutated -
// a mutation that changes an entity inserts a fresh copy under the same
// key. Consumers holding the old State keep seeing the old entity.
func (s *State) Clone() *State {
	next := &State{
		Course:        s.Course,
		Modules:       make(map[string]*content.Module, len(s.Modules)),
		Lessons:       make(map[string]*content.Lesson, len(s.Lessons)),
		Resources:     make(map[string]*content.Resource, len(s.Resources)),
		ModuleOrder:   append([]string(nil), s.ModuleOrder...),
		LessonOrder:   make(map[string][]string, len(s.LessonOrder)),
		ResourceOrder: make(map[string][]string, len(s.ResourceOrder)),
	}
	for id, m := range s.Modules {
		next.Modules[id] = m
	}
	for id, l := range s.Lessons {
		next.Lessons[id] = l
	}
	for id, r := range s.Resources {
		next.Resources[id] = r
	}
	for id, ids := range s.LessonOrder {
		next.LessonOrder[id] = append([]string(nil), ids...)
	}
	for id, ids := range s.ResourceOrder {
		next.ResourceOrder[id] = append([]string(nil), ids...)
	}
	return next
}

// LessonIDs returns the ordered lesson identifiers for a module.
// The returned slice is shared; callers must not modify it.
func (s *State) LessonIDs(moduleID string) []string {
	return s.LessonOrder[moduleID]
}

// ResourceIDs returns the ordered resource identifiers for a lesson.
// The returned slice is shared; callers must not modify it.
func (s *State) ResourceIDs(lessonID string) []string {
	return s.ResourceOrder[lessonID]
}

// FromTree normalizes a nested course tree into a fresh State.
//
// Position in the tree is authoritative: Order fields and parent
// references are recomputed from the tree structure rather than
// trusted, so a payload with stale order values still normalizes into
// a consistent state.
func FromTree(tree *content.CourseTree) *State {
	s := NewState(&tree.Course)
	for mi := range tree.Modules {
		mt := &tree.Modules[mi]
		m := mt.Module
		m.CourseID = tree.ID
		m.Order = mi
		s.Modules[m.ID] = &m
		s.ModuleOrder = append(s.ModuleOrder, m.ID)

		lessonIDs := []string{}
		for li := range mt.Lessons {
			lt := &mt.Lessons[li]
			l := lt.Lesson
			l.ModuleID = m.ID
			l.Order = li
			s.Lessons[l.ID] = &l
			lessonIDs = append(lessonIDs, l.ID)

			resourceIDs := []string{}
			for ri := range lt.Resources {
				r := lt.Resources[ri]
				r.LessonID = l.ID
				r.Order = ri
				s.Resources[r.ID] = &r
				resourceIDs = append(resourceIDs, r.ID)
			}
			s.ResourceOrder[l.ID] = resourceIDs
		}
		s.LessonOrder[m.ID] = lessonIDs
	}
	return s
}
