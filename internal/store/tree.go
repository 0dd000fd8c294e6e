package store

import (
	"github.com/courseforge/courseforge/internal/content"
)

// Denormalize reconstructs the nested course view from the flat maps
// and ordering lists. The tree is a fresh value sharing nothing with
// the state, built strictly from ordering-list positions.
//
// Denormalize assumes a consistent state (every committed state is);
// identifiers missing from the entity maps are skipped rather than
// panicking, so a partially reconciled diagnostic dump still renders.
func Denormalize(s *State) *content.CourseTree {
	tree := &content.CourseTree{
		Course:  *s.Course,
		Modules: make([]content.ModuleTree, 0, len(s.ModuleOrder)),
	}

	for _, moduleID := range s.ModuleOrder {
		m, ok := s.Modules[moduleID]
		if !ok {
			continue
		}
		mt := content.ModuleTree{
			Module:  *m,
			Lessons: make([]content.LessonTree, 0, len(s.LessonOrder[moduleID])),
		}

		for _, lessonID := range s.LessonOrder[moduleID] {
			l, ok := s.Lessons[lessonID]
			if !ok {
				continue
			}
			lt := content.LessonTree{
				Lesson:    *l,
				Resources: make([]content.Resource, 0, len(s.ResourceOrder[lessonID])),
			}

			for _, resourceID := range s.ResourceOrder[lessonID] {
				r, ok := s.Resources[resourceID]
				if !ok {
					continue
				}
				lt.Resources = append(lt.Resources, *r)
			}
			mt.Lessons = append(mt.Lessons, lt)
		}
		tree.Modules = append(tree.Modules, mt)
	}

	return tree
}
