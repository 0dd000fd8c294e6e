package store

import (
	"fmt"
	"strings"
)

// IntegrityError reports the invariant violations that caused a commit
// to be rejected. The prior state is untouched when this is returned.
type IntegrityError struct {
	Problems []string
}

// Error implements the error interface. The message lists every
// violation so a rejected commit can be diagnosed from a single log line.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("state integrity violated: %s", strings.Join(e.Problems, "; "))
}

// CheckIntegrity verifies the store invariants on a candidate state.
// Returns nil if the state is consistent, or an *IntegrityError listing
// every violation found.
func CheckIntegrity(s *State) error {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if s.Course == nil {
		report("course is nil")
		return &IntegrityError{Problems: problems}
	}

	// Modules: ordering list and entity map must agree exactly.
	seenModules := make(map[string]bool, len(s.ModuleOrder))
	for i, id := range s.ModuleOrder {
		if seenModules[id] {
			report("module %s appears twice in module order", id)
			continue
		}
		seenModules[id] = true

		m, ok := s.Modules[id]
		if !ok {
			report("module order references unknown module %s", id)
			continue
		}
		if m.Order != i {
			report("module %s has order %d but sits at index %d", id, m.Order, i)
		}
		if m.CourseID != s.Course.ID {
			report("module %s references course %s, want %s", id, m.CourseID, s.Course.ID)
		}
	}
	for id := range s.Modules {
		if !seenModules[id] {
			report("module %s missing from module order", id)
		}
	}

	// Lesson ordering lists must hang off known modules.
	for moduleID := range s.LessonOrder {
		if _, ok := s.Modules[moduleID]; !ok {
			report("lesson order exists for unknown module %s", moduleID)
		}
	}
	seenLessons := make(map[string]bool, len(s.Lessons))
	for moduleID, ids := range s.LessonOrder {
		for i, id := range ids {
			if seenLessons[id] {
				report("lesson %s appears in more than one ordering slot", id)
				continue
			}
			seenLessons[id] = true

			l, ok := s.Lessons[id]
			if !ok {
				report("lesson order for module %s references unknown lesson %s", moduleID, id)
				continue
			}
			if l.Order != i {
				report("lesson %s has order %d but sits at index %d", id, l.Order, i)
			}
			if l.ModuleID != moduleID {
				report("lesson %s references module %s but is ordered under %s", id, l.ModuleID, moduleID)
			}
		}
	}
	for id := range s.Lessons {
		if !seenLessons[id] {
			report("lesson %s missing from every ordering list", id)
		}
	}

	// Resources, same shape one level down.
	for lessonID := range s.ResourceOrder {
		if _, ok := s.Lessons[lessonID]; !ok {
			report("resource order exists for unknown lesson %s", lessonID)
		}
	}
	seenResources := make(map[string]bool, len(s.Resources))
	for lessonID, ids := range s.ResourceOrder {
		for i, id := range ids {
			if seenResources[id] {
				report("resource %s appears in more than one ordering slot", id)
				continue
			}
			seenResources[id] = true

			r, ok := s.Resources[id]
			if !ok {
				report("resource order for lesson %s references unknown resource %s", lessonID, id)
				continue
			}
			if r.Order != i {
				report("resource %s has order %d but sits at index %d", id, r.Order, i)
			}
			if r.LessonID != lessonID {
				report("resource %s references lesson %s but is ordered under %s", id, r.LessonID, lessonID)
			}
		}
	}
	for id := range s.Resources {
		if !seenResources[id] {
			report("resource %s missing from every ordering list", id)
		}
	}

	if len(problems) > 0 {
		return &IntegrityError{Problems: problems}
	}
	return nil
}
