package schema

import (
	"fmt"

	"github.com/courseforge/courseforge/internal/content"
)

// checkIdentifiers reports identifiers used by more than one entity
// and children whose parent reference names an entity other than the
// one they nest under. Empty identifiers are ignored so partial drafts
// still validate.
func checkIdentifiers(tree *content.CourseTree) []ValidationError {
	var errs []ValidationError
	seen := map[string]string{}
	claim := func(id, field string) {
		if id == "" {
			return
		}
		if first, ok := seen[id]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("identifier %q already used at %s", id, first),
				Code:    ErrDuplicateID,
			})
			return
		}
		seen[id] = field
	}

	claim(tree.ID, "id")
	for mi, m := range tree.Modules {
		mf := fmt.Sprintf("modules.%d", mi)
		claim(m.ID, mf+".id")
		if m.CourseID != "" && tree.ID != "" && m.CourseID != tree.ID {
			errs = append(errs, parentMismatch(mf+".course_id", m.CourseID, tree.ID))
		}
		for li, l := range m.Lessons {
			lf := fmt.Sprintf("%s.lessons.%d", mf, li)
			claim(l.ID, lf+".id")
			if l.ModuleID != "" && m.ID != "" && l.ModuleID != m.ID {
				errs = append(errs, parentMismatch(lf+".module_id", l.ModuleID, m.ID))
			}
			for ri, r := range l.Resources {
				rf := fmt.Sprintf("%s.resources.%d", lf, ri)
				claim(r.ID, rf+".id")
				if r.LessonID != "" && l.ID != "" && r.LessonID != l.ID {
					errs = append(errs, parentMismatch(rf+".lesson_id", r.LessonID, l.ID))
				}
			}
		}
	}
	return errs
}

func parentMismatch(field, got, want string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("references %q but is nested under %q", got, want),
		Code:    ErrParentMismatch,
	}
}

// checkOrdering reports order fields that disagree with the position
// the entity occupies in its sibling list. A zero order is accepted
// anywhere, so documents that omit order fields validate and pick up
// positional order on import.
func checkOrdering(tree *content.CourseTree) []ValidationError {
	var errs []ValidationError
	report := func(field string, order, index int) {
		if order != 0 && order != index {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("order %d disagrees with position %d", order, index),
				Code:    ErrOrderMismatch,
			})
		}
	}

	for mi, m := range tree.Modules {
		mf := fmt.Sprintf("modules.%d", mi)
		report(mf+".order", m.Order, mi)
		for li, l := range m.Lessons {
			lf := fmt.Sprintf("%s.lessons.%d", mf, li)
			report(lf+".order", l.Order, li)
			for ri, r := range l.Resources {
				report(fmt.Sprintf("%s.resources.%d.order", lf, ri), r.Order, ri)
			}
		}
	}
	return errs
}
