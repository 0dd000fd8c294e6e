package content

// Deep-clone helpers for the nested tree shape.
//
// The flat entity structs contain only value fields, so plain struct
// assignment already copies them fully. Trees hold slices and need the
// explicit treatment below. The rollback journal and the tests both
// rely on these producing fully independent copies.

// Clone returns a deep copy of the tree. Returns nil for a nil receiver
// so callers can clone optional payloads without a guard.
func (t *CourseTree) Clone() *CourseTree {
	if t == nil {
		return nil
	}
	out := &CourseTree{Course: t.Course}
	if t.Modules != nil {
		out.Modules = make([]ModuleTree, len(t.Modules))
		for i := range t.Modules {
			out.Modules[i] = *t.Modules[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the module subtree.
func (m *ModuleTree) Clone() *ModuleTree {
	if m == nil {
		return nil
	}
	out := &ModuleTree{Module: m.Module}
	if m.Lessons != nil {
		out.Lessons = make([]LessonTree, len(m.Lessons))
		for i := range m.Lessons {
			out.Lessons[i] = *m.Lessons[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the lesson subtree.
func (l *LessonTree) Clone() *LessonTree {
	if l == nil {
		return nil
	}
	out := &LessonTree{Lesson: l.Lesson}
	if l.Resources != nil {
		out.Resources = make([]Resource, len(l.Resources))
		copy(out.Resources, l.Resources)
	}
	return out
}
