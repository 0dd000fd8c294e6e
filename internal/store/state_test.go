package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseforge/courseforge/internal/content"
)

// twoModuleState builds a consistent state with two modules, one
// lesson, and one resource for reuse across tests.
func twoModuleState() *State {
	return FromTree(&content.CourseTree{
		Course: content.Course{ID: "c1", Title: "Go Basics", Draft: true},
		Modules: []content.ModuleTree{
			{
				Module: content.Module{ID: "m1", Title: "Intro"},
				Lessons: []content.LessonTree{
					{
						Lesson: content.Lesson{ID: "l1", Title: "Welcome", Type: content.LessonText, Access: content.AccessFree},
						Resources: []content.Resource{
							{ID: "r1", Title: "Slides", Type: content.ResourceFile, URL: "slides.pdf"},
						},
					},
				},
			},
			{Module: content.Module{ID: "m2", Title: "Syntax"}},
		},
	})
}

func TestFromTree_Normalizes(t *testing.T) {
	s := twoModuleState()

	require.NoError(t, CheckIntegrity(s))
	assert.Equal(t, []string{"m1", "m2"}, s.ModuleOrder)
	assert.Equal(t, []string{"l1"}, s.LessonIDs("m1"))
	assert.Equal(t, []string{"r1"}, s.ResourceIDs("l1"))
	assert.Equal(t, "c1", s.Modules["m1"].CourseID)
	assert.Equal(t, "m1", s.Lessons["l1"].ModuleID)
	assert.Equal(t, "l1", s.Resources["r1"].LessonID)
}

func TestFromTree_PositionIsAuthoritative(t *testing.T) {
	// Stale order values in the payload must be recomputed from position.
	s := FromTree(&content.CourseTree{
		Course: content.Course{ID: "c1"},
		Modules: []content.ModuleTree{
			{Module: content.Module{ID: "m1", Order: 7}},
			{Module: content.Module{ID: "m2", Order: 7}},
		},
	})

	require.NoError(t, CheckIntegrity(s))
	assert.Equal(t, 0, s.Modules["m1"].Order)
	assert.Equal(t, 1, s.Modules["m2"].Order)
}

func TestState_Clone_IndependentStructure(t *testing.T) {
	orig := twoModuleState()
	clone := orig.Clone()

	// Editing the clone's maps and lists must not show through.
	clone.ModuleOrder = append(clone.ModuleOrder, "m3")
	delete(clone.Modules, "m1")
	clone.LessonOrder["m1"] = append(clone.LessonOrder["m1"], "l9")

	assert.Equal(t, []string{"m1", "m2"}, orig.ModuleOrder)
	assert.Contains(t, orig.Modules, "m1")
	assert.Equal(t, []string{"l1"}, orig.LessonIDs("m1"))
}

func TestState_Clone_SharesEntities(t *testing.T) {
	orig := twoModuleState()
	clone := orig.Clone()

	// Entity pointers are shared; replacement, not mutation, is the rule.
	assert.Same(t, orig.Modules["m1"], clone.Modules["m1"])

	updated := *clone.Modules["m1"]
	updated.Title = "Introduction"
	clone.Modules["m1"] = &updated

	assert.Equal(t, "Intro", orig.Modules["m1"].Title)
	assert.Equal(t, "Introduction", clone.Modules["m1"].Title)
}
