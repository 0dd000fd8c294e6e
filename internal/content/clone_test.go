package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *CourseTree {
	return &CourseTree{
		Course: Course{ID: "c1", Title: "Go Basics", Draft: true},
		Modules: []ModuleTree{
			{
				Module: Module{ID: "m1", CourseID: "c1", Title: "Intro", Order: 0},
				Lessons: []LessonTree{
					{
						Lesson: Lesson{ID: "l1", ModuleID: "m1", Title: "Welcome", Type: LessonText, Access: AccessFree, Order: 0},
						Resources: []Resource{
							{ID: "r1", LessonID: "l1", Title: "Slides", Type: ResourceFile, URL: "slides.pdf", Order: 0},
						},
					},
				},
			},
			{
				Module:  Module{ID: "m2", CourseID: "c1", Title: "Syntax", Order: 1},
				Lessons: []LessonTree{},
			},
		},
	}
}

func TestCourseTree_Clone_DeepEqual(t *testing.T) {
	orig := sampleTree()
	clone := orig.Clone()

	require.NotSame(t, orig, clone)
	assert.Equal(t, orig, clone)
}

func TestCourseTree_Clone_Independent(t *testing.T) {
	orig := sampleTree()
	clone := orig.Clone()

	// Mutating the clone at every level must not leak into the original.
	clone.Title = "changed"
	clone.Modules[0].Title = "changed"
	clone.Modules[0].Lessons[0].Title = "changed"
	clone.Modules[0].Lessons[0].Resources[0].Title = "changed"
	clone.Modules = append(clone.Modules, ModuleTree{})

	assert.Equal(t, "Go Basics", orig.Title)
	assert.Equal(t, "Intro", orig.Modules[0].Title)
	assert.Equal(t, "Welcome", orig.Modules[0].Lessons[0].Title)
	assert.Equal(t, "Slides", orig.Modules[0].Lessons[0].Resources[0].Title)
	assert.Len(t, orig.Modules, 2)
}

func TestCourseTree_Clone_Nil(t *testing.T) {
	var tree *CourseTree
	assert.Nil(t, tree.Clone())
}

func TestCourseTree_Clone_PreservesEmptyVsNilSlices(t *testing.T) {
	orig := sampleTree()
	clone := orig.Clone()

	// m2 has an empty (non-nil) lesson slice; the clone must match so
	// deep-equal rollback checks do not flag a spurious difference.
	assert.NotNil(t, clone.Modules[1].Lessons)
	assert.Len(t, clone.Modules[1].Lessons, 0)

	var noModules CourseTree
	assert.Nil(t, noModules.Clone().Modules)
}
