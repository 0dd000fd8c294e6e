package testutil

import (
	"github.com/courseforge/courseforge/internal/content"
)

// SampleTree returns a small course with permanent identifiers: two
// modules, two lessons under the first, one resource under the first
// lesson. Order fields match position.
func SampleTree() *content.CourseTree {
	return &content.CourseTree{
		Course: content.Course{
			ID:          "c1",
			Title:       "Go Basics",
			Description: "An introduction to Go",
			PriceCents:  4900,
			Draft:       true,
		},
		Modules: []content.ModuleTree{
			{
				Module: content.Module{ID: "m1", CourseID: "c1", Title: "Getting Started", Order: 0},
				Lessons: []content.LessonTree{
					{
						Lesson: content.Lesson{
							ID: "l1", ModuleID: "m1", Title: "Installing Go",
							Type: content.LessonVideo, Access: content.AccessFree, Order: 0,
						},
						Resources: []content.Resource{
							{
								ID: "r1", LessonID: "l1", Title: "Install script",
								Type: content.ResourceFile, URL: "https://example.com/install.sh", Order: 0,
							},
						},
					},
					{
						Lesson: content.Lesson{
							ID: "l2", ModuleID: "m1", Title: "Hello World",
							Type: content.LessonText, Access: content.AccessMembers, Order: 1,
						},
					},
				},
			},
			{
				Module: content.Module{ID: "m2", CourseID: "c1", Title: "Syntax", Order: 1},
			},
		},
	}
}

// EmptyTree returns a course with no modules.
func EmptyTree() *content.CourseTree {
	return &content.CourseTree{
		Course: content.Course{ID: "c1", Title: "Go Basics", Draft: true},
	}
}
