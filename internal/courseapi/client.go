package courseapi

import (
	"context"

	"github.com/courseforge/courseforge/internal/content"
)

// Client is the persistence collaborator the engine saves through.
//
// Implementations: HTTPClient (REST backend), backend.Backend (local
// SQLite reference backend), testutil.FakeClient (tests).
//
// Every method honors context cancellation; the engine cancels an
// in-flight call when a newer save supersedes it. Errors returned to
// the engine are classified - see Error and Kind in this package.
type Client interface {
	// FetchCourse returns the full course tree in authored order.
	FetchCourse(ctx context.Context, courseID string) (*content.CourseTree, error)

	// SaveCourse persists the full tree. Entities carrying placeholder
	// identifiers are created and assigned permanent identifiers; the
	// returned tree reflects what the backend now holds, which the
	// caller reconciles against its local state.
	SaveCourse(ctx context.Context, tree *content.CourseTree) (*content.CourseTree, error)

	// CreateLesson creates a single lesson under a module and returns
	// the stored snapshot with its permanent identifier.
	CreateLesson(ctx context.Context, moduleID string, lesson *content.Lesson) (*content.Lesson, error)

	// ReorderModules replaces the module ordering of a course. The id
	// list must be a permutation of the course's current modules.
	ReorderModules(ctx context.Context, courseID string, ids []string) error

	// ReorderLessons replaces the lesson ordering of a module.
	ReorderLessons(ctx context.Context, moduleID string, ids []string) error

	// MoveLesson reparents a lesson under targetModuleID at index.
	// index == -1 appends at the end of the target module.
	MoveLesson(ctx context.Context, lessonID, targetModuleID string, index int) error

	// Publish marks the course published and returns the updated tree.
	Publish(ctx context.Context, courseID string) (*content.CourseTree, error)

	// Unpublish reverts the course to draft and returns the updated tree.
	Unpublish(ctx context.Context, courseID string) (*content.CourseTree, error)

	// Clone duplicates the course, its modules, lessons, and resources,
	// and returns the new course's tree.
	Clone(ctx context.Context, courseID string) (*content.CourseTree, error)
}
