package content

// LessonType distinguishes the lesson content variants the authoring
// tool can produce.
type LessonType string

const (
	LessonVideo LessonType = "video"
	LessonText  LessonType = "text"
	LessonQuiz  LessonType = "quiz"
)

// AccessLevel controls who can view a lesson.
type AccessLevel string

const (
	AccessFree    AccessLevel = "free"
	AccessMembers AccessLevel = "members"
	AccessPremium AccessLevel = "premium"
)

// ResourceType distinguishes downloadable files from external links.
type ResourceType string

const (
	ResourceFile ResourceType = "file"
	ResourceLink ResourceType = "link"
)

// Course is the top-level container. Module ordering lives in the
// store's ordering list, not here; the nested CourseTree shape carries
// the ordered modules explicitly.
type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// PriceCents avoids float currency math; 0 means free.
	PriceCents int64 `json:"price_cents"`
	Draft      bool  `json:"draft"`
	Published  bool  `json:"published"`
}

// Module belongs to exactly one course. Order always equals the
// module's index in the course's module ordering list once a mutation
// has completed.
type Module struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// Lesson belongs to exactly one module.
type Lesson struct {
	ID       string      `json:"id"`
	ModuleID string      `json:"module_id"`
	Title    string      `json:"title"`
	// Content is the authored source (markdown); ContentHTML is the
	// rendered variant served to learners. Both travel together so the
	// builder can switch preview modes without a round-trip.
	Content     string      `json:"content"`
	ContentHTML string      `json:"content_html"`
	Type        LessonType  `json:"type"`
	Access      AccessLevel `json:"access"`
	Order       int         `json:"order"`
}

// Resource belongs to exactly one lesson.
type Resource struct {
	ID       string       `json:"id"`
	LessonID string       `json:"lesson_id"`
	Title    string       `json:"title"`
	Type     ResourceType `json:"type"`
	URL      string       `json:"url"`
	Premium  bool         `json:"premium"`
	Order    int          `json:"order"`
}

// CourseTree is the denormalized course view and the wire format for
// full-course fetches and saves. Modules, lessons, and resources appear
// in their authored order.
type CourseTree struct {
	Course
	Modules []ModuleTree `json:"modules"`
}

// ModuleTree is a module with its ordered lessons.
type ModuleTree struct {
	Module
	Lessons []LessonTree `json:"lessons"`
}

// LessonTree is a lesson with its ordered resources.
type LessonTree struct {
	Lesson
	Resources []Resource `json:"resources"`
}
