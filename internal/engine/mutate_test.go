package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/testutil"
)

func strPtr(s string) *string { return &s }

// threeModuleTree returns a course whose modules are literally named by
// their identifiers, convenient for reorder assertions.
func threeModuleTree() *content.CourseTree {
	return &content.CourseTree{
		Course: content.Course{ID: "c1", Title: "Go Basics", Draft: true},
		Modules: []content.ModuleTree{
			{Module: content.Module{ID: "A", CourseID: "c1", Title: "A", Order: 0}},
			{Module: content.Module{ID: "B", CourseID: "c1", Title: "B", Order: 1}},
			{Module: content.Module{ID: "C", CourseID: "c1", Title: "C", Order: 2}},
		},
	}
}

func TestAddModule_AppendsWithPlaceholderID(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	m, err := e.AddModule("Week 3", "wrap-up")
	require.NoError(t, err)

	assert.True(t, content.IsTempID(m.ID))
	assert.Equal(t, 2, m.Order)
	assert.Equal(t, "c1", m.CourseID)

	s := e.Store().State()
	assert.Equal(t, []string{"m1", "m2", m.ID}, s.ModuleOrder)
	assert.Empty(t, s.LessonIDs(m.ID))
}

func TestAddModule_ReturnsACopy(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	m, err := e.AddModule("Week 3", "")
	require.NoError(t, err)
	m.Title = "scribbled over"

	assert.Equal(t, "Week 3", e.Store().State().Modules[m.ID].Title)
}

func TestAddModule_EmptyTitleRejected(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())
	before := e.Store().State()

	_, err := e.AddModule("   ", "")

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Same(t, before, e.Store().State())
	assert.False(t, e.Dirty())
}

func TestUpdateModule_PartialUpdate(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	require.NoError(t, e.UpdateModule("m1", ModuleUpdate{Description: strPtr("now with slides")}))

	m := e.Store().State().Modules["m1"]
	assert.Equal(t, "Getting Started", m.Title)
	assert.Equal(t, "now with slides", m.Description)
}

func TestUpdateModule_UnknownID(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	err := e.UpdateModule("nope", ModuleUpdate{Title: strPtr("x")})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrCodeUnknownEntity, ve.Code)
	assert.Equal(t, "nope", ve.EntityID)
}

func TestUpdateModule_DoesNotDisturbHeldSnapshot(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())
	held := e.Store().State()

	require.NoError(t, e.UpdateModule("m1", ModuleUpdate{Title: strPtr("Renamed")}))

	assert.Equal(t, "Getting Started", held.Modules["m1"].Title)
	assert.Equal(t, "Renamed", e.Store().State().Modules["m1"].Title)
}

func TestDeleteModule_CascadesAndReindexes(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	require.NoError(t, e.DeleteModule("m1"))

	s := e.Store().State()
	assert.Equal(t, []string{"m2"}, s.ModuleOrder)
	assert.NotContains(t, s.Lessons, "l1")
	assert.NotContains(t, s.Lessons, "l2")
	assert.NotContains(t, s.Resources, "r1")
	assert.Equal(t, 0, s.Modules["m2"].Order)
}

func TestReorderModules_AssignsPositionalOrders(t *testing.T) {
	e, _ := newTestEngine(t, threeModuleTree())

	require.NoError(t, e.ReorderModules([]string{"C", "A", "B"}))

	s := e.Store().State()
	assert.Equal(t, []string{"C", "A", "B"}, s.ModuleOrder)
	assert.Equal(t, 0, s.Modules["C"].Order)
	assert.Equal(t, 1, s.Modules["A"].Order)
	assert.Equal(t, 2, s.Modules["B"].Order)
}

func TestReorderModules_RejectsShortList(t *testing.T) {
	e, _ := newTestEngine(t, threeModuleTree())
	before := e.Store().State()

	err := e.ReorderModules([]string{"A", "B"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrCodeBadReorder, ve.Code)
	assert.Same(t, before, e.Store().State())
	assert.False(t, e.Dirty())
}

func TestReorderModules_RejectsUnknownAndDuplicateIDs(t *testing.T) {
	e, _ := newTestEngine(t, threeModuleTree())

	assert.True(t, IsValidation(e.ReorderModules([]string{"A", "B", "X"})))
	assert.True(t, IsValidation(e.ReorderModules([]string{"A", "B", "B"})))
}

func TestAddLesson_AppendsToModule(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	l, err := e.AddLesson("m2", "Variables", content.LessonText, content.AccessFree)
	require.NoError(t, err)

	assert.True(t, content.IsTempID(l.ID))
	assert.Equal(t, "m2", l.ModuleID)
	assert.Equal(t, 0, l.Order)

	s := e.Store().State()
	assert.Equal(t, []string{l.ID}, s.LessonIDs("m2"))
	assert.Empty(t, s.ResourceIDs(l.ID))
}

func TestAddLesson_UnknownModule(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	_, err := e.AddLesson("nope", "Variables", content.LessonText, content.AccessFree)
	assert.True(t, IsValidation(err))
}

func TestUpdateLesson_AllFields(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	typ := content.LessonQuiz
	access := content.AccessPremium
	require.NoError(t, e.UpdateLesson("l2", LessonUpdate{
		Title:       strPtr("Hello, World"),
		Content:     strPtr("# Hello"),
		ContentHTML: strPtr("<h1>Hello</h1>"),
		Type:        &typ,
		Access:      &access,
	}))

	l := e.Store().State().Lessons["l2"]
	assert.Equal(t, "Hello, World", l.Title)
	assert.Equal(t, "# Hello", l.Content)
	assert.Equal(t, "<h1>Hello</h1>", l.ContentHTML)
	assert.Equal(t, content.LessonQuiz, l.Type)
	assert.Equal(t, content.AccessPremium, l.Access)
}

func TestDeleteLesson_RemovesResourcesAndReindexes(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	require.NoError(t, e.DeleteLesson("l1"))

	s := e.Store().State()
	assert.Equal(t, []string{"l2"}, s.LessonIDs("m1"))
	assert.NotContains(t, s.Resources, "r1")
	assert.Equal(t, 0, s.Lessons["l2"].Order)
}

func TestReorderLessons_WithinModule(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	require.NoError(t, e.ReorderLessons("m1", []string{"l2", "l1"}))

	s := e.Store().State()
	assert.Equal(t, []string{"l2", "l1"}, s.LessonIDs("m1"))
	assert.Equal(t, 0, s.Lessons["l2"].Order)
	assert.Equal(t, 1, s.Lessons["l1"].Order)
}

func TestMoveLesson_AcrossModules(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	require.NoError(t, e.MoveLesson("l1", "m2", -1))

	s := e.Store().State()
	assert.Equal(t, []string{"l2"}, s.LessonIDs("m1"))
	assert.Equal(t, []string{"l1"}, s.LessonIDs("m2"))
	assert.Equal(t, "m2", s.Lessons["l1"].ModuleID)
	assert.Equal(t, 0, s.Lessons["l1"].Order)
	assert.Equal(t, 0, s.Lessons["l2"].Order)
}

func TestMoveLesson_RepositionWithinSameModule(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	require.NoError(t, e.MoveLesson("l2", "m1", 0))

	assert.Equal(t, []string{"l2", "l1"}, e.Store().State().LessonIDs("m1"))
}

func TestMoveLesson_IndexPastEndAppends(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	require.NoError(t, e.MoveLesson("l1", "m2", 99))

	assert.Equal(t, []string{"l1"}, e.Store().State().LessonIDs("m2"))
}

func TestMoveLesson_Invalid(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	assert.True(t, IsValidation(e.MoveLesson("l1", "nope", -1)))
	assert.True(t, IsValidation(e.MoveLesson("nope", "m2", -1)))
	assert.True(t, IsValidation(e.MoveLesson("l1", "m2", -2)))
}

func TestAddResource_AppendsToLesson(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	r, err := e.AddResource("l1", "Slides", content.ResourceLink, "https://example.com/slides", true)
	require.NoError(t, err)

	assert.True(t, content.IsTempID(r.ID))
	assert.Equal(t, 1, r.Order)
	assert.True(t, r.Premium)
	assert.Equal(t, []string{"r1", r.ID}, e.Store().State().ResourceIDs("l1"))
}

func TestUpdateResource_PartialUpdate(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	typ := content.ResourceLink
	premium := true
	require.NoError(t, e.UpdateResource("r1", ResourceUpdate{
		URL:     strPtr("https://example.com/v2.sh"),
		Type:    &typ,
		Premium: &premium,
	}))

	r := e.Store().State().Resources["r1"]
	assert.Equal(t, "Install script", r.Title)
	assert.Equal(t, "https://example.com/v2.sh", r.URL)
	assert.Equal(t, content.ResourceLink, r.Type)
	assert.True(t, r.Premium)
}

func TestDeleteResource_Reindexes(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())
	r2, err := e.AddResource("l1", "Cheat sheet", content.ResourceFile, "https://example.com/cheat.pdf", false)
	require.NoError(t, err)

	require.NoError(t, e.DeleteResource("r1"))

	s := e.Store().State()
	assert.Equal(t, []string{r2.ID}, s.ResourceIDs("l1"))
	assert.Equal(t, 0, s.Resources[r2.ID].Order)
}

func TestReorderResources_WithinLesson(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())
	r2, err := e.AddResource("l1", "Cheat sheet", content.ResourceFile, "https://example.com/cheat.pdf", false)
	require.NoError(t, err)

	require.NoError(t, e.ReorderResources("l1", []string{r2.ID, "r1"}))

	s := e.Store().State()
	assert.Equal(t, []string{r2.ID, "r1"}, s.ResourceIDs("l1"))
	assert.Equal(t, 1, s.Resources["r1"].Order)
}

func TestMoveResource_AcrossLessons(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	require.NoError(t, e.MoveResource("r1", "l2", -1))

	s := e.Store().State()
	assert.Empty(t, s.ResourceIDs("l1"))
	assert.Equal(t, []string{"r1"}, s.ResourceIDs("l2"))
	assert.Equal(t, "l2", s.Resources["r1"].LessonID)
}

func TestUpdateCourse_Fields(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	price := int64(9900)
	require.NoError(t, e.UpdateCourse(CourseUpdate{
		Title:      strPtr("Go, Properly"),
		PriceCents: &price,
	}))

	c := e.Store().State().Course
	assert.Equal(t, "Go, Properly", c.Title)
	assert.Equal(t, int64(9900), c.PriceCents)
	assert.Equal(t, "An introduction to Go", c.Description)
}

func TestMutations_EveryCommitKeepsIntegrity(t *testing.T) {
	// A drag-and-drop editing burst; the store rejects any commit that
	// breaks its invariants, so reaching the end clean is the point.
	e, _ := newTestEngine(t, testutil.SampleTree())

	m, err := e.AddModule("Week 3", "")
	require.NoError(t, err)
	l, err := e.AddLesson(m.ID, "Closures", content.LessonVideo, content.AccessPremium)
	require.NoError(t, err)
	require.NoError(t, e.MoveLesson("l1", m.ID, 0))
	require.NoError(t, e.ReorderModules([]string{m.ID, "m2", "m1"}))
	require.NoError(t, e.MoveResource("r1", l.ID, -1))
	require.NoError(t, e.DeleteModule("m1"))

	s := e.Store().State()
	assert.Equal(t, []string{m.ID, "m2"}, s.ModuleOrder)
	assert.Equal(t, []string{"l1", l.ID}, s.LessonIDs(m.ID))
	assert.Equal(t, "r1", s.ResourceIDs(l.ID)[0])
}
