package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/testutil"
)

// withCode filters validation errors down to one code.
func withCode(errs []ValidationError, code string) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if e.Code == code {
			out = append(out, e)
		}
	}
	return out
}

func TestValidate_SampleTreeIsClean(t *testing.T) {
	assert.Empty(t, Validate(testutil.SampleTree()))
}

func TestValidate_EmptyTreeIsClean(t *testing.T) {
	assert.Empty(t, Validate(testutil.EmptyTree()))
}

func TestValidate_EmptyModuleTitle(t *testing.T) {
	tree := testutil.SampleTree()
	tree.Modules[0].Title = ""

	errs := withCode(Validate(tree), ErrSchemaViolation)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Field, "title")
}

func TestValidate_UnknownLessonType(t *testing.T) {
	tree := testutil.SampleTree()
	tree.Modules[0].Lessons[0].Type = "audio"

	errs := withCode(Validate(tree), ErrSchemaViolation)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Field, "type")
}

func TestValidate_NegativePrice(t *testing.T) {
	tree := testutil.SampleTree()
	tree.PriceCents = -500

	errs := withCode(Validate(tree), ErrSchemaViolation)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Field, "price_cents")
}

func TestValidate_EmptyResourceURL(t *testing.T) {
	tree := testutil.SampleTree()
	tree.Modules[0].Lessons[0].Resources[0].URL = ""

	assert.NotEmpty(t, withCode(Validate(tree), ErrSchemaViolation))
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	tree := testutil.SampleTree()
	tree.Modules[0].Title = ""
	tree.Modules[1].ID = "m1"
	tree.Modules[1].Order = 7

	errs := Validate(tree)
	assert.NotEmpty(t, withCode(errs, ErrSchemaViolation))
	assert.NotEmpty(t, withCode(errs, ErrDuplicateID))
	assert.NotEmpty(t, withCode(errs, ErrOrderMismatch))
}

func TestValidate_DuplicateIdentifier(t *testing.T) {
	tree := testutil.SampleTree()
	tree.Modules[0].Lessons[1].ID = "l1"

	errs := withCode(Validate(tree), ErrDuplicateID)
	require.Len(t, errs, 1)
	assert.Equal(t, "modules.0.lessons.1.id", errs[0].Field)
	assert.Contains(t, errs[0].Message, `"l1"`)
}

func TestValidate_ParentMismatch(t *testing.T) {
	tree := testutil.SampleTree()
	tree.Modules[0].Lessons[1].ModuleID = "m2"

	errs := withCode(Validate(tree), ErrParentMismatch)
	require.Len(t, errs, 1)
	assert.Equal(t, "modules.0.lessons.1.module_id", errs[0].Field)
}

func TestValidate_OrderMismatch(t *testing.T) {
	tree := testutil.SampleTree()
	tree.Modules[1].Order = 5

	errs := withCode(Validate(tree), ErrOrderMismatch)
	require.Len(t, errs, 1)
	assert.Equal(t, "modules.1.order", errs[0].Field)
}

func TestValidate_PlaceholderDraftIsAccepted(t *testing.T) {
	tree := &content.CourseTree{
		Course: content.Course{Title: "Draft", Draft: true},
		Modules: []content.ModuleTree{
			{
				Module: content.Module{ID: "tmp_a", Title: "Intro"},
				Lessons: []content.LessonTree{
					{Lesson: content.Lesson{
						ID: "tmp_b", Title: "Welcome",
						Type: content.LessonText, Access: content.AccessFree,
					}},
				},
			},
		},
	}

	assert.Empty(t, Validate(tree))
}

func TestValidateJSON_RoundTrip(t *testing.T) {
	data, err := json.Marshal(testutil.SampleTree())
	require.NoError(t, err)

	tree, errs := ValidateJSON(data)
	require.NotNil(t, tree)
	assert.Empty(t, errs)
	assert.Equal(t, "Go Basics", tree.Title)
	require.Len(t, tree.Modules, 2)
}

func TestValidateJSON_MalformedDocument(t *testing.T) {
	tree, errs := ValidateJSON([]byte("{not json"))

	assert.Nil(t, tree)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMalformedDocument, errs[0].Code)
}

func TestValidateJSON_UnknownFieldRejected(t *testing.T) {
	tree, errs := ValidateJSON([]byte(`{"title": "X", "subtitle": "nope"}`))

	assert.Nil(t, tree)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMalformedDocument, errs[0].Code)
	assert.Contains(t, errs[0].Message, "subtitle")
}

func TestValidationError_ErrorString(t *testing.T) {
	e := ValidationError{Field: "modules.0.title", Message: "empty", Code: ErrSchemaViolation}
	s := e.Error()
	assert.True(t, strings.HasPrefix(s, "["+ErrSchemaViolation+"]"), s)
	assert.Contains(t, s, "modules.0.title")
}
