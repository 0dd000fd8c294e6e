package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/courseforge/courseforge/internal/content"
)

//go:embed course.cue
var courseCUE string

// Validation error codes (V100-V199)
const (
	ErrMalformedDocument = "V100" // document is not valid JSON
	ErrSchemaViolation   = "V101" // structural constraint failed
	ErrDuplicateID       = "V102" // identifier used more than once
	ErrParentMismatch    = "V103" // child names a parent it is not nested under
	ErrOrderMismatch     = "V104" // order field disagrees with list position
)

// ValidationError describes one violation found in a course document.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var (
	setupOnce sync.Once
	cueCtx    *cue.Context
	courseDef cue.Value
	setupErr  error
)

// courseSchema compiles the embedded schema once and returns its
// #Course definition.
func courseSchema() (cue.Value, error) {
	setupOnce.Do(func() {
		cueCtx = cuecontext.New()
		v := cueCtx.CompileString(courseCUE, cue.Filename("course.cue"))
		if err := v.Err(); err != nil {
			setupErr = fmt.Errorf("compiling course.cue: %w", err)
			return
		}
		courseDef = v.LookupPath(cue.ParsePath("#Course"))
		if !courseDef.Exists() {
			setupErr = fmt.Errorf("course.cue defines no #Course")
		}
	})
	return courseDef, setupErr
}

// Validate checks a course tree against the embedded schema and the
// tree-wide consistency rules. It collects every violation instead of
// stopping at the first. A nil return means the document is valid.
func Validate(tree *content.CourseTree) []ValidationError {
	def, err := courseSchema()
	if err != nil {
		return []ValidationError{{Field: "schema", Message: err.Error(), Code: ErrSchemaViolation}}
	}

	var errs []ValidationError

	data, err := json.Marshal(tree)
	if err != nil {
		return []ValidationError{{Field: "document", Message: err.Error(), Code: ErrMalformedDocument}}
	}
	expr, err := cuejson.Extract("course.json", data)
	if err != nil {
		return []ValidationError{{Field: "document", Message: err.Error(), Code: ErrMalformedDocument}}
	}
	doc := cueCtx.BuildExpr(expr)
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		errs = append(errs, fromCUE(err)...)
	}

	errs = append(errs, checkIdentifiers(tree)...)
	errs = append(errs, checkOrdering(tree)...)
	return errs
}

// ValidateJSON decodes a raw course document and validates it. Unknown
// fields are rejected at decode time. The decoded tree is returned even
// when validation errors are present, so callers can still inspect it.
func ValidateJSON(data []byte) (*content.CourseTree, []ValidationError) {
	tree := &content.CourseTree{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(tree); err != nil {
		return nil, []ValidationError{{Field: "document", Message: err.Error(), Code: ErrMalformedDocument}}
	}
	return tree, Validate(tree)
}

// fromCUE flattens a CUE validation error into one entry per failed
// constraint, keyed by the document path that failed.
func fromCUE(err error) []ValidationError {
	var errs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = "document"
		}
		format, args := e.Msg()
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    ErrSchemaViolation,
		})
	}
	if len(errs) == 0 {
		errs = append(errs, ValidationError{Field: "document", Message: err.Error(), Code: ErrSchemaViolation})
	}
	return errs
}
