package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/engine"
)

// CanonicalJSON renders a course tree as indented JSON with a trailing
// newline, the format golden files store.
func CanonicalJSON(tree *content.CourseTree) []byte {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		// Course trees hold only plain data; marshalling cannot fail.
		panic(err)
	}
	return append(data, '\n')
}

// Snapshot renders the engine's current denormalized tree.
func Snapshot(eng *engine.Engine) []byte {
	return CanonicalJSON(eng.Tree())
}

// AssertGolden compares a tree against testdata/golden/<name>.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, tree *content.CourseTree) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, CanonicalJSON(tree))
}
