package store

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseforge/courseforge/internal/content"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_CommitReplacesState(t *testing.T) {
	st := NewFromState(twoModuleState(), WithLogger(quietLogger()))
	before := st.State()
	rev := st.Revision()

	next := before.Clone()
	m := *next.Modules["m1"]
	m.Title = "Introduction"
	next.Modules["m1"] = &m

	require.NoError(t, st.Commit(next))
	assert.Same(t, next, st.State())
	assert.Greater(t, st.Revision(), rev)
}

func TestStore_CommitRejectsInconsistentState(t *testing.T) {
	st := NewFromState(twoModuleState(), WithLogger(quietLogger()))
	before := st.State()
	rev := st.Revision()

	bad := before.Clone()
	bad.ModuleOrder = append(bad.ModuleOrder, "ghost")

	err := st.Commit(bad)
	require.Error(t, err)

	var ie *IntegrityError
	assert.ErrorAs(t, err, &ie)

	// Rejection leaves the prior state and revision untouched.
	assert.Same(t, before, st.State())
	assert.Equal(t, rev, st.Revision())
}

func TestStore_RestoreSwapsSnapshotBack(t *testing.T) {
	st := NewFromState(twoModuleState(), WithLogger(quietLogger()))
	snapshot := st.State()

	next := snapshot.Clone()
	next.ModuleOrder = []string{"m2", "m1"}
	m1 := *next.Modules["m1"]
	m1.Order = 1
	next.Modules["m1"] = &m1
	m2 := *next.Modules["m2"]
	m2.Order = 0
	next.Modules["m2"] = &m2
	require.NoError(t, st.Commit(next))

	st.Restore(snapshot)
	assert.Same(t, snapshot, st.State())
	assert.Equal(t, []string{"m1", "m2"}, st.State().ModuleOrder)
}

func TestStore_TreeMemoizedPerState(t *testing.T) {
	st := NewFromState(twoModuleState(), WithLogger(quietLogger()))

	first := st.Tree()
	second := st.Tree()
	assert.Same(t, first, second, "no commit between calls: identical tree")

	next := st.State().Clone()
	l := *next.Lessons["l1"]
	l.Title = "Hello"
	next.Lessons["l1"] = &l
	require.NoError(t, st.Commit(next))

	third := st.Tree()
	assert.NotSame(t, first, third)
	assert.Equal(t, "Hello", third.Modules[0].Lessons[0].Title)
}

func TestNewFromState_PanicsOnInconsistentState(t *testing.T) {
	bad := twoModuleState()
	bad.ModuleOrder = append(bad.ModuleOrder, "ghost")

	assert.Panics(t, func() { NewFromState(bad) })
}

func TestNew_EmptyCourse(t *testing.T) {
	st := New(&content.Course{ID: "c1", Title: "Empty"}, WithLogger(quietLogger()))

	require.NoError(t, CheckIntegrity(st.State()))
	tree := st.Tree()
	assert.Equal(t, "c1", tree.ID)
	assert.Empty(t, tree.Modules)
}
