package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseforge/courseforge/internal/store"
	"github.com/courseforge/courseforge/internal/testutil"
)

func TestJournal_RecordResolve(t *testing.T) {
	j := NewJournal(quietLogger())
	st := store.NewFromState(store.FromTree(testutil.SampleTree()), store.WithLogger(quietLogger()))

	entry := j.Record("publish", st.State())
	assert.Equal(t, 1, j.Pending())

	j.Resolve(entry)
	assert.Equal(t, 0, j.Pending())
}

func TestJournal_RollbackRestoresExactSnapshot(t *testing.T) {
	j := NewJournal(quietLogger())
	st := store.NewFromState(store.FromTree(testutil.SampleTree()), store.WithLogger(quietLogger()))
	snap := st.State()
	entry := j.Record("autosave course", snap)

	// Something optimistic happens on top of the snapshot.
	next := snap.Clone()
	c := *next.Course
	c.Title = "Doomed Edit"
	next.Course = &c
	require.NoError(t, st.Commit(next))
	require.Equal(t, "Doomed Edit", st.State().Course.Title)

	j.Rollback(entry, st)

	assert.Same(t, snap, st.State())
	assert.Equal(t, 0, j.Pending())
}

func TestJournal_IndependentEntries(t *testing.T) {
	j := NewJournal(quietLogger())
	st := store.NewFromState(store.FromTree(testutil.SampleTree()), store.WithLogger(quietLogger()))

	a := j.Record("autosave course", st.State())
	b := j.Record("publish", st.State())
	assert.Equal(t, 2, j.Pending())

	j.Resolve(a)
	assert.Equal(t, 1, j.Pending())
	j.Resolve(b)
	assert.Equal(t, 0, j.Pending())
}
