package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseforge/courseforge/internal/content"
	"github.com/courseforge/courseforge/internal/courseapi"
	"github.com/courseforge/courseforge/internal/store"
	"github.com/courseforge/courseforge/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine builds an engine over a fake backend serving tree, with
// a short debounce and a deterministic placeholder sequence.
func newTestEngine(t *testing.T, tree *content.CourseTree, opts ...EngineOption) (*Engine, *testutil.FakeClient) {
	t.Helper()

	fake := testutil.NewFakeClient(tree)
	st := store.NewFromState(store.FromTree(tree), store.WithLogger(quietLogger()))
	base := []EngineOption{
		WithLogger(quietLogger()),
		WithIDGenerator(content.NewFixedIDGenerator(
			"tmp_a", "tmp_b", "tmp_c", "tmp_d", "tmp_e", "tmp_f",
		)),
		WithDebounce(10 * time.Millisecond),
		WithBackoff(5*time.Millisecond, 20*time.Millisecond),
	}
	e := New(st, fake, append(base, opts...)...)
	t.Cleanup(e.Close)
	return e, fake
}

func flush(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Flush(ctx))
}

// waitStatus polls until the target reaches want or the deadline hits.
func waitStatus(t *testing.T, e *Engine, target Target, want SaveStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, _ := e.Status(target)
		if got == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	got, _ := e.Status(target)
	t.Fatalf("target %s never reached %s (stuck at %s)", target, want, got)
}

func TestLoad_BuildsEngineFromFetchedTree(t *testing.T) {
	fake := testutil.NewFakeClient(testutil.SampleTree())

	e, err := Load(context.Background(), fake, "c1", WithLogger(quietLogger()))
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, "Go Basics", e.Tree().Title)
	require.Len(t, e.Tree().Modules, 2)
	assert.Equal(t, "m1", e.Tree().Modules[0].ID)
}

func TestLoad_PropagatesFetchError(t *testing.T) {
	fake := testutil.NewFakeClient(testutil.SampleTree())

	_, err := Load(context.Background(), fake, "missing", WithLogger(quietLogger()))

	require.Error(t, err)
	assert.Equal(t, courseapi.KindFatal, courseapi.KindOf(err))
}

func TestEngine_ClosedRejectsOperations(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())
	e.Close()

	_, err := e.AddModule("Week 3", "")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, e.Publish(context.Background()), ErrClosed)
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())
	e.Close()
	e.Close()
}

func TestEngine_StatusDefaultsToIdle(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	status, err := e.Status(CourseTarget())
	assert.Equal(t, StatusIdle, status)
	assert.NoError(t, err)
	assert.False(t, e.Dirty())
}

func TestEngine_Publish_OptimisticAndConfirmed(t *testing.T) {
	e, fake := newTestEngine(t, testutil.SampleTree())

	require.NoError(t, e.Publish(context.Background()))

	assert.True(t, e.Tree().Published)
	assert.False(t, e.Tree().Draft)
	assert.True(t, fake.ServerTree().Published)
	assert.Equal(t, 1, fake.CallCount("Publish"))
}

func TestEngine_Publish_FailureRestoresExactPriorState(t *testing.T) {
	e, fake := newTestEngine(t, testutil.SampleTree())
	fake.FailNext("Publish", courseapi.NewError(courseapi.KindNetwork, "publish course", "boom"))

	before := e.Store().State()
	err := e.Publish(context.Background())

	require.Error(t, err)
	assert.Same(t, before, e.Store().State())
	assert.False(t, e.Tree().Published)
	assert.False(t, fake.ServerTree().Published)
}

func TestEngine_Unpublish_RevertsToDraft(t *testing.T) {
	tree := testutil.SampleTree()
	tree.Draft = false
	tree.Published = true
	e, fake := newTestEngine(t, tree)

	require.NoError(t, e.Unpublish(context.Background()))

	assert.False(t, e.Tree().Published)
	assert.True(t, e.Tree().Draft)
	assert.True(t, fake.ServerTree().Draft)
}

func TestEngine_CloneCourse_LeavesLocalStateAlone(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())
	before := e.Store().State()

	clone, err := e.CloneCourse(context.Background())

	require.NoError(t, err)
	assert.NotEqual(t, "c1", clone.ID)
	require.Len(t, clone.Modules, 2)
	assert.NotEqual(t, "m1", clone.Modules[0].ID)
	assert.Same(t, before, e.Store().State())
}

func TestEngine_Events_ReportLifecycleOfASave(t *testing.T) {
	e, _ := newTestEngine(t, testutil.SampleTree())

	_, err := e.AddModule("Week 3", "")
	require.NoError(t, err)
	flush(t, e)
	waitStatus(t, e, CourseTarget(), StatusSaved)

	var seen []SaveStatus
	for {
		ev, ok := e.Events().TryNext()
		if !ok {
			break
		}
		if ev.Target == CourseTarget() {
			seen = append(seen, ev.Status)
		}
	}
	assert.Equal(t, []SaveStatus{StatusScheduled, StatusInFlight, StatusSaved}, seen)
}
