package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusQueue_FIFO(t *testing.T) {
	q := NewStatusQueue()

	q.Publish(StatusEvent{Target: CourseTarget(), Status: StatusScheduled})
	q.Publish(StatusEvent{Target: CourseTarget(), Status: StatusInFlight})
	q.Publish(StatusEvent{Target: CourseTarget(), Status: StatusSaved})
	assert.Equal(t, 3, q.Len())

	ev, ok := q.TryNext()
	require.True(t, ok)
	assert.Equal(t, StatusScheduled, ev.Status)

	ev, ok = q.TryNext()
	require.True(t, ok)
	assert.Equal(t, StatusInFlight, ev.Status)

	ev, ok = q.TryNext()
	require.True(t, ok)
	assert.Equal(t, StatusSaved, ev.Status)

	_, ok = q.TryNext()
	assert.False(t, ok)
}

func TestStatusQueue_TargetsKeepTheirIdentity(t *testing.T) {
	q := NewStatusQueue()

	q.Publish(StatusEvent{Target: LessonOrderTarget("m1"), Status: StatusScheduled})
	q.Publish(StatusEvent{Target: LessonOrderTarget("m2"), Status: StatusScheduled})

	ev, _ := q.TryNext()
	assert.Equal(t, "m1", ev.Target.Key)
	ev, _ = q.TryNext()
	assert.Equal(t, "m2", ev.Target.Key)
}

func TestStatusQueue_WaitSignalsAvailability(t *testing.T) {
	q := NewStatusQueue()

	done := make(chan StatusEvent, 1)
	go func() {
		<-q.Wait()
		ev, _ := q.TryNext()
		done <- ev
	}()

	q.Publish(StatusEvent{Target: CourseTarget(), Status: StatusSaved})

	select {
	case ev := <-done:
		assert.Equal(t, StatusSaved, ev.Status)
	case <-time.After(time.Second):
		t.Fatal("waiter never woke up")
	}
}

func TestStatusQueue_SignalCoalesces(t *testing.T) {
	q := NewStatusQueue()

	for i := 0; i < 10; i++ {
		q.Publish(StatusEvent{Target: CourseTarget(), Status: StatusScheduled})
	}

	// One buffered signal, ten events: a consumer drains with TryNext.
	<-q.Wait()
	n := 0
	for {
		if _, ok := q.TryNext(); !ok {
			break
		}
		n++
	}
	assert.Equal(t, 10, n)
}

func TestStatusQueue_CloseRejectsAndWakes(t *testing.T) {
	q := NewStatusQueue()
	q.Close()

	assert.False(t, q.Publish(StatusEvent{Target: CourseTarget()}))

	select {
	case <-q.Wait():
	case <-time.After(time.Second):
		t.Fatal("closed queue did not wake waiter")
	}

	q.Close() // double close is a no-op
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "course", CourseTarget().String())
	assert.Equal(t, "module-order", ModuleOrderTarget().String())
	assert.Equal(t, "lesson-order:m1", LessonOrderTarget("m1").String())
}
