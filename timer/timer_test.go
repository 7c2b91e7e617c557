package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[E any](t *testing.T, tm *Timer[E]) TimedEvent[E] {
	t.Helper()
	select {
	case ev := <-tm.C():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return TimedEvent[E]{}
	}
}

func TestScheduleDeliversInDeadlineOrder(t *testing.T) {
	tm := New[string](4)
	defer tm.Stop()

	late := tm.Schedule(60*time.Millisecond, "late")
	early := tm.Schedule(5*time.Millisecond, "early")
	assert.Greater(t, late, EventID(0))
	assert.Greater(t, early, late)

	ev := receive(t, tm)
	assert.Equal(t, TimedEvent[string]{ID: early, Event: "early"}, ev)

	ev = receive(t, tm)
	assert.Equal(t, TimedEvent[string]{ID: late, Event: "late"}, ev)
	assert.Zero(t, tm.Pending())
}

func TestCancel(t *testing.T) {
	tm := New[int](1)
	defer tm.Stop()

	id := tm.Schedule(20*time.Millisecond, 1)
	require.Equal(t, 1, tm.Pending())
	assert.True(t, tm.Cancel(id))
	assert.False(t, tm.Cancel(id))
	assert.Zero(t, tm.Pending())

	tm.Schedule(time.Millisecond, 2)
	ev := receive(t, tm)
	assert.Equal(t, 2, ev.Event)
}

func TestStop(t *testing.T) {
	tm := New[int](0)
	tm.Schedule(time.Millisecond, 1)
	tm.Schedule(time.Hour, 2)

	// The unbuffered channel is never read; Stop must release the sender.
	time.Sleep(10 * time.Millisecond)
	tm.Stop()
	tm.Stop()
	assert.Zero(t, tm.Pending())
}
