// Package timer schedules events for delivery on a channel after a delay.
package timer

import (
	"sync"
	"time"
)

// An EventID identifies a scheduled event. IDs increase monotonically and
// are never reused by a Timer.
type EventID uint64

// A TimedEvent is an event whose deadline passed.
type TimedEvent[E any] struct {
	ID    EventID
	Event E
}

// A Timer delivers scheduled events on the channel returned by C.
// It is safe for concurrent use.
type Timer[E any] struct {
	mu      sync.Mutex
	lastID  EventID
	pending map[EventID]*time.Timer

	c    chan TimedEvent[E]
	done chan struct{}
	once sync.Once
}

// New returns a Timer whose channel buffers up to size events.
func New[E any](size int) *Timer[E] {
	return &Timer[E]{
		pending: make(map[EventID]*time.Timer),
		c:       make(chan TimedEvent[E], size),
		done:    make(chan struct{}),
	}
}

// C returns the channel events are delivered on.
func (t *Timer[E]) C() <-chan TimedEvent[E] { return t.c }

// Schedule arranges for e to be delivered after d and returns its ID.
func (t *Timer[E]) Schedule(d time.Duration, e E) EventID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastID++
	id := t.lastID
	t.pending[id] = time.AfterFunc(d, func() {
		t.fire(TimedEvent[E]{ID: id, Event: e})
	})
	return id
}

// Cancel stops delivery of the event id. It reports whether the event was
// still pending.
func (t *Timer[E]) Cancel(id EventID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tm, ok := t.pending[id]
	if !ok {
		return false
	}
	delete(t.pending, id)
	return tm.Stop()
}

// Pending returns the number of events not yet delivered.
func (t *Timer[E]) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Stop cancels all pending events. Events already being delivered are
// dropped.
func (t *Timer[E]) Stop() {
	t.once.Do(func() {
		t.mu.Lock()
		for id, tm := range t.pending {
			tm.Stop()
			delete(t.pending, id)
		}
		t.mu.Unlock()
		close(t.done)
	})
}

func (t *Timer[E]) fire(ev TimedEvent[E]) {
	t.mu.Lock()
	if _, ok := t.pending[ev.ID]; !ok {
		// Canceled after the timer fired.
		t.mu.Unlock()
		return
	}
	delete(t.pending, ev.ID)
	t.mu.Unlock()

	select {
	case t.c <- ev:
	case <-t.done:
	}
}
