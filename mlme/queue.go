package mlme

// A Queue is an unbounded FIFO used as a non-blocking sink between a single
// producer and a single consumer running on the same goroutine.
type Queue[T any] struct {
	items []T
}

// Send appends v to the queue. It never blocks.
func (q *Queue[T]) Send(v T) { q.items = append(q.items, v) }

// Len returns the number of queued items.
func (q *Queue[T]) Len() int { return len(q.items) }

// Drain removes and returns all queued items in insertion order.
func (q *Queue[T]) Drain() []T {
	items := q.items
	q.items = nil
	return items
}
