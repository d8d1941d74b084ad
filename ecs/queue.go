package ecs

// Queue is a simple FIFO. It is not safe for concurrent use; everything that
// touches a Queue runs on the game loop.
type Queue[T any] struct {
	items []T
}

// Push adds an item.
func (q *Queue[T]) Push(items ...T) {
	if q == nil {
		return
	}
	q.items = append(q.items, items...)
}

// Drain returns all items and clears the queue. Items pushed while the caller
// processes the returned slice land in the next Drain.
func (q *Queue[T]) Drain() []T {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Clear drops every pending item.
func (q *Queue[T]) Clear() {
	if q == nil {
		return
	}
	q.items = nil
}
