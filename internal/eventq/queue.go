// Package eventq provides the unbounded FIFO that hands events from
// producers to a single consumer goroutine.
package eventq

import (
	"sync"

	"github.com/eapache/queue"
)

// Queue is an unbounded FIFO. Push never blocks; the consumer waits on
// Ready and drains with Pop.
type Queue[T any] struct {
	mu     sync.Mutex
	items  *queue.Queue
	signal chan struct{}
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items:  queue.New(),
		signal: make(chan struct{}, 1),
	}
}

// Push appends v and wakes the consumer.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items.Add(v)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop removes the oldest item, if any.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Length() == 0 {
		var zero T
		return zero, false
	}
	return q.items.Remove().(T), true
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Ready is signalled after each Push. A consumer woken by it must drain the
// queue, since several pushes may share one signal.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.signal
}
