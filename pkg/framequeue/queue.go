// Package framequeue provides a fixed-capacity FIFO used to hand decoded
// frames from the decode pump to a playback consumer.
//
// Non-blocking TryPut/TryGet report "try again" conditions as false. The
// blocking Put/Get wait on channels rather than spinning and always return
// once the queue is closed or the caller's context ends.
package framequeue

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by blocking operations after Close.
	ErrClosed = errors.New("framequeue: closed")

	// ErrCleared is returned by Put when the queue was cleared while the
	// put was waiting for space. The element was not inserted.
	ErrCleared = errors.New("framequeue: cleared while waiting")
)

// Queue is a bounded circular buffer.
type Queue[T any] struct {
	mu    sync.Mutex
	buf   []T
	head  int
	count int
	epoch uint64

	notEmpty chan struct{}
	notFull  chan struct{}
	done     chan struct{}
	closed   bool
}

// New creates a queue holding at most capacity elements.
// Capacities below 1 are raised to 1.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		buf:      make([]T, capacity),
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// Len returns the number of buffered elements.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Epoch returns the number of times the queue has been cleared.
func (q *Queue[T]) Epoch() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.epoch
}

// Done returns a channel that is closed by Close.
func (q *Queue[T]) Done() <-chan struct{} { return q.done }

// TryPut appends v at the tail. It returns false, leaving the queue
// untouched, when the queue is full or closed.
func (q *Queue[T]) TryPut(v T) bool {
	q.mu.Lock()
	ok := q.putLocked(v)
	q.mu.Unlock()
	if ok {
		signal(q.notEmpty)
	}
	return ok
}

// TryGet removes the head element. It returns false, leaving the queue
// untouched, when the queue is empty.
func (q *Queue[T]) TryGet() (T, bool) {
	v, _, ok := q.tryGet()
	return v, ok
}

// Put appends v, waiting while the queue is full.
func (q *Queue[T]) Put(ctx context.Context, v T) error {
	q.mu.Lock()
	start := q.epoch
	q.mu.Unlock()

	for {
		q.mu.Lock()
		switch {
		case q.closed:
			q.mu.Unlock()
			return ErrClosed
		case q.epoch != start:
			q.mu.Unlock()
			return ErrCleared
		}
		ok := q.putLocked(v)
		q.mu.Unlock()
		if ok {
			signal(q.notEmpty)
			return nil
		}

		select {
		case <-q.notFull:
		case <-q.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Get removes the head element, waiting while the queue is empty.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	v, _, err := q.GetEpoch(ctx)
	return v, err
}

// GetEpoch is Get that also returns the clear epoch the element was
// removed in. Comparing it against a later Epoch tells a consumer whether
// the queue was cleared after it took the element.
func (q *Queue[T]) GetEpoch(ctx context.Context) (T, uint64, error) {
	for {
		v, epoch, ok := q.tryGet()
		if ok {
			return v, epoch, nil
		}

		select {
		case <-q.notEmpty:
		case <-q.done:
			// A close does not discard buffered elements, but consumers
			// stop at the first empty read after it.
			if v, epoch, ok := q.tryGet(); ok {
				return v, epoch, nil
			}
			var zero T
			return zero, epoch, ErrClosed
		case <-ctx.Done():
			var zero T
			return zero, epoch, ctx.Err()
		}
	}
}

// Clear discards every buffered element and returns how many were dropped.
// Puts that are waiting for space when Clear runs fail with ErrCleared.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	n := q.count
	var zero T
	for i := 0; i < q.count; i++ {
		q.buf[(q.head+i)%len(q.buf)] = zero
	}
	q.head = 0
	q.count = 0
	q.epoch++
	q.mu.Unlock()

	signal(q.notFull)
	return n
}

// Close stops the queue from accepting elements and wakes every waiter.
// Calling Close more than once is safe.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

func (q *Queue[T]) putLocked(v T) bool {
	if q.closed || q.count == len(q.buf) {
		return false
	}
	q.buf[(q.head+q.count)%len(q.buf)] = v
	q.count++
	return true
}

func (q *Queue[T]) tryGet() (T, uint64, bool) {
	q.mu.Lock()
	var zero T
	if q.count == 0 {
		epoch := q.epoch
		q.mu.Unlock()
		return zero, epoch, false
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	epoch := q.epoch
	q.mu.Unlock()

	signal(q.notFull)
	return v, epoch, true
}

// signal leaves a wake-up token without blocking. One token is enough
// because waiters re-check the queue state after waking.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
