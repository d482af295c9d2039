// Package queue provides the in-memory work queue for build synchronization.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by Dequeue once the queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Queue is a bounded FIFO of model codes with context-aware operations.
// The orchestrator produces, workers consume.
type Queue struct {
	ch      chan string
	closeMu sync.Mutex
	closed  bool
}

// New constructs a queue with the provided capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		ch: make(chan string, capacity),
	}
}

// Enqueue pushes a model code or returns when the context ends.
func (q *Queue) Enqueue(ctx context.Context, model string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- model:
		return nil
	}
}

// Dequeue pops the next model code, respecting context cancellation. A
// worker bounds its wait with a context deadline and exits on error.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case model, ok := <-q.ch:
		if !ok {
			return "", ErrClosed
		}
		return model, nil
	}
}

// Len reports the number of queued items not yet consumed.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close closes the underlying channel for shutdown. Safe to call twice.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
