// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package binding

import (
	"context"
	"sync"
)

// ReadResult is the lifecycle of a read: Loading, then Err or Data.
// Exactly one of the three is meaningful at a time.
type ReadResult[T any] struct {
	Loading bool
	Err     error
	Data    *T
}

// Resolved reports whether the read has finished.
func (r ReadResult[T]) Resolved() bool { return !r.Loading }

// Query runs a single read on Start. It never retries.
type Query[T any] struct {
	fetch func(context.Context) (T, error)

	mu      sync.Mutex
	started bool
	closed  bool
	state   ReadResult[T]
	done    chan struct{}
}

// NewQuery returns a query in the loading state.
func NewQuery[T any](fetch func(context.Context) (T, error)) *Query[T] {
	return &Query[T]{
		fetch: fetch,
		state: ReadResult[T]{Loading: true},
		done:  make(chan struct{}),
	}
}

// Start issues the read. Only the first call has an effect.
func (q *Query[T]) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started || q.closed {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	go func() {
		v, err := q.fetch(ctx)
		q.resolve(v, err)
	}()
}

func (q *Query[T]) resolve(v T, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	defer close(q.done)

	if q.closed {
		return
	}
	if err != nil {
		q.state = ReadResult[T]{Err: err}
		return
	}
	q.state = ReadResult[T]{Data: &v}
}

// State returns a copy of the current lifecycle.
func (q *Query[T]) State() ReadResult[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return copyRead(q.state)
}

// Done is closed once the read has resolved, whether or not it was kept.
func (q *Query[T]) Done() <-chan struct{} {
	return q.done
}

// Wait blocks until the read resolves or ctx ends, and returns the state
// observed at that point.
func (q *Query[T]) Wait(ctx context.Context) (ReadResult[T], error) {
	select {
	case <-q.done:
		return q.State(), nil
	case <-ctx.Done():
		return q.State(), ctx.Err()
	}
}

// Set replaces the data of a successfully resolved query, for example with
// the record a write confirmed. It reports whether the value was taken.
func (q *Query[T]) Set(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.state.Data == nil {
		return false
	}
	q.state = ReadResult[T]{Data: &v}
	return true
}

// Close detaches the query. A read still in flight completes but its result is dropped.
func (q *Query[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	if !q.started {
		q.started = true
		close(q.done)
	}
}

func copyRead[T any](r ReadResult[T]) ReadResult[T] {
	if r.Data != nil {
		v := *r.Data
		r.Data = &v
	}
	return r
}
