// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package binding

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is the outcome of a write dispatched after Close.
var ErrClosed = errors.New("binding: closed")

// WriteResult is the latest write outcome. Seq is zero while idle and
// otherwise identifies the call that produced Err or Data.
type WriteResult[T any] struct {
	Seq  uint64
	Err  error
	Data *T
}

// Idle reports whether no write has resolved yet.
func (r WriteResult[T]) Idle() bool { return r.Seq == 0 }

// Ticket tracks one dispatched write.
type Ticket[T any] struct {
	seq    uint64
	done   chan struct{}
	result WriteResult[T]
}

// Seq is the call number of this write.
func (t *Ticket[T]) Seq() uint64 { return t.seq }

// Done is closed when this write has resolved.
func (t *Ticket[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until this write resolves or ctx ends.
func (t *Ticket[T]) Wait(ctx context.Context) (WriteResult[T], error) {
	select {
	case <-t.done:
		return copyWrite(t.result), nil
	case <-ctx.Done():
		return WriteResult[T]{}, ctx.Err()
	}
}

// Mutation dispatches writes. Calls are neither deduplicated nor queued;
// only the most recently dispatched call may update State, so an older call
// finishing late cannot overwrite a newer outcome.
type Mutation[In, Out any] struct {
	mutate func(context.Context, In) (Out, error)

	mu        sync.Mutex
	seq       uint64
	closed    bool
	state     WriteResult[Out]
	observers []func(WriteResult[Out])
}

// NewMutation returns an idle mutation.
func NewMutation[In, Out any](mutate func(context.Context, In) (Out, error)) *Mutation[In, Out] {
	return &Mutation[In, Out]{mutate: mutate}
}

// Subscribe registers fn to run after every state change. It runs on the
// goroutine that resolved the write and must be safe for concurrent use.
func (m *Mutation[In, Out]) Subscribe(fn func(WriteResult[Out])) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Mutate dispatches one write and returns its ticket immediately.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) *Ticket[Out] {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		t := &Ticket[Out]{done: make(chan struct{}), result: WriteResult[Out]{Err: ErrClosed}}
		close(t.done)
		return t
	}
	m.seq++
	t := &Ticket[Out]{seq: m.seq, done: make(chan struct{})}
	m.mu.Unlock()

	go func() {
		v, err := m.mutate(ctx, in)
		res := WriteResult[Out]{Seq: t.seq, Err: err}
		if err == nil {
			res.Data = &v
		}
		t.result = res
		m.resolve(res)
		close(t.done)
	}()
	return t
}

func (m *Mutation[In, Out]) resolve(res WriteResult[Out]) {
	m.mu.Lock()
	if m.closed || res.Seq != m.seq {
		m.mu.Unlock()
		return
	}
	m.state = res
	observers := append([]func(WriteResult[Out]){}, m.observers...)
	m.mu.Unlock()

	for _, fn := range observers {
		fn(copyWrite(res))
	}
}

// State returns a copy of the latest outcome.
func (m *Mutation[In, Out]) State() WriteResult[Out] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyWrite(m.state)
}

// Close detaches the mutation. Writes in flight complete and release their
// tickets, but no longer change State or reach observers.
func (m *Mutation[In, Out]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func copyWrite[T any](r WriteResult[T]) WriteResult[T] {
	if r.Data != nil {
		v := *r.Data
		r.Data = &v
	}
	return r
}
