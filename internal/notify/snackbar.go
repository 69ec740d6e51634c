// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package notify surfaces transient notifications (snackbars) for write outcomes.
package notify

import (
	"sync"

	"github.com/ManuGH/orgconsole/internal/metrics"
)

// Variant selects the snackbar style.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
)

// Snackbar is a transient, non-blocking message.
type Snackbar struct {
	Variant     Variant `json:"variant"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
}

// Sink accepts snackbars for display.
type Sink interface {
	PushSnackbar(Snackbar)
}

// Queue holds snackbars until the next render drains them, so each one is
// shown once.
type Queue struct {
	mu    sync.Mutex
	items []Snackbar
}

// PushSnackbar appends s.
func (q *Queue) PushSnackbar(s Snackbar) {
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()
	metrics.RecordSnackbar(string(s.Variant))
}

// Drain returns the pending snackbars in push order and empties the queue.
func (q *Queue) Drain() []Snackbar {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of pending snackbars.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
