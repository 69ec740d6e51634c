// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package notify

import (
	"sync"

	"github.com/ManuGH/orgconsole/internal/binding"
	"github.com/ManuGH/orgconsole/internal/graphql"
)

// Titles of the company information notifications.
const (
	TitleUpdateSucceeded = "Successfully updated company information"
	TitleUpdateFailed    = "Failed to update company information due to an unknown error"
)

// Rules turns write outcomes into snackbars. Each distinct outcome, told
// apart by its sequence number, fires at most once no matter how often it is
// observed, and an outcome older than one already seen is ignored.
type Rules[T any] struct {
	sink Sink

	mu       sync.Mutex
	lastData uint64
	lastErr  uint64
}

// NewRules returns rules that push to sink.
func NewRules[T any](sink Sink) *Rules[T] {
	return &Rules[T]{sink: sink}
}

// Observe compares r with the previously observed outcome and fires the
// matching rule on a new one. It reports whether a snackbar was pushed.
func (n *Rules[T]) Observe(r binding.WriteResult[T]) bool {
	if r.Idle() {
		return false
	}

	n.mu.Lock()
	var s Snackbar
	switch {
	case r.Data != nil && r.Seq > n.lastData && r.Seq > n.lastErr:
		n.lastData = r.Seq
		s = Snackbar{Variant: VariantSuccess, Title: TitleUpdateSucceeded}
	case r.Err != nil && r.Seq > n.lastErr && r.Seq > n.lastData:
		n.lastErr = r.Seq
		title := graphql.ExtractErrorMessage(r.Err)
		if title == "" {
			title = TitleUpdateFailed
		}
		s = Snackbar{Variant: VariantError, Title: title}
	default:
		n.mu.Unlock()
		return false
	}
	n.mu.Unlock()

	n.sink.PushSnackbar(s)
	return true
}
