// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package graphql

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadResponse marks a response that is not a valid GraphQL envelope.
	ErrBadResponse = errors.New("graphql: malformed response")
	// ErrNoData marks a successful envelope without data or errors.
	ErrNoData = errors.New("graphql: response carried no data")
)

// ErrorItem is one entry of the "errors" array of a GraphQL response.
type ErrorItem struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// NetworkError reports a failure below the GraphQL layer: transport errors,
// non-2xx statuses and unreadable bodies.
type NetworkError struct {
	StatusCode int    // 0 when no response was received
	Message    string // server-provided "message" of an error body, if any
	Err        error  // underlying cause
}

func (e *NetworkError) Error() string {
	msg := "network error"
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Error is returned for every failed operation. Either GraphQLErrors or
// NetworkError is set.
type Error struct {
	Operation     string
	GraphQLErrors []ErrorItem
	NetworkError  *NetworkError
}

func (e *Error) Error() string {
	if e.NetworkError != nil {
		return fmt.Sprintf("graphql: %s: %v", e.Operation, e.NetworkError)
	}
	msgs := make([]string, 0, len(e.GraphQLErrors))
	for _, item := range e.GraphQLErrors {
		msgs = append(msgs, item.Message)
	}
	return fmt.Sprintf("graphql: %s: %s", e.Operation, strings.Join(msgs, "; "))
}

func (e *Error) Unwrap() error {
	if e.NetworkError != nil {
		return e.NetworkError
	}
	return nil
}

// ExtractErrorMessage returns the human-readable text of err: the first
// non-empty GraphQL error message, else the message of a network error body.
// It returns "" when nothing presentable exists, so callers can fall back to
// their own wording.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var gqlErr *Error
	if errors.As(err, &gqlErr) {
		for _, item := range gqlErr.GraphQLErrors {
			if msg := strings.TrimSpace(item.Message); msg != "" {
				return msg
			}
		}
		if gqlErr.NetworkError != nil {
			return strings.TrimSpace(gqlErr.NetworkError.Message)
		}
		return ""
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return strings.TrimSpace(netErr.Message)
	}
	return ""
}

// isTechnical reports whether err says the API is unhealthy rather than
// that it rejected the request. Only technical failures count against the
// circuit breaker.
func isTechnical(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		return false
	}
	return netErr.StatusCode == 0 || netErr.StatusCode >= 500
}
