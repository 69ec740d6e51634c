// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package orgstore

import (
	"context"
	"sync"

	"github.com/ManuGH/orgconsole/internal/settings"
)

// Memory keeps the record in process memory. Contents are lost on exit.
type Memory struct {
	mu     sync.RWMutex
	record settings.Record
	closed bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(_ context.Context) (settings.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return settings.Record{}, ErrClosed
	}
	return m.record, nil
}

func (m *Memory) Put(_ context.Context, r settings.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.record = r
	return nil
}

func (m *Memory) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
