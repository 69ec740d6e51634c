// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package orgstore persists the organization settings record served by the
// reference organization API.
package orgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/orgconsole/internal/config"
	"github.com/ManuGH/orgconsole/internal/settings"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("orgstore: closed")

// Store holds exactly one settings record. Get returns the zero record until
// the first Put.
type Store interface {
	Get(ctx context.Context) (settings.Record, error)
	Put(ctx context.Context, r settings.Record) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the backend selected by cfg.Store.
func Open(ctx context.Context, cfg config.OrgAPIConfig) (Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return OpenSQLite(ctx, cfg.Path, DefaultSQLiteOptions())
	case config.StoreBadger:
		return OpenBadger(BadgerOptions{Dir: cfg.Path})
	case config.StoreMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("orgstore: unknown backend %q", cfg.Store)
	}
}
