// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package orgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/ManuGH/orgconsole/internal/settings"
)

var generalSettingsKey = []byte("settings/general")

// BadgerOptions selects an on-disk directory or, with InMemory, a volatile
// database.
type BadgerOptions struct {
	Dir      string
	InMemory bool
}

// Badger stores the record as JSON under a single key.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens the database described by opts.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	return &Badger{db: db}, nil
}

func (s *Badger) Get(ctx context.Context) (settings.Record, error) {
	if err := ctx.Err(); err != nil {
		return settings.Record{}, err
	}
	var r settings.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(generalSettingsKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return settings.Record{}, nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return settings.Record{}, ErrClosed
	}
	if err != nil {
		return settings.Record{}, fmt.Errorf("badger: get settings: %w", err)
	}
	return r, nil
}

func (s *Badger) Put(ctx context.Context, r settings.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("badger: encode settings: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(generalSettingsKey, b)
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	if err != nil {
		return fmt.Errorf("badger: put settings: %w", err)
	}
	return nil
}

func (s *Badger) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

func (s *Badger) Close() error { return s.db.Close() }
