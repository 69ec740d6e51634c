// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package orgstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/orgconsole/internal/config"
	"github.com/ManuGH/orgconsole/internal/settings"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "org.db"), DefaultSQLiteOptions())
			require.NoError(t, err)
			return s
		},
		"badger": func(t *testing.T) Store {
			s, err := OpenBadger(BadgerOptions{InMemory: true})
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_GetBeforePutReturnsDefault(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			got, err := s.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, settings.Record{}, got)
		})
	}
}

func TestStore_PutReplacesRecord(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			first := settings.Record{DisplayName: "Acme", Email: "ops@acme.com", ErrorReportingConsent: true}
			require.NoError(t, s.Put(ctx, first))
			got, err := s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, first, got)

			second := settings.Record{DisplayName: "Acme Ltd", Email: "it@acme.com"}
			require.NoError(t, s.Put(ctx, second))
			got, err = s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, second, got)

			assert.NoError(t, s.Ping(ctx))
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "org.db")
	want := settings.Record{DisplayName: "Acme", Email: "ops@acme.com", ErrorReportingConsent: true}

	s, err := OpenSQLite(ctx, path, DefaultSQLiteOptions())
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, want))
	require.NoError(t, s.Close())

	// Migrations are idempotent on reopen.
	s, err = OpenSQLite(ctx, path, DefaultSQLiteOptions())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	issues, err := s.Verify(ctx, true)
	require.NoError(t, err)
	assert.Nil(t, issues)
}

func TestBadger_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	want := settings.Record{DisplayName: "Acme", Email: "ops@acme.com"}

	s, err := OpenBadger(BadgerOptions{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, want))
	require.NoError(t, s.Close())

	s, err = OpenBadger(BadgerOptions{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMemory_Closed(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Close())

	_, err := s.Get(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Put(context.Background(), settings.Record{}), ErrClosed)
	assert.ErrorIs(t, s.Ping(context.Background()), ErrClosed)
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.OrgAPIConfig{Store: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, config.OrgAPIConfig{Store: config.StoreSQLite, Path: filepath.Join(t.TempDir(), "org.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.OrgAPIConfig{Store: "etcd"})
	assert.Error(t, err)
}
