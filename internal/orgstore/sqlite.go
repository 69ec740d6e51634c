// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package orgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/ManuGH/orgconsole/internal/log"
	"github.com/ManuGH/orgconsole/internal/settings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteOptions are the connection parameters applied to every pooled
// connection.
type SQLiteOptions struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultSQLiteOptions suits a single-writer service.
func DefaultSQLiteOptions() SQLiteOptions {
	return SQLiteOptions{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
	}
}

// SQLite stores the record in a single-row table.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string, opts SQLiteOptions) (*SQLite, error) {
	db, err := openDB(path, opts)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// openDB sets the pragmas through the DSN so they apply to all connections
// in the pool, not only the first one.
func openDB(path string, opts SQLiteOptions) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		path, opts.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("sqlite: migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: migrate up: %w", err)
	}
	if len(results) > 0 {
		logger := log.WithComponent("orgstore")
		logger.Info().
			Str(log.FieldEvent, "store.migrated").
			Int("applied", len(results)).
			Msg("applied schema migrations")
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context) (settings.Record, error) {
	var (
		r       settings.Record
		consent int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT display_name, email, error_reporting_consent FROM general_settings WHERE id = 1`,
	).Scan(&r.DisplayName, &r.Email, &consent)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Record{}, nil
	}
	if err != nil {
		return settings.Record{}, fmt.Errorf("sqlite: get settings: %w", err)
	}
	r.ErrorReportingConsent = consent != 0
	return r, nil
}

func (s *SQLite) Put(ctx context.Context, r settings.Record) error {
	consent := 0
	if r.ErrorReportingConsent {
		consent = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO general_settings (id, display_name, email, error_reporting_consent, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			error_reporting_consent = excluded.error_reporting_consent,
			updated_at = excluded.updated_at`,
		r.DisplayName, r.Email, consent, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlite: put settings: %w", err)
	}
	return nil
}

// Ping runs a quick integrity check.
func (s *SQLite) Ping(ctx context.Context) error {
	issues, err := s.Verify(ctx, false)
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		return fmt.Errorf("sqlite: integrity check failed: %s", strings.Join(issues, "; "))
	}
	return nil
}

// Verify runs PRAGMA quick_check, or integrity_check when full is set. It
// returns the diagnostic rows when the database is damaged and nil when it
// is healthy.
func (s *SQLite) Verify(ctx context.Context, full bool) ([]string, error) {
	pragma := "PRAGMA quick_check;"
	if full {
		pragma = "PRAGMA integrity_check;"
	}

	rows, err := s.db.QueryContext(ctx, pragma)
	if err != nil {
		return nil, fmt.Errorf("sqlite: integrity pragma failed: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var res string
		if err := rows.Scan(&res); err != nil {
			return nil, fmt.Errorf("sqlite: scan integrity row: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: integrity rows: %w", err)
	}

	// Healthy is exactly one "ok" row.
	if len(results) == 1 && strings.EqualFold(results[0], "ok") {
		return nil, nil
	}
	if len(results) == 0 {
		return []string{"no results returned from integrity check"}, nil
	}
	return results, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
