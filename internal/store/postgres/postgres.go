// Package postgres keeps archived listings in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/sitenav/internal/model"
	"github.com/alfredjeanlab/sitenav/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Options tunes the connection pool. Archiving is a low-rate batch
// workload, so the defaults keep few connections open.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	// SkipMigrations leaves the schema untouched.
	SkipMigrations bool
}

// DefaultOptions returns the pool settings used by New.
func DefaultOptions() Options {
	return Options{MaxOpenConns: 4, MaxIdleConns: 1, ConnMaxIdleTime: time.Minute}
}

// PostgresStore is the top-level store. Writes of an archive and its
// nodes always happen in a single transaction.
type PostgresStore struct {
	archiveQueries
	db *sql.DB
}

var _ store.Store = (*PostgresStore)(nil)

// New opens databaseURL with DefaultOptions and applies pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	return Open(context.Background(), databaseURL, DefaultOptions())
}

// Open connects to databaseURL and verifies the connection within ctx.
func Open(ctx context.Context, databaseURL string, opts Options) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("reach archive database: %w", err)
	}
	if !opts.SkipMigrations {
		if err := migrateUp(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an open database without running migrations.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{archiveQueries: archiveQueries{db: db}, db: db}
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load archive schema: %w", err)
	}
	target, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "sitenav_schema_migrations"})
	if err != nil {
		return fmt.Errorf("prepare archive schema: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", target)
	if err != nil {
		return fmt.Errorf("prepare archive schema: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate archive schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// SaveArchive writes the archive row and its nodes atomically.
func (s *PostgresStore) SaveArchive(ctx context.Context, a *model.Archive) error {
	return s.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.SaveArchive(ctx, a)
	})
}

// RunInTransaction commits when fn returns nil and rolls back otherwise.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&txStore{archiveQueries{db: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txStore runs every query on an open transaction. Nested calls to
// RunInTransaction join it.
type txStore struct {
	archiveQueries
}

var _ store.Store = (*txStore)(nil)

func (s *txStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Close does nothing; the owning PostgresStore holds the connection.
func (s *txStore) Close() error { return nil }
