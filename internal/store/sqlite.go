// Package store keeps a local registry of compiled workflows so repeated
// compilations of an unchanged DAG can be served from cache and reviewed
// later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("store: record not found")

// CompileRecord is one cached compilation result.
type CompileRecord struct {
	ID         string
	Name       string
	Version    string
	DAGHash    string // content hash of the DAG export
	SpecHash   string // content hash of the serialized spec
	Spec       []byte // serialized workflow spec document
	Entrypoint string // generated entrypoint source
	CreatedAt  time.Time
}

// SQLiteStore implements the compile cache on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// WAL keeps concurrent CLI invocations from blocking each other.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS compiles (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			version     TEXT NOT NULL,
			dag_hash    TEXT NOT NULL,
			spec_hash   TEXT NOT NULL,
			spec        BLOB NOT NULL,
			entrypoint  TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_compiles_name ON compiles(name);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_compiles_dag ON compiles(name, dag_hash);
	`)
	return err
}

// Put inserts a compile record, assigning an id when empty. An existing
// record for the same (name, dag hash) is replaced.
func (s *SQLiteStore) Put(ctx context.Context, rec *CompileRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.logger.Debug("sql", "op", "insert", "table", "compiles", "id", rec.ID, "name", rec.Name)

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO compiles (id, name, version, dag_hash, spec_hash, spec, entrypoint, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Version, rec.DAGHash, rec.SpecHash, rec.Spec, rec.Entrypoint,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Get returns the record with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*CompileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, version, dag_hash, spec_hash, spec, entrypoint, created_at
		 FROM compiles WHERE id = ?`, id)
	return scanCompile(row)
}

// GetByDAGHash returns the cached record for a workflow name and DAG
// content hash, or ErrNotFound.
func (s *SQLiteStore) GetByDAGHash(ctx context.Context, name, dagHash string) (*CompileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, version, dag_hash, spec_hash, spec, entrypoint, created_at
		 FROM compiles WHERE name = ? AND dag_hash = ?`, name, dagHash)
	return scanCompile(row)
}

// List returns all records, newest first, without spec and entrypoint
// bodies.
func (s *SQLiteStore) List(ctx context.Context) ([]*CompileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, version, dag_hash, spec_hash, created_at
		 FROM compiles ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*CompileRecord
	for rows.Next() {
		var rec CompileRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Version, &rec.DAGHash, &rec.SpecHash, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func scanCompile(row *sql.Row) (*CompileRecord, error) {
	var rec CompileRecord
	var created string
	err := row.Scan(&rec.ID, &rec.Name, &rec.Version, &rec.DAGHash, &rec.SpecHash, &rec.Spec, &rec.Entrypoint, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &rec, nil
}
