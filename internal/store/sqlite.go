// Package store persists batch run history and cached geocode responses in
// SQLite. The batch works without it; a nil *Store disables persistence.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Store wraps the run-log database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at the given path and configures
// WAL mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	variant      TEXT NOT NULL,
	total        INTEGER NOT NULL,
	succeeded    INTEGER,
	failed       INTEGER,
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS run_items (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	place       TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	detail      TEXT,
	output_path TEXT,
	recorded_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash TEXT PRIMARY KEY,
	response   TEXT NOT NULL,
	cached_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_items_run_id ON run_items(run_id);
`

// Migrate creates the schema if missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records the start of a batch run.
func (s *Store) CreateRun(ctx context.Context, id, variant string, total int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, variant, total, started_at) VALUES (?, ?, ?, ?)`,
		id, variant, total, time.Now().UTC(),
	)
	return eris.Wrap(err, "store: create run")
}

// RecordItem records one place's outcome within a run.
func (s *Store) RecordItem(ctx context.Context, runID, place, outcome, detail, outputPath string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_items (run_id, place, outcome, detail, output_path, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, place, outcome, detail, outputPath, time.Now().UTC(),
	)
	return eris.Wrapf(err, "store: record item %s", place)
}

// CompleteRun records the final tallies of a batch run.
func (s *Store) CompleteRun(ctx context.Context, id string, succeeded, failed int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET succeeded = ?, failed = ?, completed_at = ? WHERE id = ?`,
		succeeded, failed, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "store: complete run %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: run %s not found", id)
	}
	return nil
}

// CachedResponse returns a cached geocode response body, if present.
func (s *Store) CachedResponse(ctx context.Context, key string) ([]byte, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT response FROM geocode_cache WHERE query_hash = ?`, key,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "store: cache lookup")
	}
	return []byte(body), true, nil
}

// StoreResponse caches a geocode response body, replacing any prior entry.
func (s *Store) StoreResponse(ctx context.Context, key string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (query_hash, response, cached_at) VALUES (?, ?, ?)
		 ON CONFLICT (query_hash) DO UPDATE SET response = excluded.response, cached_at = excluded.cached_at`,
		key, string(body), time.Now().UTC(),
	)
	return eris.Wrap(err, "store: cache store")
}
