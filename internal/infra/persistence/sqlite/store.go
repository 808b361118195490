// Package sqlite persists the provenance archive to a single SQLite table
// as JSON snapshots. Every successful mutation snapshots the full state, so
// the database always holds a consistent view without schema migrations.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"seqreport/internal/infra/persistence/memory"
	"seqreport/internal/provenance"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ provenance.Archive = (*Store)(nil)

const (
	bucketRuns    = "runs"
	bucketSources = "sources"
)

// Store wraps the in-memory archive and snapshots it after each mutation.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the archive
// from any existing snapshot.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "seqreport.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var snap memory.Snapshot
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		switch bucket {
		case bucketRuns:
			if err := json.Unmarshal(payload, &snap.Runs); err != nil {
				return fmt.Errorf("decode runs: %w", err)
			}
		case bucketSources:
			if err := json.Unmarshal(payload, &snap.Sources); err != nil {
				return fmt.Errorf("decode sources: %w", err)
			}
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if found {
		s.ImportState(snap)
	}
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	payloads := map[string]any{
		bucketRuns:    snap.Runs,
		bucketSources: snap.Sources,
	}
	for _, bucket := range []string{bucketRuns, bucketSources} {
		data, err := json.Marshal(payloads[bucket])
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// BeginRun registers the run and snapshots state.
func (s *Store) BeginRun(ctx context.Context, rec provenance.RunRecord) error {
	if err := s.Store.BeginRun(ctx, rec); err != nil {
		return err
	}
	return s.persist()
}

// FinishRun updates the run and snapshots state.
func (s *Store) FinishRun(ctx context.Context, rec provenance.RunRecord) error {
	if err := s.Store.FinishRun(ctx, rec); err != nil {
		return err
	}
	return s.persist()
}

// RecordSource appends the source and snapshots state.
func (s *Store) RecordSource(ctx context.Context, src provenance.DataSource) error {
	if err := s.Store.RecordSource(ctx, src); err != nil {
		return err
	}
	return s.persist()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
