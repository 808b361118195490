// Package postgres persists the provenance archive to Postgres, mirroring
// the in-memory semantics and snapshotting state as JSONB after each
// mutation.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"seqreport/internal/infra/persistence/memory"
	"seqreport/internal/provenance"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

var _ provenance.Archive = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/seqreport?sslmode=disable"

	bucketRuns    = "runs"
	bucketSources = "sources"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store wraps the in-memory archive and snapshots it to Postgres.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed archive using the provided DSN (falls
// back to defaultDSN), ensures the snapshot table exists and hydrates the
// in-memory state from any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snap)
	return &Store{Store: mem, db: db}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snap memory.Snapshot
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return memory.Snapshot{}, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		switch bucket {
		case bucketRuns:
			if err := json.Unmarshal(payload, &snap.Runs); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode runs: %w", err)
			}
		case bucketSources:
			if err := json.Unmarshal(payload, &snap.Sources); err != nil {
				return memory.Snapshot{}, fmt.Errorf("decode sources: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, fmt.Errorf("iterate state: %w", err)
	}
	return snap, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
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
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// BeginRun registers the run and snapshots state.
func (s *Store) BeginRun(ctx context.Context, rec provenance.RunRecord) error {
	if err := s.Store.BeginRun(ctx, rec); err != nil {
		return err
	}
	return s.persist(ctx)
}

// FinishRun updates the run and snapshots state.
func (s *Store) FinishRun(ctx context.Context, rec provenance.RunRecord) error {
	if err := s.Store.FinishRun(ctx, rec); err != nil {
		return err
	}
	return s.persist(ctx)
}

// RecordSource appends the source and snapshots state.
func (s *Store) RecordSource(ctx context.Context, src provenance.DataSource) error {
	if err := s.Store.RecordSource(ctx, src); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
