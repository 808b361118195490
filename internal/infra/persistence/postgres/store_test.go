package postgres

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"seqreport/internal/infra/persistence/postgres/testutil"
	"seqreport/internal/provenance"
)

func openStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreEnsuresStateTable(t *testing.T) {
	_, conn := openStubStore(t)
	saw := false
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			saw = true
			break
		}
	}
	if !saw {
		t.Fatalf("state table DDL missing, execs: %v", conn.Execs)
	}
}

func TestMutationsSnapshotState(t *testing.T) {
	ctx := context.Background()
	store, conn := openStubStore(t)

	rec := provenance.RunRecord{ID: "run-1", StartedAt: time.Now().UTC()}
	if err := store.BeginRun(ctx, rec); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.RecordSource(ctx, provenance.DataSource{RunID: "run-1", Sample: "S1", Path: "p"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	rows := conn.Tables["state"]
	if len(rows) != 2 {
		t.Fatalf("expected runs and sources buckets, got %+v", rows)
	}
	buckets := map[string]bool{}
	for _, row := range rows {
		name, _ := row["bucket"].(string)
		buckets[name] = true
	}
	if !buckets["runs"] || !buckets["sources"] {
		t.Fatalf("bucket rows missing: %v", buckets)
	}
}

func TestNewStoreHydratesFromSnapshot(t *testing.T) {
	ctx := context.Background()
	first, _ := openStubStore(t)
	if err := first.BeginRun(ctx, provenance.RunRecord{ID: "run-1", StartedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("begin: %v", err)
	}

	// reopen against the same stub tables
	db := first.DB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	second, err := NewStore("")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	runs, err := second.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Fatalf("hydration failed: %+v", runs)
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(""); err == nil {
		t.Fatalf("expected ping error")
	}
}

func TestPersistSurfacesCommitFailure(t *testing.T) {
	ctx := context.Background()
	store, conn := openStubStore(t)
	conn.FailCommit = true
	err := store.BeginRun(ctx, provenance.RunRecord{ID: "run-1", StartedAt: time.Now()})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit error, got %v", err)
	}
}

func TestMemorySemanticsPreserved(t *testing.T) {
	ctx := context.Background()
	store, _ := openStubStore(t)
	if err := store.FinishRun(ctx, provenance.RunRecord{ID: "ghost"}); err == nil {
		t.Fatalf("finish of unknown run should fail before touching the db")
	}
}
