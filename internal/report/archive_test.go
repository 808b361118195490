package report

import (
	"context"
	"path/filepath"
	"testing"

	"seqreport/internal/provenance"
)

func TestOpenArchiveMemoryDefault(t *testing.T) {
	a, err := OpenArchive(ArchiveOptions{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = a.Close() }()
	if err := a.BeginRun(context.Background(), provenance.RunRecord{ID: "r1"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
}

func TestOpenArchiveSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	a, err := OpenArchive(ArchiveOptions{Driver: ArchiveSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := a.BeginRun(context.Background(), provenance.RunRecord{ID: "r1"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenArchiveUnknownDriver(t *testing.T) {
	if _, err := OpenArchive(ArchiveOptions{Driver: ArchiveDriver("etcd")}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
