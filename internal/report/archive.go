package report

import (
	"fmt"

	"seqreport/internal/infra/persistence/memory"
	"seqreport/internal/infra/persistence/postgres"
	"seqreport/internal/infra/persistence/sqlite"
	"seqreport/internal/provenance"
)

// ArchiveDriver identifies a concrete provenance archive implementation.
type ArchiveDriver string

const (
	ArchiveMemory   ArchiveDriver = "memory"   // in-memory only (tests / ephemeral)
	ArchiveSQLite   ArchiveDriver = "sqlite"   // embedded sqlite file
	ArchivePostgres ArchiveDriver = "postgres" // PostgreSQL server
)

// ArchiveOptions selects and configures the archive backend.
type ArchiveOptions struct {
	Driver      ArchiveDriver
	SQLitePath  string // sqlite file path, defaults inside the driver
	PostgresDSN string
}

// OpenArchive constructs the archive named by opts.Driver. An empty driver
// defaults to memory.
func OpenArchive(opts ArchiveOptions) (provenance.Archive, error) {
	switch opts.Driver {
	case "", ArchiveMemory:
		return memory.NewStore(), nil
	case ArchiveSQLite:
		return sqlite.NewStore(opts.SQLitePath)
	case ArchivePostgres:
		return postgres.NewStore(opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown archive driver %s", opts.Driver)
	}
}
