// Package reportapi is the stable surface between the report host and tool
// modules. Modules receive every host facility through the Host interface
// and must not reach for package-level state.
package reportapi

import (
	"context"
	"errors"
)

// Host exposes the facilities a module may use during a run. Each module
// gets its own view so data sources and sections are attributed correctly.
type Host interface {
	// FindLogFiles returns the discovered inputs matching the search
	// pattern registered under key. The slice may be empty.
	FindLogFiles(key string) []LogFile

	// CleanSampleName derives a display name from a raw sample identifier
	// using the run's cleaning rules. Root is the directory context of the
	// file the name came from.
	CleanSampleName(name, root string) string

	// AddDataSource records that the sample's metrics in the given section
	// came from this file.
	AddDataSource(f LogFile, sample, section string)

	// IgnoreSamples returns a copy of the table with user-ignored samples
	// removed.
	IgnoreSamples(t *Table) *Table

	// WriteDataFile persists machine-readable module output under name.
	WriteDataFile(data any, name string) error

	// AddSummaryColumns contributes rows and column metadata to the
	// cross-module summary table.
	AddSummaryColumns(t *Table, columns []ColumnSpec)

	// AddSection appends a section to the rendered report.
	AddSection(s Section)

	Logger() Logger
}

// Module is one tool adapter. Run parses discovered inputs and emits output
// through the host; returning ErrNoSamples skips the module silently.
type Module interface {
	Info() Info
	Run(ctx context.Context, h Host) error
}

// ErrNoSamples signals that a module found nothing usable after filtering.
// The host omits the module from the report without treating it as a
// failure.
var ErrNoSamples = errors.New("no samples found")

const Version = "v1"
