// Package provenance records report runs and the source files each
// sample's metrics came from, so any value in a rendered report can be
// traced back to the file that produced it.
package provenance

import (
	"context"
	"fmt"
	"time"
)

// Run statuses recorded per module outcome.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// ModuleOutcome is the archived result of one module in a run.
type ModuleOutcome struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Samples int    `json:"samples"`
	Error   string `json:"error,omitempty"`
}

// RunRecord describes one report run.
type RunRecord struct {
	ID         string          `json:"id"`
	Title      string          `json:"title,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Roots      []string        `json:"roots,omitempty"`
	Modules    []ModuleOutcome `json:"modules,omitempty"`
	Samples    int             `json:"samples"`
	ReportKey  string          `json:"report_key,omitempty"`
}

// DataSource links one sample's metrics in one module section to the file
// they were parsed from.
type DataSource struct {
	RunID   string `json:"run_id"`
	Module  string `json:"module"`
	Section string `json:"section"`
	Sample  string `json:"sample"`
	Path    string `json:"path"`
}

// Archive stores run records and data sources.
type Archive interface {
	BeginRun(ctx context.Context, rec RunRecord) error
	FinishRun(ctx context.Context, rec RunRecord) error
	RecordSource(ctx context.Context, src DataSource) error
	ListRuns(ctx context.Context) ([]RunRecord, error)
	ListSources(ctx context.Context, runID string) ([]DataSource, error)
	Close() error
}

// ErrNotFound is returned when an archive lookup misses.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
