// Package report hosts registered modules for a single run: it hands each
// module its view of the discovered files, collects the tables, sections and
// data files the modules emit, and archives run provenance.
package report

import (
	"time"

	"seqreport/internal/provenance"
	"seqreport/pkg/reportapi"
)

// DataFile is a named payload queued for the data-file writers.
type DataFile struct {
	Name string
	Data any
}

// Report is the assembled output of one run, consumed by the renderer.
type Report struct {
	RunID       string
	Title       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Roots       []string
	Outcomes    []provenance.ModuleOutcome
	General     *GeneralStats
	Sections    []reportapi.Section
	DataFiles   []DataFile
	Sources     []provenance.DataSource
	SampleCount int
}

// RunResult summarizes a finished run.
type RunResult struct {
	RunID        string                     `json:"run_id"`
	Title        string                     `json:"title,omitempty"`
	StartedAt    time.Time                  `json:"started_at"`
	FinishedAt   time.Time                  `json:"finished_at"`
	Outcomes     []provenance.ModuleOutcome `json:"outcomes"`
	Samples      int                        `json:"samples"`
	ArtifactKeys []string                   `json:"artifact_keys,omitempty"`
}

// Result converts the report into its archival summary. Artifact keys are
// filled in by the caller once rendering has stored them.
func (r *Report) Result() RunResult {
	outcomes := make([]provenance.ModuleOutcome, len(r.Outcomes))
	copy(outcomes, r.Outcomes)
	return RunResult{
		RunID:      r.RunID,
		Title:      r.Title,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Outcomes:   outcomes,
		Samples:    r.SampleCount,
	}
}
