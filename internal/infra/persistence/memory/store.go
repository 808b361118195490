// Package memory provides the in-memory provenance archive. It backs tests
// directly and serves as the transactional substrate for the snapshotting
// sqlite and postgres drivers.
package memory

import (
	"context"
	"fmt"
	"sync"

	"seqreport/internal/provenance"
)

var _ provenance.Archive = (*Store)(nil)

// Store keeps runs and data sources in process memory.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]provenance.RunRecord
	order   []string
	sources map[string][]provenance.DataSource
}

// NewStore constructs an empty archive.
func NewStore() *Store {
	return &Store{
		runs:    make(map[string]provenance.RunRecord),
		sources: make(map[string][]provenance.DataSource),
	}
}

// BeginRun registers a new run record. Run IDs are unique per archive.
func (s *Store) BeginRun(_ context.Context, rec provenance.RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("run id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[rec.ID]; ok {
		return fmt.Errorf("run %s already recorded", rec.ID)
	}
	s.runs[rec.ID] = cloneRun(rec)
	s.order = append(s.order, rec.ID)
	return nil
}

// FinishRun replaces the stored record for a run that was begun earlier.
func (s *Store) FinishRun(_ context.Context, rec provenance.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[rec.ID]; !ok {
		return provenance.ErrNotFound{Entity: "run", ID: rec.ID}
	}
	s.runs[rec.ID] = cloneRun(rec)
	return nil
}

// RecordSource appends a data-source row to an existing run.
func (s *Store) RecordSource(_ context.Context, src provenance.DataSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[src.RunID]; !ok {
		return provenance.ErrNotFound{Entity: "run", ID: src.RunID}
	}
	s.sources[src.RunID] = append(s.sources[src.RunID], src)
	return nil
}

// ListRuns returns all runs in begin order.
func (s *Store) ListRuns(_ context.Context) ([]provenance.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]provenance.RunRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneRun(s.runs[id]))
	}
	return out, nil
}

// ListSources returns the data sources recorded for a run.
func (s *Store) ListSources(_ context.Context, runID string) ([]provenance.DataSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.runs[runID]; !ok {
		return nil, provenance.ErrNotFound{Entity: "run", ID: runID}
	}
	src := s.sources[runID]
	out := make([]provenance.DataSource, len(src))
	copy(out, src)
	return out, nil
}

// Close satisfies provenance.Archive.
func (s *Store) Close() error { return nil }

// Snapshot is the serializable state used by the persistent drivers.
type Snapshot struct {
	Runs    []provenance.RunRecord             `json:"runs"`
	Sources map[string][]provenance.DataSource `json:"sources"`
}

// ExportState captures a deep copy of the archive.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Runs:    make([]provenance.RunRecord, 0, len(s.order)),
		Sources: make(map[string][]provenance.DataSource, len(s.sources)),
	}
	for _, id := range s.order {
		snap.Runs = append(snap.Runs, cloneRun(s.runs[id]))
	}
	for id, rows := range s.sources {
		cp := make([]provenance.DataSource, len(rows))
		copy(cp, rows)
		snap.Sources[id] = cp
	}
	return snap
}

// ImportState replaces the archive contents with the snapshot.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]provenance.RunRecord, len(snap.Runs))
	s.order = s.order[:0]
	for _, rec := range snap.Runs {
		if rec.ID == "" {
			continue
		}
		if _, ok := s.runs[rec.ID]; !ok {
			s.order = append(s.order, rec.ID)
		}
		s.runs[rec.ID] = cloneRun(rec)
	}
	s.sources = make(map[string][]provenance.DataSource, len(snap.Sources))
	for id, rows := range snap.Sources {
		cp := make([]provenance.DataSource, len(rows))
		copy(cp, rows)
		s.sources[id] = cp
	}
}

func cloneRun(rec provenance.RunRecord) provenance.RunRecord {
	out := rec
	if rec.Roots != nil {
		out.Roots = make([]string, len(rec.Roots))
		copy(out.Roots, rec.Roots)
	}
	if rec.Modules != nil {
		out.Modules = make([]provenance.ModuleOutcome, len(rec.Modules))
		copy(out.Modules, rec.Modules)
	}
	return out
}
