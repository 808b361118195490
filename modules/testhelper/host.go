// Package testhelper provides an in-memory reportapi.Host for module unit
// tests. It records everything a module emits so tests can assert on data
// sources, data files, summary columns and sections without a real run.
package testhelper

import (
	"fmt"
	"path"
	"path/filepath"

	"seqreport/pkg/reportapi"
)

// Source is one recorded AddDataSource call.
type Source struct {
	File    reportapi.LogFile
	Sample  string
	Section string
}

// Host is a fake module host. The zero value is usable; set Files before
// running a module and inspect the exported fields afterwards.
type Host struct {
	// inputs
	Files       map[string][]reportapi.LogFile
	CleanFn     func(name, root string) string // identity when nil
	IgnoreGlobs []string
	WriteErr    error // returned by WriteDataFile when set
	Log         reportapi.Logger

	// recorded outputs
	Sources   []Source
	DataFiles map[string]any
	Summary   *reportapi.Table
	Columns   []reportapi.ColumnSpec
	Sections  []reportapi.Section
}

var _ reportapi.Host = (*Host)(nil)

// New returns an empty host.
func New() *Host {
	return &Host{Files: make(map[string][]reportapi.LogFile)}
}

// File builds a LogFile the way discovery would.
func File(filePath, root string, data []byte) reportapi.LogFile {
	return reportapi.LogFile{
		Path: filePath,
		Root: root,
		Fn:   filepath.Base(filePath),
		Data: data,
	}
}

// Add registers a discovered file under the given pattern key.
func (h *Host) Add(key string, f reportapi.LogFile) {
	if h.Files == nil {
		h.Files = make(map[string][]reportapi.LogFile)
	}
	h.Files[key] = append(h.Files[key], f)
}

func (h *Host) FindLogFiles(key string) []reportapi.LogFile {
	out := make([]reportapi.LogFile, len(h.Files[key]))
	copy(out, h.Files[key])
	return out
}

func (h *Host) CleanSampleName(name, root string) string {
	if h.CleanFn != nil {
		return h.CleanFn(name, root)
	}
	return name
}

func (h *Host) AddDataSource(f reportapi.LogFile, sample, section string) {
	if section == "" {
		section = "all_sections"
	}
	h.Sources = append(h.Sources, Source{File: f, Sample: sample, Section: section})
}

func (h *Host) IgnoreSamples(t *reportapi.Table) *reportapi.Table {
	out := reportapi.NewTable()
	if t == nil {
		return out
	}
	for _, name := range t.Names() {
		if h.ignored(name) {
			continue
		}
		rec, _ := t.Get(name)
		out.Set(name, rec)
	}
	return out
}

func (h *Host) ignored(name string) bool {
	for _, glob := range h.IgnoreGlobs {
		if ok, _ := path.Match(glob, name); ok {
			return true
		}
	}
	return false
}

func (h *Host) WriteDataFile(data any, name string) error {
	if h.WriteErr != nil {
		return h.WriteErr
	}
	if name == "" {
		return fmt.Errorf("data file name required")
	}
	if h.DataFiles == nil {
		h.DataFiles = make(map[string]any)
	}
	h.DataFiles[name] = data
	return nil
}

func (h *Host) AddSummaryColumns(t *reportapi.Table, columns []reportapi.ColumnSpec) {
	h.Summary = t
	h.Columns = append(h.Columns, columns...)
}

func (h *Host) AddSection(s reportapi.Section) {
	h.Sections = append(h.Sections, s)
}

func (h *Host) Logger() reportapi.Logger {
	if h.Log != nil {
		return h.Log
	}
	return reportapi.NopLogger()
}
