package report

import (
	"context"
	"fmt"

	"seqreport/internal/provenance"
	"seqreport/pkg/reportapi"
)

// moduleLogger tags every record with the owning module.
type moduleLogger struct {
	base   reportapi.Logger
	module string
}

func (l moduleLogger) Debug(msg string, args ...any) {
	l.base.Debug(msg, append(args, "module", l.module)...)
}

func (l moduleLogger) Info(msg string, args ...any) {
	l.base.Info(msg, append(args, "module", l.module)...)
}

func (l moduleLogger) Warn(msg string, args ...any) {
	l.base.Warn(msg, append(args, "module", l.module)...)
}

func (l moduleLogger) Error(msg string, args ...any) {
	l.base.Error(msg, append(args, "module", l.module)...)
}

// moduleHost is one module's view of the run. It attributes everything the
// module emits to that module and tracks the distinct samples it reported.
type moduleHost struct {
	runner  *Runner
	rep     *Report
	ctx     context.Context
	module  reportapi.Info
	files   map[string][]reportapi.LogFile
	samples map[string]struct{}
	logger  reportapi.Logger
}

var _ reportapi.Host = (*moduleHost)(nil)

func (h *moduleHost) FindLogFiles(key string) []reportapi.LogFile {
	hits := h.files[key]
	out := make([]reportapi.LogFile, len(hits))
	copy(out, hits)
	return out
}

func (h *moduleHost) CleanSampleName(name, root string) string {
	return h.runner.cleaner.Clean(name, root)
}

func (h *moduleHost) AddDataSource(f reportapi.LogFile, sample, section string) {
	if section == "" {
		section = "all_sections"
	}
	src := provenance.DataSource{
		RunID:   h.rep.RunID,
		Module:  h.module.Name,
		Section: section,
		Sample:  sample,
		Path:    f.Path,
	}
	h.rep.Sources = append(h.rep.Sources, src)
	if h.runner.archive != nil {
		if err := h.runner.archive.RecordSource(h.ctx, src); err != nil {
			h.logger.Warn("record data source", "sample", sample, "error", err)
		}
	}
}

func (h *moduleHost) IgnoreSamples(t *reportapi.Table) *reportapi.Table {
	if t == nil {
		return reportapi.NewTable()
	}
	out := reportapi.NewTable()
	for _, sample := range t.Names() {
		if h.runner.ignore.Match(sample) {
			h.logger.Debug("ignoring sample", "sample", sample)
			continue
		}
		rec, _ := t.Get(sample)
		out.Set(sample, rec)
	}
	return out
}

func (h *moduleHost) WriteDataFile(data any, name string) error {
	if name == "" {
		return fmt.Errorf("data file name cannot be empty")
	}
	if data == nil {
		return fmt.Errorf("data file %s has no payload", name)
	}
	for i, df := range h.rep.DataFiles {
		if df.Name == name {
			h.logger.Debug("replacing data file", "name", name)
			h.rep.DataFiles[i].Data = data
			return nil
		}
	}
	h.rep.DataFiles = append(h.rep.DataFiles, DataFile{Name: name, Data: data})
	return nil
}

func (h *moduleHost) AddSummaryColumns(t *reportapi.Table, columns []reportapi.ColumnSpec) {
	h.trackSamples(t)
	h.rep.General.Add(t, columns)
}

func (h *moduleHost) AddSection(s reportapi.Section) {
	if s.Name == "" {
		s.Name = h.module.Name
	}
	if s.Anchor == "" {
		s.Anchor = h.module.Anchor
	}
	if s.Bar != nil {
		h.trackSamples(s.Bar.Data)
	}
	h.rep.Sections = append(h.rep.Sections, s)
}

func (h *moduleHost) Logger() reportapi.Logger { return h.logger }

func (h *moduleHost) trackSamples(t *reportapi.Table) {
	if t == nil {
		return
	}
	for _, sample := range t.Names() {
		h.samples[sample] = struct{}{}
	}
}
