// Package multivcfanalyzer parses MultiVCFAnalyzer JSON summaries into
// per-sample genotyping metrics for the report.
package multivcfanalyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"seqreport/pkg/reportapi"
)

// searchKey is this module's entry in the search-pattern registry.
const searchKey = "multivcfanalyzer"

// metadataKey is the reserved top-level JSON key that never names a sample.
const metadataKey = "metadata"

// Module adapts MultiVCFAnalyzer output.
type Module struct{}

// New returns the module.
func New() *Module { return &Module{} }

func (m *Module) Info() reportapi.Info {
	return reportapi.Info{
		Name:   "MultiVCFAnalyzer",
		Anchor: "multivcfanalyzer",
		Href:   "https://github.com/alexherbig/MultiVCFAnalyzer",
		Summary: "MultiVCFAnalyzer reads multiple VCF files as produced by the GATK " +
			"UnifiedGenotyper and after filtering provides the combined genotype calls " +
			"in a number of formats suitable for follow-up analyses such as phylogenetic " +
			"reconstruction, SNP effect analyses and population genetic analyses.",
	}
}

// Run discovers summary files, parses each one independently, merges samples
// by cleaned name (last write wins), applies the run's ignore rules and
// emits the table, summary columns and bar charts. Returns ErrNoSamples
// when nothing usable remains, before anything is written.
func (m *Module) Run(_ context.Context, h reportapi.Host) error {
	table := reportapi.NewTable()
	for _, f := range h.FindLogFiles(searchKey) {
		m.parseFile(h, f, table)
	}

	table = h.IgnoreSamples(table)
	if table.Len() == 0 {
		return reportapi.ErrNoSamples
	}

	if err := h.WriteDataFile(table, "multivcfanalyzer_metrics"); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	h.AddSummaryColumns(table, summaryColumns())
	h.AddSection(readCountSection(table))
	h.AddSection(snpCountSection(table))
	return nil
}

// parseFile merges one summary file into the table. A file that fails to
// decode is logged and skipped; it never fails the module.
func (m *Module) parseFile(h reportapi.Host, f reportapi.LogFile, table *reportapi.Table) {
	log := h.Logger()
	entries, err := decodeSummary(f.Data)
	if err != nil {
		log.Debug("json decode failed", "error", err)
		log.Warn("could not parse MultiVCFAnalyzer JSON", "file", f.Fn)
		return
	}
	for _, entry := range entries {
		if entry.name == metadataKey {
			continue
		}
		if !entry.isObject {
			log.Debug("sample entry is not an object, skipping", "sample", entry.name)
			continue
		}
		clean := h.CleanSampleName(entry.name, f.Root)
		if table.Has(clean) {
			log.Debug("duplicate sample name, overwriting", "sample", clean)
		}
		h.AddDataSource(f, clean, "")

		rec := make(reportapi.Record, len(entry.fields))
		for metric, raw := range entry.fields {
			rec[metric] = reportapi.Coerce(raw)
		}
		table.Set(clean, rec)
	}
}

type sampleEntry struct {
	name     string
	fields   map[string]any
	isObject bool
}

// decodeSummary walks the top-level JSON object with a token decoder so
// samples keep their document order; a plain map would shuffle them.
func decodeSummary(data []byte) ([]sampleEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}
	var entries []sampleEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := keyTok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields, isObject := value.(map[string]any)
		entries = append(entries, sampleEntry{name: name, fields: fields, isObject: isObject})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after JSON object: %v", tok)
	}
	return entries, nil
}
