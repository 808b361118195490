package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"

	"seqreport/pkg/reportapi"
)

// Format selects which machine-readable files a run writes next to the
// HTML report.
type Format string

const (
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
	FormatBoth Format = "both"
)

// ParseFormat maps a config string onto a Format. Empty input defaults
// to JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatTSV, FormatBoth:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown data file format %q", s)
	}
}

func (f Format) wantsJSON() bool { return f == FormatJSON || f == FormatBoth }
func (f Format) wantsTSV() bool  { return f == FormatTSV || f == FormatBoth }

// dataFileName builds the on-store name for a data file payload.
func dataFileName(name, ext string) string {
	return "seqreport_" + name + "." + ext
}

func encodeJSON(data any) ([]byte, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(payload, '\n'), nil
}

// tableOf reports whether a data file payload is table-shaped and can be
// written as TSV.
func tableOf(data any) (*reportapi.Table, bool) {
	t, ok := data.(*reportapi.Table)
	return t, ok && t != nil
}

// encodeTSV renders a sample table as tab-separated text. Rows follow table
// order; metric columns appear in first-seen order with keys sorted inside
// each record so the layout is stable across runs.
func encodeTSV(t *reportapi.Table) ([]byte, error) {
	var metrics []string
	seen := make(map[string]struct{})
	for _, sample := range t.Names() {
		rec, _ := t.Get(sample)
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			metrics = append(metrics, k)
		}
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	w.Comma = '\t'
	header := append([]string{"Sample"}, metrics...)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, sample := range t.Names() {
		rec, _ := t.Get(sample)
		row := make([]string, 0, len(header))
		row = append(row, sample)
		for _, metric := range metrics {
			if v, ok := rec[metric]; ok {
				row = append(row, v.String())
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
