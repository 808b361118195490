package report

import "seqreport/pkg/reportapi"

// GeneralStats accumulates the cross-module sample overview. Unlike a plain
// table write, rows merge field-wise: each module contributes its own
// columns for a sample without clobbering columns added by earlier modules.
type GeneralStats struct {
	table   *reportapi.Table
	columns []reportapi.ColumnSpec
	seen    map[string]struct{}
}

// NewGeneralStats returns an empty overview.
func NewGeneralStats() *GeneralStats {
	return &GeneralStats{table: reportapi.NewTable(), seen: make(map[string]struct{})}
}

// Add merges the module table into the overview and appends column specs in
// first-seen order. A metric that already has a spec keeps the first one.
func (g *GeneralStats) Add(t *reportapi.Table, columns []reportapi.ColumnSpec) {
	if t != nil {
		for _, sample := range t.Names() {
			rec, _ := t.Get(sample)
			merged, ok := g.table.Get(sample)
			if !ok {
				merged = reportapi.Record{}
			}
			for metric, value := range rec {
				merged[metric] = value
			}
			g.table.Set(sample, merged)
		}
	}
	for _, col := range columns {
		if col.Metric == "" {
			continue
		}
		if _, dup := g.seen[col.Metric]; dup {
			continue
		}
		g.seen[col.Metric] = struct{}{}
		g.columns = append(g.columns, col)
	}
}

// Table returns the merged overview table.
func (g *GeneralStats) Table() *reportapi.Table { return g.table }

// Columns returns the accumulated column specs in first-seen order.
func (g *GeneralStats) Columns() []reportapi.ColumnSpec {
	out := make([]reportapi.ColumnSpec, len(g.columns))
	copy(out, g.columns)
	return out
}

// Len reports how many samples the overview covers.
func (g *GeneralStats) Len() int { return g.table.Len() }
