package reportapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record holds the parsed metrics of one sample, keyed by metric name.
type Record map[string]Value

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sample table. Samples keep their first-seen position
// even when a later write replaces the record, so report output is stable
// across reruns over the same inputs.
type Table struct {
	order []string
	rows  map[string]Record
}

// NewTable constructs an empty table.
func NewTable() *Table {
	return &Table{rows: make(map[string]Record)}
}

// Set stores the record under the sample name. An existing sample keeps its
// original position; the record is replaced whole.
func (t *Table) Set(sample string, rec Record) {
	if t.rows == nil {
		t.rows = make(map[string]Record)
	}
	if _, ok := t.rows[sample]; !ok {
		t.order = append(t.order, sample)
	}
	t.rows[sample] = rec.Clone()
}

// Get returns the record stored for the sample.
func (t *Table) Get(sample string) (Record, bool) {
	rec, ok := t.rows[sample]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Has reports whether the sample is present.
func (t *Table) Has(sample string) bool {
	_, ok := t.rows[sample]
	return ok
}

// Names returns sample names in insertion order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of samples.
func (t *Table) Len() int {
	return len(t.order)
}

// Delete removes a sample and its position.
func (t *Table) Delete(sample string) {
	if _, ok := t.rows[sample]; !ok {
		return
	}
	delete(t.rows, sample)
	for i, name := range t.order {
		if name == sample {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable()
	for _, name := range t.order {
		out.Set(name, t.rows[name])
	}
	return out
}

// MarshalJSON encodes the table as a JSON object whose keys appear in
// insertion order. Metric keys within a record are sorted.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range t.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		row, err := json.Marshal(t.rows[name])
		if err != nil {
			return nil, err
		}
		buf.Write(row)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON rebuilds a table from a JSON object. Key order in the
// source text becomes insertion order.
func (t *Table) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("table: expected JSON object, got %v", tok)
	}
	*t = *NewTable()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		t.Set(name, rec)
	}
	_, err = dec.Token()
	return err
}
