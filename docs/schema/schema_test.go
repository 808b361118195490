package schema

import (
	"encoding/json"
	"testing"
)

func TestPatternsSchemaParses(t *testing.T) {
	var doc struct {
		Type     string   `json:"type"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(PatternsSchema(), &doc); err != nil {
		t.Fatalf("embedded schema is not valid JSON: %v", err)
	}
	if doc.Type != "object" {
		t.Fatalf("root type = %q, want object", doc.Type)
	}
	if len(doc.Required) != 1 || doc.Required[0] != "patterns" {
		t.Fatalf("required = %v, want [patterns]", doc.Required)
	}
}

func TestPatternsSchemaReturnsCopy(t *testing.T) {
	a := PatternsSchema()
	a[0] = '!'
	b := PatternsSchema()
	if b[0] == '!' {
		t.Fatalf("mutation leaked into the embedded schema")
	}
}
