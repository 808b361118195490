// Package schema exposes the embedded registry schemas for runtime use.
package schema

import (
	_ "embed"
)

// Search-pattern registry schema embedded so tools can validate a registry
// without knowing the repository layout.
//
//go:embed patterns.schema.json
var patternsSchema []byte

// PatternsSchema returns a copy of the search-pattern registry schema.
func PatternsSchema() []byte {
	out := make([]byte, len(patternsSchema))
	copy(out, patternsSchema)
	return out
}
