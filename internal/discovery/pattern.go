// Package discovery locates tool log files beneath analysis directories
// using a declarative search-pattern registry.
package discovery

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultRegistry []byte

// Pattern describes how one module's input files are recognized. Filename
// is a glob matched against the base name; Contents, when set, is a
// substring the file body must contain.
type Pattern struct {
	Key      string `yaml:"key"`
	Filename string `yaml:"filename"`
	Contents string `yaml:"contents,omitempty"`
}

type registryFile struct {
	Patterns []Pattern `yaml:"patterns"`
}

// ParsePatterns decodes a pattern registry and rejects malformed entries.
func ParsePatterns(data []byte) ([]Pattern, error) {
	var reg registryFile
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse patterns: %w", err)
	}
	if len(reg.Patterns) == 0 {
		return nil, fmt.Errorf("pattern registry is empty")
	}
	seen := make(map[string]struct{}, len(reg.Patterns))
	for i, p := range reg.Patterns {
		if p.Key == "" {
			return nil, fmt.Errorf("pattern %d: key is required", i)
		}
		if p.Filename == "" {
			return nil, fmt.Errorf("pattern %q: filename is required", p.Key)
		}
		if _, err := filepath.Match(p.Filename, "probe"); err != nil {
			return nil, fmt.Errorf("pattern %q: bad filename glob: %w", p.Key, err)
		}
		if _, dup := seen[p.Key]; dup {
			return nil, fmt.Errorf("pattern %q: duplicate key", p.Key)
		}
		seen[p.Key] = struct{}{}
	}
	return reg.Patterns, nil
}

// LoadPatterns reads a registry file from disk.
func LoadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns: %w", err)
	}
	return ParsePatterns(data)
}

// DefaultPatterns returns the registry compiled into the binary.
func DefaultPatterns() []Pattern {
	patterns, err := ParsePatterns(defaultRegistry)
	if err != nil {
		panic(fmt.Sprintf("embedded pattern registry invalid: %v", err))
	}
	return patterns
}

// DefaultRegistryBytes exposes the embedded registry for schema checks.
func DefaultRegistryBytes() []byte {
	out := make([]byte, len(defaultRegistry))
	copy(out, defaultRegistry)
	return out
}
