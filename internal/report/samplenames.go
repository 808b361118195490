package report

import (
	"path"
	"path/filepath"
	"strings"
)

// Cleaner derives display sample names from raw identifiers. Cleaning is
// pure: the same inputs always yield the same name.
type Cleaner struct {
	// TrimExtensions are suffixes removed from the end of a name, repeatedly,
	// until none match ("sample.vcf.gz" with [".gz", ".vcf"] becomes "sample").
	TrimExtensions []string
	// PrependDirs joins the directory context onto the cleaned name with
	// " | " separators, for runs where file names alone do not identify
	// samples uniquely.
	PrependDirs bool
}

// Clean strips directory components and configured suffix chains from name.
// root is the directory the source file was found under, relative to its
// search root; it is only consulted when PrependDirs is set.
func (c Cleaner) Clean(name, root string) string {
	base := filepath.Base(strings.TrimSpace(name))
	s := base
	for {
		trimmed := s
		for _, ext := range c.TrimExtensions {
			if ext == "" {
				continue
			}
			if strings.HasSuffix(trimmed, ext) {
				trimmed = trimmed[:len(trimmed)-len(ext)]
			}
		}
		if trimmed == s {
			break
		}
		s = trimmed
	}
	s = strings.TrimSpace(s)
	if s == "" {
		s = base
	}
	if c.PrependDirs && root != "" && root != "." {
		parts := strings.Split(filepath.ToSlash(root), "/")
		s = strings.Join(append(parts, s), " | ")
	}
	return s
}

// IgnorePatterns filters cleaned sample names with path.Match globs.
type IgnorePatterns []string

// Match reports whether name matches any pattern. Malformed patterns never
// match.
func (p IgnorePatterns) Match(name string) bool {
	for _, pattern := range p {
		if pattern == "" {
			continue
		}
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
