package discovery

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"seqreport/pkg/reportapi"
)

// Index maps pattern keys to the log files discovered for them, in walk
// order.
type Index map[string][]reportapi.LogFile

// Files returns the discovered files for a key. The slice is shared with
// the index and must not be mutated.
func (ix Index) Files(key string) []reportapi.LogFile {
	return ix[key]
}

// Options tunes a Scanner.
type Options struct {
	IgnoreDirs []string
	MaxBytes   int64
	Logger     reportapi.Logger
}

// Scanner walks analysis directories and indexes files by pattern key.
// Files are read once at discovery time so modules receive content without
// touching the filesystem.
type Scanner struct {
	patterns   []Pattern
	ignoreDirs []string
	maxBytes   int64
	log        reportapi.Logger
}

// NewScanner validates the pattern set and builds a scanner.
func NewScanner(patterns []Pattern, opts Options) (*Scanner, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("scanner needs at least one pattern")
	}
	seen := make(map[string]struct{}, len(patterns))
	for _, p := range patterns {
		if p.Key == "" || p.Filename == "" {
			return nil, fmt.Errorf("pattern %+v: key and filename are required", p)
		}
		if _, dup := seen[p.Key]; dup {
			return nil, fmt.Errorf("pattern %q: duplicate key", p.Key)
		}
		seen[p.Key] = struct{}{}
	}
	log := opts.Logger
	if log == nil {
		log = reportapi.NopLogger()
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Scanner{
		patterns:   patterns,
		ignoreDirs: opts.IgnoreDirs,
		maxBytes:   maxBytes,
		log:        log,
	}, nil
}

// Scan walks each root in order and returns the discovered index. Unreadable
// and oversized files are logged and skipped; they never abort the scan.
func (s *Scanner) Scan(roots []string) (Index, error) {
	index := make(Index)
	for _, root := range roots {
		cleanRoot := filepath.Clean(root)
		err := filepath.WalkDir(cleanRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				s.log.Warn("discovery: skipping unreadable path", "path", path, "error", walkErr)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != cleanRoot && s.ignoredDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			s.visit(index, cleanRoot, path, d)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	return index, nil
}

func (s *Scanner) ignoredDir(name string) bool {
	for _, glob := range s.ignoreDirs {
		if ok, _ := filepath.Match(glob, name); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) visit(index Index, root, path string, d fs.DirEntry) {
	name := d.Name()
	matched := s.matchName(name)
	if len(matched) == 0 {
		return
	}
	info, err := d.Info()
	if err != nil {
		s.log.Warn("discovery: stat failed", "path", path, "error", err)
		return
	}
	if info.Size() > s.maxBytes {
		s.log.Warn("discovery: file exceeds size cap", "path", path, "size", info.Size(), "cap", s.maxBytes)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("discovery: read failed", "path", path, "error", err)
		return
	}
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		rel = ""
	}
	file := reportapi.LogFile{
		Path: path,
		Root: rel,
		Fn:   name,
		Data: data,
	}
	for _, p := range matched {
		if p.Contents != "" && !bytes.Contains(data, []byte(p.Contents)) {
			continue
		}
		index[p.Key] = append(index[p.Key], file)
	}
}

func (s *Scanner) matchName(name string) []Pattern {
	var matched []Pattern
	for _, p := range s.patterns {
		if ok, _ := filepath.Match(p.Filename, name); ok {
			matched = append(matched, p)
		}
	}
	return matched
}
