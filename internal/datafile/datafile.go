// Package datafile reads the curated data sets benchmarks draw their
// questions from. Files live under one root, one directory per
// benchmark code.
package datafile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader resolves and reads benchmark data files. The zero value is
// unusable; build one with NewLoader.
type Loader struct {
	root string
}

// NewLoader serves files under root, typically the configured data
// directory.
func NewLoader(root string) *Loader {
	return &Loader{root: strings.TrimSpace(root)}
}

// Path resolves a file belonging to one benchmark.
func (l *Loader) Path(code, name string) string {
	return filepath.Join(l.root, code, name)
}

// LoadJSON reads and decodes one benchmark data file. A missing file
// surfaces as an error satisfying errors.Is(err, os.ErrNotExist) so
// callers can fall through to other question sources.
func (l *Loader) LoadJSON(code, name string, v any) error {
	if l == nil || l.root == "" {
		return errors.New("datafile: no data directory configured")
	}
	path := l.Path(code, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("datafile: read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("datafile: parse %s: %w", path, err)
	}
	return nil
}

// LoadLines reads a text file as its non-empty trimmed lines.
func (l *Loader) LoadLines(code, name string) ([]string, error) {
	if l == nil || l.root == "" {
		return nil, errors.New("datafile: no data directory configured")
	}
	path := l.Path(code, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("datafile: read %s: %w", path, err)
	}

	var lines []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
