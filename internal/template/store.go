// Package template loads the per-type authoring templates: one text document
// per concept type containing the target XML shape with {FIELD_NAME}-style
// placeholders. A missing template is a hard failure of prompt construction,
// not a data issue.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"takforge/domain/core"
	"takforge/domain/tabular"
)

// placeholderPattern matches {FIELD_NAME} markers in template text.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_-]+)\}`)

// Template is one loaded authoring template.
type Template struct {
	Name string
	Text string
}

// Placeholders extracts every distinct placeholder name, in first-appearance
// order.
func (t Template) Placeholders() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(t.Text, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Store resolves templates by sheet and row, caching file reads.
type Store struct {
	dir string

	mu    sync.Mutex
	cache map[string]Template
}

// NewStore builds a template store over a directory of <name>.xml files.
func NewStore(dir string) *Store {
	return &Store{dir: dir, cache: make(map[string]Template)}
}

// NameForRow resolves the template name for a row: raw concepts sub-select by
// declared TYPE, states by MAPPING presence, other sheets by the singular
// sheet name.
func NameForRow(sheet core.SheetName, row tabular.Row) string {
	switch sheet {
	case core.SheetRawConcepts:
		return string(row.Type())
	case core.SheetStates:
		if row.Has("MAPPING") {
			return "state-from-numeric"
		}
		return "state-from-nominal"
	default:
		return strings.TrimSuffix(string(sheet), "s")
	}
}

// ForRow loads the template matching the row's type selection.
func (s *Store) ForRow(sheet core.SheetName, row tabular.Row) (Template, error) {
	return s.Load(NameForRow(sheet, row))
}

// Load reads the named template, from cache when possible.
func (s *Store) Load(name string) (Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tmpl, ok := s.cache[name]; ok {
		return tmpl, nil
	}
	path := filepath.Join(s.dir, name+".xml")
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("%w: '%s' (%s)", core.ErrTemplateNotFound, name, path)
	}
	tmpl := Template{Name: name, Text: string(data)}
	s.cache[name] = tmpl
	return tmpl, nil
}
