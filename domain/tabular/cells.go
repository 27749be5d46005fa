package tabular

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JSONCell is a raw-text cell that may decode to a typed list (MAPPING,
// STATE_LABELS, NOMINAL_VALUES). Decoding failure is a first-class data
// problem for the caller to report, not an exception to swallow.
type JSONCell struct {
	Raw string
}

// JSONCellOf wraps a raw cell value.
func JSONCellOf(raw string) JSONCell {
	return JSONCell{Raw: strings.TrimSpace(raw)}
}

// IsEmpty reports whether the cell holds no text at all.
func (c JSONCell) IsEmpty() bool {
	return c.Raw == ""
}

// StringList decodes the cell as a JSON list of strings.
func (c JSONCell) StringList() ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(c.Raw), &out); err != nil {
		return nil, fmt.Errorf("not a JSON list of strings: %w", err)
	}
	return out, nil
}

// Pair is one [low, high] mapping bin from a MAPPING cell.
type Pair struct {
	Low  float64
	High float64
}

// PairList decodes the cell as a JSON list of two-element numeric pairs.
func (c JSONCell) PairList() ([]Pair, error) {
	var raw [][]float64
	if err := json.Unmarshal([]byte(c.Raw), &raw); err != nil {
		return nil, fmt.Errorf("not a JSON list of numeric pairs: %w", err)
	}
	pairs := make([]Pair, 0, len(raw))
	for i, p := range raw {
		if len(p) != 2 {
			return nil, fmt.Errorf("pair %d has %d elements, want 2", i, len(p))
		}
		pairs = append(pairs, Pair{Low: p[0], High: p[1]})
	}
	return pairs, nil
}

// StringSet builds an unordered membership set from a decoded string list.
func StringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.TrimSpace(v)] = struct{}{}
	}
	return set
}

// SetsEqual compares two string lists as unordered sets.
func SetsEqual(a, b []string) bool {
	sa, sb := StringSet(a), StringSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for v := range sa {
		if _, ok := sb[v]; !ok {
			return false
		}
	}
	return true
}
