// Package interval reconstructs numeric intervals from mapping predicates and
// checks a sorted interval set for gaps, overlaps and boundary drift against
// the tabular definition it was generated from.
package interval

import (
	"fmt"
	"math"
	"sort"
)

// Interval is an ordered pair of endpoints, each carrying an
// inclusive/exclusive marker. Unbounded endpoints use ±Inf.
type Interval struct {
	Label          string
	Lower          float64
	Upper          float64
	LowerInclusive bool
	UpperInclusive bool
}

// FromPair builds the [low, high) interval used for tabular MAPPING bins:
// lower bound inclusive, upper bound exclusive, so consecutive bins hand off
// at exactly their shared boundary.
func FromPair(label string, low, high float64) Interval {
	return Interval{
		Label:          label,
		Lower:          low,
		Upper:          high,
		LowerInclusive: true,
		UpperInclusive: false,
	}
}

// Degenerate reports whether the interval covers no range (lower >= upper).
func (iv Interval) Degenerate() bool {
	return iv.Lower >= iv.Upper
}

// String renders the interval in mathematical notation for issue messages.
func (iv Interval) String() string {
	open, close := "(", ")"
	if iv.LowerInclusive {
		open = "["
	}
	if iv.UpperInclusive {
		close = "]"
	}
	return fmt.Sprintf("%s%s%v, %v%s", iv.Label, open, iv.Lower, iv.Upper, close)
}

// FlawKind classifies one defect found in an interval set.
type FlawKind string

const (
	FlawDegenerate FlawKind = "degenerate"
	FlawGap        FlawKind = "gap"
	FlawOverlap    FlawKind = "overlap"
)

// Flaw describes one defect between two adjacent intervals (or within one,
// for degenerate intervals). Both bin labels and both boundary values are
// carried so the report can name them.
type Flaw struct {
	Kind        FlawKind
	FirstLabel  string
	SecondLabel string
	FirstValue  float64
	SecondValue float64
}

// String renders the flaw for issue messages.
func (f Flaw) String() string {
	switch f.Kind {
	case FlawDegenerate:
		return fmt.Sprintf("bin '%s' is degenerate: lower bound %v is not below upper bound %v",
			f.FirstLabel, f.FirstValue, f.SecondValue)
	case FlawGap:
		return fmt.Sprintf("gap between bin '%s' (upper %v) and bin '%s' (lower %v)",
			f.FirstLabel, f.FirstValue, f.SecondLabel, f.SecondValue)
	default:
		return fmt.Sprintf("overlap between bin '%s' (upper %v) and bin '%s' (lower %v)",
			f.FirstLabel, f.FirstValue, f.SecondLabel, f.SecondValue)
	}
}

// Analyze checks an interval set for well-formedness with zero tolerance.
// Intervals are ordered by lower bound; each consecutive pair must share
// exactly its common boundary value with complementary inclusivity (first
// upper exclusive, second lower inclusive - the single valid hand-off).
// Degenerate intervals are reported and excluded from adjacency comparison.
func Analyze(intervals []Interval) []Flaw {
	var flaws []Flaw

	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Degenerate() {
			flaws = append(flaws, Flaw{
				Kind:        FlawDegenerate,
				FirstLabel:  iv.Label,
				FirstValue:  iv.Lower,
				SecondValue: iv.Upper,
			})
			continue
		}
		sorted = append(sorted, iv)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Lower < sorted[j].Lower
	})

	for i := 0; i+1 < len(sorted); i++ {
		first, second := sorted[i], sorted[i+1]
		flaw := Flaw{
			FirstLabel:  first.Label,
			SecondLabel: second.Label,
			FirstValue:  first.Upper,
			SecondValue: second.Lower,
		}
		switch {
		case first.Upper > second.Lower:
			flaw.Kind = FlawOverlap
			flaws = append(flaws, flaw)
		case first.Upper == second.Lower:
			if first.UpperInclusive || !second.LowerInclusive {
				// Inclusivity contradiction at the shared value.
				flaw.Kind = FlawOverlap
				flaws = append(flaws, flaw)
			}
		default:
			flaw.Kind = FlawGap
			flaws = append(flaws, flaw)
		}
	}
	return flaws
}

// Unbounded endpoint helpers.
func NegInf() float64 { return math.Inf(-1) }
func PosInf() float64 { return math.Inf(1) }
