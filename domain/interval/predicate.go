package interval

import (
	"fmt"
	"math"
)

// CompareOp is one numeric comparison operator from a mapping predicate.
type CompareOp string

const (
	OpLT CompareOp = "lt"
	OpLE CompareOp = "le"
	OpGT CompareOp = "gt"
	OpGE CompareOp = "ge"
)

// ParseCompareOp normalizes the operator spellings artifacts use.
func ParseCompareOp(s string) (CompareOp, bool) {
	switch s {
	case "lt", "<":
		return OpLT, true
	case "le", "lte", "<=":
		return OpLE, true
	case "gt", ">":
		return OpGT, true
	case "ge", "gte", ">=":
		return OpGE, true
	}
	return "", false
}

// isLower reports whether the operator bounds the interval from below.
func (op CompareOp) isLower() bool {
	return op == OpGT || op == OpGE
}

// Comparison is a single operator applied to one numeric literal.
type Comparison struct {
	Op    CompareOp
	Value float64
}

// Predicate is the tagged variant of a bin's condition: either one single
// comparison (first/last bin of a mapping) or a conjunction of exactly one
// lower-bound and one upper-bound comparison (interior bins).
type Predicate struct {
	Single      *Comparison
	Conjunction []Comparison
}

// FromPredicate reconstructs the bin's interval. A predicate lacking a
// recognizable structure, or a conjunction missing one of the two required
// bound types, is malformed: the error names the defect and the bin is
// excluded from interval comparison by the caller.
func FromPredicate(label string, p Predicate) (Interval, error) {
	switch {
	case p.Single != nil && len(p.Conjunction) == 0:
		return fromSingle(label, *p.Single), nil
	case p.Single == nil && len(p.Conjunction) > 0:
		return fromConjunction(label, p.Conjunction)
	default:
		return Interval{}, fmt.Errorf("bin '%s' has no recognizable predicate structure", label)
	}
}

// fromSingle maps one comparison to a half-bounded interval.
func fromSingle(label string, c Comparison) Interval {
	iv := Interval{Label: label, Lower: math.Inf(-1), Upper: math.Inf(1)}
	switch c.Op {
	case OpLT:
		iv.Upper = c.Value
	case OpLE:
		iv.Upper = c.Value
		iv.UpperInclusive = true
	case OpGT:
		iv.Lower = c.Value
	case OpGE:
		iv.Lower = c.Value
		iv.LowerInclusive = true
	}
	return iv
}

// fromConjunction combines one lower-bound and one upper-bound comparison.
func fromConjunction(label string, comps []Comparison) (Interval, error) {
	if len(comps) != 2 {
		return Interval{}, fmt.Errorf("bin '%s' conjunction has %d operands, want 2", label, len(comps))
	}
	var lower, upper *Comparison
	for i := range comps {
		c := comps[i]
		if c.Op.isLower() {
			lower = &c
		} else {
			upper = &c
		}
	}
	if lower == nil {
		return Interval{}, fmt.Errorf("bin '%s' conjunction is missing a lower-bound comparison", label)
	}
	if upper == nil {
		return Interval{}, fmt.Errorf("bin '%s' conjunction is missing an upper-bound comparison", label)
	}
	return Interval{
		Label:          label,
		Lower:          lower.Value,
		LowerInclusive: lower.Op == OpGE,
		Upper:          upper.Value,
		UpperInclusive: upper.Op == OpLE,
	}, nil
}
