package artifactcheck

import (
	"fmt"
	"strconv"

	"takforge/domain/artifact"
	"takforge/domain/core"
	"takforge/domain/interval"
	"takforge/domain/tabular"
)

// checkMappingFunction reconstructs every bin's numeric interval from its
// predicate subtree, analyzes the set for gaps and overlaps, and reconciles
// the boundary values against the workbook MAPPING.
//
// Bin shape: <bin label="..."> wrapping either one <compare op value> (first
// or last bin) or an <and> of exactly one lower-bound and one upper-bound
// <compare> (interior bins).
func (c *TakChecker) checkMappingFunction(mapping *artifact.Node, row tabular.Row) []core.ValidationIssue {
	var issues []core.ValidationIssue

	bins := mapping.ChildrenByTag("bin")
	if len(bins) == 0 {
		return append(issues, core.NewIssue(core.SheetStates, row.ID(),
			"<mapping-function> declares no bins"))
	}

	var intervals []interval.Interval
	for i, bin := range bins {
		label := bin.Attr("label")
		if label == "" {
			label = fmt.Sprintf("bin-%d", i+1)
		}
		pred, err := parsePredicate(bin)
		if err != nil {
			issues = append(issues, core.NewIssue(core.SheetStates, row.ID(),
				fmt.Sprintf("malformed bin predicate: %v", err)))
			continue
		}
		iv, err := interval.FromPredicate(label, pred)
		if err != nil {
			// Malformed bins are reported and excluded from comparison.
			issues = append(issues, core.NewIssue(core.SheetStates, row.ID(), err.Error()))
			continue
		}
		intervals = append(intervals, iv)
	}

	for _, flaw := range interval.Analyze(intervals) {
		issues = append(issues, core.NewIssue(core.SheetStates, row.ID(), flaw.String()))
	}

	issues = append(issues, c.reconcileMappingBoundaries(intervals, row)...)
	return issues
}

// parsePredicate extracts a bin's predicate: a single direct <compare>, or an
// <and> holding the two bound comparisons.
func parsePredicate(bin *artifact.Node) (interval.Predicate, error) {
	if and := bin.Find("and"); and != nil {
		comps := make([]interval.Comparison, 0, 2)
		for _, cmp := range and.ChildrenByTag("compare") {
			comparison, err := parseComparison(cmp)
			if err != nil {
				return interval.Predicate{}, err
			}
			comps = append(comps, comparison)
		}
		return interval.Predicate{Conjunction: comps}, nil
	}
	if cmp := bin.Find("compare"); cmp != nil {
		comparison, err := parseComparison(cmp)
		if err != nil {
			return interval.Predicate{}, err
		}
		return interval.Predicate{Single: &comparison}, nil
	}
	return interval.Predicate{}, nil // no structure; FromPredicate names the defect
}

// parseComparison reads one <compare op="..." value="..."/> element.
func parseComparison(cmp *artifact.Node) (interval.Comparison, error) {
	op, ok := interval.ParseCompareOp(cmp.Attr("op"))
	if !ok {
		return interval.Comparison{}, fmt.Errorf("unknown comparison operator '%s'", cmp.Attr("op"))
	}
	value, err := strconv.ParseFloat(cmp.Attr("value"), 64)
	if err != nil {
		return interval.Comparison{}, fmt.Errorf("comparison value '%s' is not numeric", cmp.Attr("value"))
	}
	return interval.Comparison{Op: op, Value: value}, nil
}

// reconcileMappingBoundaries compares the boundary set present in the
// artifact against the set the workbook MAPPING implies, reporting
// asymmetric differences in both directions.
func (c *TakChecker) reconcileMappingBoundaries(intervals []interval.Interval, row tabular.Row) []core.ValidationIssue {
	pairs, err := tabular.JSONCellOf(row.Get("MAPPING")).PairList()
	if err != nil || len(pairs) == 0 {
		// The sheet validator owns reporting unparseable MAPPING cells.
		return nil
	}

	expected := make([]float64, 0, len(pairs)+1)
	for _, pair := range pairs {
		expected = append(expected, pair.Low, pair.High)
	}

	declaredMin, declaredMax := pairs[0].Low, pairs[len(pairs)-1].High
	if parent, ok := c.parentConcept(row); ok {
		if min, err := strconv.ParseFloat(parent.Get("MIN_VALUE"), 64); err == nil {
			declaredMin = min
		}
		if max, err := strconv.ParseFloat(parent.Get("MAX_VALUE"), 64); err == nil {
			declaredMax = max
		}
	}

	diff := interval.ReconcileBoundaries(intervals, expected, declaredMin, declaredMax)
	var issues []core.ValidationIssue
	for _, value := range diff.MissingFromArtifact {
		issues = append(issues, core.NewIssue(core.SheetStates, row.ID(),
			fmt.Sprintf("mapping boundary %v is present in the workbook but not in the artifact", value)))
	}
	for _, value := range diff.ExtraInArtifact {
		issues = append(issues, core.NewIssue(core.SheetStates, row.ID(),
			fmt.Sprintf("mapping boundary %v is present in the artifact but not in the workbook", value)))
	}
	return issues
}

// parentConcept resolves the state's single derivation source in the raw
// concepts sheet.
func (c *TakChecker) parentConcept(row tabular.Row) (tabular.Row, bool) {
	refs := row.Refs("DERIVED_FROM")
	if len(refs) != 1 {
		return tabular.Row{}, false
	}
	return c.wb.FindRow(core.SheetRawConcepts, core.TakID(refs[0]))
}
