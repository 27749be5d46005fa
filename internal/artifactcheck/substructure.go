package artifactcheck

import (
	"fmt"

	"takforge/domain/artifact"
	"takforge/domain/core"
	"takforge/domain/tabular"
)

// trendOrdinalLabels are the three fixed ordinal labels every trend's
// allowed-value substructure must carry.
var trendOrdinalLabels = []string{"DEC", "SAME", "INC"}

// checkSubstructure runs the type-conditional structural checks: each sheet
// type requires its matching substructure in the artifact.
func (c *TakChecker) checkSubstructure(doc *artifact.Node, sheet core.SheetName, row tabular.Row) []core.ValidationIssue {
	switch sheet {
	case core.SheetRawConcepts:
		return c.checkConceptSubstructure(doc, row)
	case core.SheetStates:
		return c.checkStateSubstructure(doc, row)
	case core.SheetEvents:
		return requireElements(doc, sheet, row.ID(), "attributes")
	case core.SheetContexts:
		return c.checkContextSubstructure(doc, row)
	case core.SheetTrends:
		return c.checkTrendSubstructure(doc, row)
	}
	return nil
}

// checkConceptSubstructure requires the allowed-values block matching the
// row's declared concept type.
func (c *TakChecker) checkConceptSubstructure(doc *artifact.Node, row tabular.Row) []core.ValidationIssue {
	var element string
	switch row.Type() {
	case core.ConceptNumeric:
		element = "numeric-allowed-values"
	case core.ConceptNominal:
		element = "nominal-allowed-values"
	case core.ConceptTime:
		element = "time-allowed-values"
	default:
		return nil
	}
	return requireElements(doc, core.SheetRawConcepts, row.ID(), element)
}

// checkStateSubstructure requires the derivation reference, plus a mapping
// function whenever the workbook declares a MAPPING. The mapping function,
// when present, feeds the range-interval engine.
func (c *TakChecker) checkStateSubstructure(doc *artifact.Node, row tabular.Row) []core.ValidationIssue {
	issues := requireElements(doc, core.SheetStates, row.ID(), "derived-from")

	if !row.Has("MAPPING") {
		return issues
	}
	mapping := doc.Find("mapping-function")
	if mapping == nil {
		return append(issues, core.NewIssue(core.SheetStates, row.ID(),
			"missing <mapping-function> element despite MAPPING specified in the workbook"))
	}
	return append(issues, c.checkMappingFunction(mapping, row)...)
}

// checkContextSubstructure requires at least one inducer with the same
// bound/shift/granularity completeness the sheet validator enforces, plus an
// all-or-nothing clipper.
func (c *TakChecker) checkContextSubstructure(doc *artifact.Node, row tabular.Row) []core.ValidationIssue {
	var issues []core.ValidationIssue

	inducers := doc.FindAll("inducer")
	if len(inducers) == 0 {
		return append(issues, core.NewIssue(core.SheetContexts, row.ID(),
			"missing <inducer> block in context"))
	}
	for _, inducer := range inducers {
		from := inducer.Find("from")
		until := inducer.Find("until")
		if from == nil && until == nil {
			issues = append(issues, core.NewIssue(core.SheetContexts, row.ID(),
				"<inducer> carries neither a <from> nor an <until> bound"))
			continue
		}
		for _, bound := range []*artifact.Node{from, until} {
			if bound == nil {
				continue
			}
			for _, attr := range []string{"shift", "granularity"} {
				if bound.Attr(attr) == "" {
					issues = append(issues, core.NewIssue(core.SheetContexts, row.ID(),
						fmt.Sprintf("<%s> bound is missing its '%s' attribute", bound.Tag, attr)))
				}
			}
		}
	}

	if clipper := doc.Find("clipper"); clipper != nil {
		for _, attr := range []string{"boundary", "shift", "granularity"} {
			if clipper.Attr(attr) == "" {
				issues = append(issues, core.NewIssue(core.SheetContexts, row.ID(),
					fmt.Sprintf("<clipper> is missing its '%s' attribute", attr)))
			}
		}
	}
	return issues
}

// checkTrendSubstructure requires the derivation block, the three fixed
// ordinal labels, a steadiness duration and a complete persistence block.
func (c *TakChecker) checkTrendSubstructure(doc *artifact.Node, row tabular.Row) []core.ValidationIssue {
	issues := requireElements(doc, core.SheetTrends, row.ID(), "derived-from", "ordinal-allowed-values")

	if holder := doc.Find("ordinal-allowed-values"); holder != nil {
		present := tabular.StringSet(enumeratedValues(holder))
		for _, label := range trendOrdinalLabels {
			if _, ok := present[label]; !ok {
				issues = append(issues, core.NewIssue(core.SheetTrends, row.ID(),
					fmt.Sprintf("ordinal allowed values are missing the fixed label '%s'", label)))
			}
		}
	}

	if steadiness := doc.Find("steadiness-duration"); steadiness == nil {
		issues = append(issues, core.NewIssue(core.SheetTrends, row.ID(),
			"missing <steadiness-duration> block in trend"))
	} else {
		for _, attr := range []string{"magnitude", "granularity"} {
			if steadiness.Attr(attr) == "" {
				issues = append(issues, core.NewIssue(core.SheetTrends, row.ID(),
					fmt.Sprintf("<steadiness-duration> is missing its '%s' attribute", attr)))
			}
		}
	}

	persistence := doc.Find("persistence")
	if persistence == nil {
		return append(issues, core.NewIssue(core.SheetTrends, row.ID(),
			"missing <persistence> block in trend"))
	}
	for _, boundTag := range []string{"before", "after"} {
		bound := persistence.Find(boundTag)
		if bound == nil {
			issues = append(issues, core.NewIssue(core.SheetTrends, row.ID(),
				fmt.Sprintf("<persistence> is missing its <%s> bound", boundTag)))
			continue
		}
		for _, attr := range []string{"magnitude", "granularity"} {
			if bound.Attr(attr) == "" {
				issues = append(issues, core.NewIssue(core.SheetTrends, row.ID(),
					fmt.Sprintf("<persistence> <%s> bound is missing its '%s' attribute", boundTag, attr)))
			}
		}
	}
	return issues
}

// requireElements reports one issue per named element absent from the
// document.
func requireElements(doc *artifact.Node, sheet core.SheetName, id core.TakID, tags ...string) []core.ValidationIssue {
	var issues []core.ValidationIssue
	for _, tag := range tags {
		if doc.Find(tag) == nil {
			issues = append(issues, core.NewIssue(sheet, id,
				fmt.Sprintf("missing <%s> block for %s", tag, sheet)))
		}
	}
	return issues
}
