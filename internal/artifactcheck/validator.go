// Package artifactcheck validates generated TAK XML artifacts against the
// structural schema and cross-checks their content with the workbook row they
// were generated from.
//
// Validation is a stage machine: critical stages (well-formedness, schema,
// identity, known type, matching row) short-circuit at the first failure;
// business stages then accumulate every issue so the control loop can feed
// the full list back to the generator.
package artifactcheck

import (
	"fmt"
	"log"
	"strings"

	"takforge/domain/artifact"
	"takforge/domain/core"
	"takforge/domain/tabular"
	"takforge/internal/schema"
	"takforge/internal/template"
)

// TakChecker validates artifacts against the compiled schema and the
// workbook business logic.
type TakChecker struct {
	schema    *schema.Schema
	wb        *tabular.Workbook
	templates *template.Store
}

// NewTakChecker builds an artifact checker.
func NewTakChecker(s *schema.Schema, wb *tabular.Workbook, templates *template.Store) *TakChecker {
	return &TakChecker{schema: s, wb: wb, templates: templates}
}

// Validate checks one artifact text against the expected row identity.
// Critical failures return immediately with a single-cause issue list;
// business checks run to completion and return every issue found.
func (c *TakChecker) Validate(artifactText string, expectedID core.TakID) Result {
	doc, err := artifact.Parse(artifactText)
	if err != nil {
		return critical("", expectedID, err.Error())
	}

	if violations := c.schema.Validate(doc); len(violations) > 0 {
		return critical("", expectedID,
			"schema validation errors: "+strings.Join(violations, "; "))
	}

	declaredID := core.TakID(strings.TrimSpace(doc.Attr("id")))
	if declaredID != expectedID {
		return critical("", expectedID,
			fmt.Sprintf("artifact declares id '%s' but '%s' was expected", declaredID, expectedID))
	}

	sheet, ok := core.SheetForRootTag(doc.Tag)
	if !ok {
		return critical("", expectedID,
			fmt.Sprintf("unrecognized TAK type with root tag <%s>", doc.Tag))
	}

	row, ok := c.wb.FindRow(sheet, expectedID)
	if !ok {
		return critical(sheet, expectedID,
			fmt.Sprintf("no matching ID '%s' found in sheet '%s'", expectedID, sheet))
	}

	var issues []core.ValidationIssue
	issues = append(issues, c.checkSubstructure(doc, sheet, row)...)
	issues = append(issues, c.reconcilePlaceholders(doc, sheet, row)...)
	issues = append(issues, c.reconcileAllowedValues(doc, sheet, row)...)

	if len(issues) == 0 {
		return Result{OK: true}
	}
	log.Printf("[TakCheck] artifact %s failed %d business checks", expectedID, len(issues))
	return Result{OK: false, Category: CategoryBusiness, Issues: issues}
}

// reconcileAllowedValues checks, for concept and state sheets, that every
// enumerated value the artifact lists in a nominal/ordinal allowed-value
// substructure is declared by the corresponding tabular column.
func (c *TakChecker) reconcileAllowedValues(doc *artifact.Node, sheet core.SheetName, row tabular.Row) []core.ValidationIssue {
	var column string
	switch {
	case sheet == core.SheetRawConcepts && row.Type() == core.ConceptNominal:
		column = "NOMINAL_VALUES"
	case sheet == core.SheetStates:
		column = "STATE_LABELS"
	default:
		return nil
	}

	declared, err := tabular.JSONCellOf(row.Get(column)).StringList()
	if err != nil {
		// The sheet validator owns reporting unparseable cells.
		return nil
	}
	allowed := tabular.StringSet(declared)

	var issues []core.ValidationIssue
	for _, container := range []string{"nominal-allowed-values", "ordinal-allowed-values"} {
		for _, holder := range doc.FindAll(container) {
			for _, value := range enumeratedValues(holder) {
				if _, ok := allowed[value]; !ok {
					issues = append(issues, core.NewFieldIssue(sheet, row.ID(), column,
						fmt.Sprintf("artifact lists value '%s' that the workbook does not declare", value)))
				}
			}
		}
	}
	return issues
}

// enumeratedValues extracts the values of an allowed-values substructure:
// <value> children carry the value in their name attribute or text content.
func enumeratedValues(holder *artifact.Node) []string {
	var out []string
	for _, v := range holder.FindAll("value") {
		value := strings.TrimSpace(v.Attr("name"))
		if value == "" {
			value = strings.TrimSpace(v.Text)
		}
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}
