package takcheck

import (
	"context"
	"fmt"
	"log"
	"sort"

	"takforge/domain/core"
	"takforge/domain/tabular"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of validating the whole workbook. Valid flips only on
// issues; warnings are surfaced but never fail the run.
type Result struct {
	Valid    bool
	Issues   []core.ValidationIssue
	Warnings []core.ValidationIssue
}

// Summary renders a one-line verdict for logs.
func (r Result) Summary() string {
	if r.Valid {
		return fmt.Sprintf("workbook is valid (%d warnings)", len(r.Warnings))
	}
	return fmt.Sprintf("workbook is invalid: %d issues, %d warnings", len(r.Issues), len(r.Warnings))
}

// Aggregator composes per-sheet validation with the global invariants that
// span all sheets.
type Aggregator struct {
	required []core.SheetName
}

// NewAggregator builds an aggregator over the given required sheets,
// defaulting to the full recognized set.
func NewAggregator(required ...core.SheetName) *Aggregator {
	if len(required) == 0 {
		required = core.SheetOrder()
	}
	return &Aggregator{required: required}
}

// Validate runs all checks. Per-sheet validation fans out concurrently, but
// results merge in fixed sheet order so issue ordering stays deterministic.
// A missing sheet is reported and the remaining checks still run.
func (a *Aggregator) Validate(ctx context.Context, wb *tabular.Workbook) Result {
	checker := NewChecker(wb)
	perSheet := make([][]core.ValidationIssue, len(a.required))

	g, _ := errgroup.WithContext(ctx)
	for i, name := range a.required {
		g.Go(func() error {
			perSheet[i] = checker.ValidateSheet(name)
			return nil
		})
	}
	_ = g.Wait() // sheet validation never errors; data problems are issues

	var result Result
	for _, issues := range perSheet {
		for _, issue := range issues {
			if issue.IsWarning() {
				result.Warnings = append(result.Warnings, issue)
			} else {
				result.Issues = append(result.Issues, issue)
			}
		}
	}

	result.Issues = append(result.Issues, a.checkGlobalUniqueness(wb)...)
	result.Warnings = append(result.Warnings, a.checkUnreferencedConcepts(wb)...)

	result.Valid = len(result.Issues) == 0
	log.Printf("[ExcelCheck] %s", result.Summary())
	return result
}

// checkGlobalUniqueness enforces that ID and TAK_NAME are unique across the
// union of all required sheets, naming each duplicate value found.
func (a *Aggregator) checkGlobalUniqueness(wb *tabular.Workbook) []core.ValidationIssue {
	ids := make(map[string][]core.SheetName)
	names := make(map[string][]core.SheetName)
	for _, sheetName := range a.required {
		sheet, ok := wb.Sheet(sheetName)
		if !ok {
			continue
		}
		for _, row := range sheet.Rows {
			if id := row.ID().String(); id != "" {
				ids[id] = append(ids[id], sheetName)
			}
			if name := row.Name().String(); name != "" {
				names[name] = append(names[name], sheetName)
			}
		}
	}

	var issues []core.ValidationIssue
	issues = append(issues, duplicateIssues("ID", ids)...)
	issues = append(issues, duplicateIssues("TAK_NAME", names)...)
	return issues
}

// duplicateIssues reports every value declared more than once, with the
// sheets that declare it, in sorted order for deterministic output.
func duplicateIssues(field string, declared map[string][]core.SheetName) []core.ValidationIssue {
	var values []string
	for value, sheets := range declared {
		if len(sheets) > 1 {
			values = append(values, value)
		}
	}
	sort.Strings(values)

	issues := make([]core.ValidationIssue, 0, len(values))
	for _, value := range values {
		issues = append(issues, core.NewFieldIssue("", "", field,
			fmt.Sprintf("global duplicate: '%s' is declared in sheets %v", value, declared[value])))
	}
	return issues
}

// checkUnreferencedConcepts warns about raw concepts nothing else points at.
// Weak invariant: advisory only, never a failure.
func (a *Aggregator) checkUnreferencedConcepts(wb *tabular.Workbook) []core.ValidationIssue {
	referenced := make(map[string]struct{})
	for sheetName, fields := range referenceTargets {
		sheet, ok := wb.Sheet(sheetName)
		if !ok {
			continue
		}
		for field := range fields {
			for _, row := range sheet.Rows {
				for _, ref := range row.Refs(field) {
					referenced[ref] = struct{}{}
				}
			}
		}
	}

	rawSheet, ok := wb.Sheet(core.SheetRawConcepts)
	if !ok {
		return nil
	}
	var warnings []core.ValidationIssue
	for _, row := range rawSheet.Rows {
		id := row.ID().String()
		if id == "" {
			continue
		}
		if _, ok := referenced[id]; !ok {
			warnings = append(warnings, core.NewWarning(core.SheetRawConcepts, row.ID(),
				"raw concept is never referenced by any state, event, context or trend"))
		}
	}
	return warnings
}
