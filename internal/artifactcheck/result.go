package artifactcheck

import "takforge/domain/core"

// Category splits artifact failures into the two taxonomies the control loop
// reacts to differently: critical failures mean the generator ignored
// structural constraints (feedback rarely helps), business failures mean
// content drift that pointed feedback can fix.
type Category string

const (
	CategoryNone     Category = ""
	CategoryCritical Category = "critical"
	CategoryBusiness Category = "business"
)

// Result is the outcome of validating one generated artifact.
type Result struct {
	OK       bool
	Category Category
	Issues   []core.ValidationIssue
}

// critical builds a short-circuit result with a single-cause issue list.
func critical(sheet core.SheetName, id core.TakID, message string) Result {
	return Result{
		OK:       false,
		Category: CategoryCritical,
		Issues:   []core.ValidationIssue{core.NewIssue(sheet, id, message)},
	}
}

// AllIssuesLowConfidence reports whether every issue carries the heuristic
// caveat, the condition under which the control loop treats an exhausted row
// as needing manual review rather than plain invalid.
func (r Result) AllIssuesLowConfidence() bool {
	return core.AllLowConfidence(r.Issues)
}
