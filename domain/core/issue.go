package core

import (
	"fmt"
	"strings"
)

// Severity classifies a validation issue. Warnings never flip a result.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Confidence tags how trustworthy an issue is. Heuristic placement matches
// produce low-confidence issues so the control loop can special-case them.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// ValidationIssue is one human-readable data problem. Data problems are
// values, not errors: a malformed row never stops validation of other rows.
type ValidationIssue struct {
	Sheet      SheetName
	RowID      TakID
	Field      string
	Message    string
	Severity   Severity
	Confidence Confidence
}

// NewIssue builds an error-severity, high-confidence issue.
func NewIssue(sheet SheetName, rowID TakID, message string) ValidationIssue {
	return ValidationIssue{
		Sheet:      sheet,
		RowID:      rowID,
		Message:    message,
		Severity:   SeverityError,
		Confidence: ConfidenceHigh,
	}
}

// NewFieldIssue builds an issue naming the offending field.
func NewFieldIssue(sheet SheetName, rowID TakID, field, message string) ValidationIssue {
	issue := NewIssue(sheet, rowID, message)
	issue.Field = field
	return issue
}

// NewWarning builds a warning-severity issue.
func NewWarning(sheet SheetName, rowID TakID, message string) ValidationIssue {
	issue := NewIssue(sheet, rowID, message)
	issue.Severity = SeverityWarning
	return issue
}

// AsLowConfidence returns a copy tagged as a heuristic (possibly inaccurate) finding.
func (i ValidationIssue) AsLowConfidence() ValidationIssue {
	i.Confidence = ConfidenceLow
	return i
}

// IsWarning reports whether the issue is advisory only.
func (i ValidationIssue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String renders the issue in the namespaced form used in logs and feedback.
func (i ValidationIssue) String() string {
	var b strings.Builder
	if i.Sheet != "" {
		fmt.Fprintf(&b, "%s: ", i.Sheet)
	}
	if i.RowID != "" {
		fmt.Fprintf(&b, "(ID=%s) ", i.RowID)
	}
	if i.Field != "" {
		fmt.Fprintf(&b, "'%s': ", i.Field)
	}
	b.WriteString(i.Message)
	if i.Confidence == ConfidenceLow {
		b.WriteString(" (heuristic placement match; this finding may be inaccurate)")
	}
	return b.String()
}

// IssueStrings renders a slice of issues preserving order.
func IssueStrings(issues []ValidationIssue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.String())
	}
	return out
}

// AllLowConfidence reports whether every issue carries the heuristic caveat.
// An empty slice returns false: no issues is success, not soft success.
func AllLowConfidence(issues []ValidationIssue) bool {
	if len(issues) == 0 {
		return false
	}
	for _, issue := range issues {
		if issue.Confidence != ConfidenceLow {
			return false
		}
	}
	return true
}
