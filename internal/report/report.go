// Package report accumulates the outcome of one generation run and renders
// it as a markdown document: workbook verdict, per-row outcomes, oracle
// usage totals and descriptive statistics over the mapping bins.
package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/montanaflynn/stats"

	"takforge/domain/core"
	"takforge/domain/tabular"
	"takforge/ports"
)

// RowOutcome is the final fate of one workbook row.
type RowOutcome struct {
	Sheet    core.SheetName
	TakID    core.TakID
	Name     core.TakName
	Status   core.ArtifactStatus
	Attempts int
	Stalled  bool
	Skipped  bool // already present in the registry
	Filename string
	Issues   []string
}

// BinDiagnostic summarizes the bin widths of one state's MAPPING cell.
type BinDiagnostic struct {
	TakID       core.TakID
	Bins        int
	MeanWidth   float64
	StdDevWidth float64
	MinWidth    float64
	MaxWidth    float64
}

// UsageTotals accumulates oracle token accounting across the run.
type UsageTotals struct {
	Requests         int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// RunReport is the mutable record of one run. Safe for concurrent additions.
type RunReport struct {
	RunID      core.RunID
	StartedAt  core.Timestamp
	FinishedAt core.Timestamp

	WorkbookValid    bool
	WorkbookIssues   []string
	WorkbookWarnings []string

	mu          sync.Mutex
	Outcomes    []RowOutcome
	Usage       UsageTotals
	Diagnostics []BinDiagnostic
}

// New starts a report for the given run.
func New(runID core.RunID) *RunReport {
	return &RunReport{RunID: runID, StartedAt: core.Now()}
}

// AddOutcome records one row's fate.
func (r *RunReport) AddOutcome(outcome RowOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outcomes = append(r.Outcomes, outcome)
}

// AddUsage folds one oracle response's accounting into the totals.
func (r *RunReport) AddUsage(usage *ports.UsageData) {
	if usage == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Usage.Requests++
	r.Usage.PromptTokens += usage.PromptTokens
	r.Usage.CompletionTokens += usage.CompletionTokens
	r.Usage.TotalTokens += usage.TotalTokens
}

// Finish stamps the completion time.
func (r *RunReport) Finish() {
	r.FinishedAt = core.Now()
}

// ComputeBinDiagnostics derives width statistics for every state row that
// declares a parseable MAPPING. Unparseable cells are the validator's
// problem and are skipped here.
func (r *RunReport) ComputeBinDiagnostics(wb *tabular.Workbook) {
	sheet, ok := wb.Sheet(core.SheetStates)
	if !ok {
		return
	}
	for _, row := range sheet.Rows {
		pairs, err := tabular.JSONCellOf(row.Get("MAPPING")).PairList()
		if err != nil || len(pairs) == 0 {
			continue
		}
		widths := make([]float64, 0, len(pairs))
		for _, pair := range pairs {
			widths = append(widths, pair.High-pair.Low)
		}

		mean, _ := stats.Mean(widths)
		stdDev, _ := stats.StandardDeviation(widths)
		minWidth, _ := stats.Min(widths)
		maxWidth, _ := stats.Max(widths)

		r.mu.Lock()
		r.Diagnostics = append(r.Diagnostics, BinDiagnostic{
			TakID:       row.ID(),
			Bins:        len(pairs),
			MeanWidth:   mean,
			StdDevWidth: stdDev,
			MinWidth:    minWidth,
			MaxWidth:    maxWidth,
		})
		r.mu.Unlock()
	}
}

// Counts tallies the outcomes per status.
func (r *RunReport) Counts() (valid, invalid, review, skipped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, outcome := range r.Outcomes {
		switch {
		case outcome.Skipped:
			skipped++
		case outcome.Status == core.ArtifactValid:
			valid++
		case outcome.Status == core.ArtifactNeedsReview:
			review++
		default:
			invalid++
		}
	}
	return
}

// Render produces the markdown report document.
func (r *RunReport) Render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "# TAK Generation Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt)
	if !r.FinishedAt.Time().IsZero() {
		fmt.Fprintf(&b, "- Finished: %s\n", r.FinishedAt)
	}
	b.WriteString("\n")

	b.WriteString("## Workbook Validation\n\n")
	if r.WorkbookValid {
		fmt.Fprintf(&b, "Workbook passed validation with %d warnings.\n\n", len(r.WorkbookWarnings))
	} else {
		fmt.Fprintf(&b, "Workbook failed validation with %d issues.\n\n", len(r.WorkbookIssues))
	}
	for _, issue := range r.WorkbookIssues {
		fmt.Fprintf(&b, "- ERROR: %s\n", issue)
	}
	for _, warning := range r.WorkbookWarnings {
		fmt.Fprintf(&b, "- WARNING: %s\n", warning)
	}
	if len(r.WorkbookIssues)+len(r.WorkbookWarnings) > 0 {
		b.WriteString("\n")
	}

	if len(r.Outcomes) > 0 {
		b.WriteString("## Row Outcomes\n\n")
		b.WriteString("| Sheet | ID | Name | Status | Attempts | File |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, o := range r.Outcomes {
			status := string(o.Status)
			if o.Skipped {
				status = "skipped"
			}
			if o.Stalled {
				status += " (stalled)"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %s |\n",
				o.Sheet, o.TakID, o.Name, status, o.Attempts, o.Filename)
		}
		b.WriteString("\n")

		for _, o := range r.Outcomes {
			if len(o.Issues) == 0 {
				continue
			}
			fmt.Fprintf(&b, "### Remaining issues for %s\n\n", o.TakID)
			for _, issue := range o.Issues {
				fmt.Fprintf(&b, "- %s\n", issue)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Diagnostics) > 0 {
		b.WriteString("## Mapping Bin Diagnostics\n\n")
		b.WriteString("| State | Bins | Mean Width | Std Dev | Min | Max |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(&b, "| %s | %d | %.2f | %.2f | %.2f | %.2f |\n",
				d.TakID, d.Bins, d.MeanWidth, d.StdDevWidth, d.MinWidth, d.MaxWidth)
		}
		b.WriteString("\n")
	}

	if r.Usage.Requests > 0 {
		b.WriteString("## Oracle Usage\n\n")
		fmt.Fprintf(&b, "- Requests: %d\n", r.Usage.Requests)
		fmt.Fprintf(&b, "- Prompt tokens: %d\n", r.Usage.PromptTokens)
		fmt.Fprintf(&b, "- Completion tokens: %d\n", r.Usage.CompletionTokens)
		fmt.Fprintf(&b, "- Total tokens: %d\n", r.Usage.TotalTokens)
	}

	return b.String()
}
