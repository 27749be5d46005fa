// Package app orchestrates the generate, validate, feedback control loop:
// workbook validation gates the run, each row gets a bounded number of
// repair attempts, and every outcome lands in the registry and the report.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"takforge/domain/core"
	"takforge/domain/tabular"
	"takforge/domain/takcheck"
	"takforge/internal/artifactcheck"
	"takforge/internal/report"
	"takforge/ports"
)

// Options parameterizes one automation run.
type Options struct {
	Model       string
	MaxTokens   int
	MaxAttempts int
	TestMode    bool // build and check prompts without calling the oracle
}

// Automator drives the control loop over every workbook row.
type Automator struct {
	wb         *tabular.Workbook
	aggregator *takcheck.Aggregator
	checker    *artifactcheck.TakChecker
	prompts    *PromptBuilder
	oracle     ports.LLMClient
	registry   ports.RegistryStore
	store      ports.ArtifactStore
	opts       Options
}

// NewAutomator wires the control loop's collaborators.
func NewAutomator(
	wb *tabular.Workbook,
	aggregator *takcheck.Aggregator,
	checker *artifactcheck.TakChecker,
	prompts *PromptBuilder,
	oracle ports.LLMClient,
	registry ports.RegistryStore,
	store ports.ArtifactStore,
	opts Options,
) *Automator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &Automator{
		wb:         wb,
		aggregator: aggregator,
		checker:    checker,
		prompts:    prompts,
		oracle:     oracle,
		registry:   registry,
		store:      store,
		opts:       opts,
	}
}

// Run validates the workbook, then processes every row in sheet order.
// A failed workbook aborts before any generation happens.
func (a *Automator) Run(ctx context.Context) (*report.RunReport, error) {
	runID := core.NewRunID()
	rep := report.New(runID)
	log.Printf("[Automator] starting run %s", runID)

	workbook := a.aggregator.Validate(ctx, a.wb)
	rep.WorkbookValid = workbook.Valid
	rep.WorkbookIssues = core.IssueStrings(workbook.Issues)
	rep.WorkbookWarnings = core.IssueStrings(workbook.Warnings)
	rep.ComputeBinDiagnostics(a.wb)

	if !workbook.Valid {
		rep.Finish()
		return rep, fmt.Errorf("%w: %s", core.ErrRunAborted, workbook.Summary())
	}

	for _, sheetName := range core.SheetOrder() {
		sheet, ok := a.wb.Sheet(sheetName)
		if !ok {
			continue
		}
		for _, row := range sheet.Rows {
			if err := ctx.Err(); err != nil {
				rep.Finish()
				return rep, fmt.Errorf("%w: %v", core.ErrRunAborted, err)
			}
			outcome, err := a.processRow(ctx, rep, sheetName, row)
			if err != nil {
				rep.Finish()
				return rep, err
			}
			if outcome != nil {
				rep.AddOutcome(*outcome)
			}
		}
	}

	rep.Finish()
	valid, invalid, review, skipped := rep.Counts()
	log.Printf("[Automator] run %s finished: %d valid, %d invalid, %d need review, %d skipped",
		runID, valid, invalid, review, skipped)
	return rep, nil
}

// processRow runs the bounded repair loop for one row. A nil outcome means
// the row produced nothing to report (test mode with a good prompt).
func (a *Automator) processRow(ctx context.Context, rep *report.RunReport, sheet core.SheetName, row tabular.Row) (*report.RowOutcome, error) {
	id := row.ID()

	recorded, err := a.registry.Contains(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("registry lookup for '%s': %w", id, err)
	}
	if recorded {
		entry, err := a.registry.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("registry read for '%s': %w", id, err)
		}
		log.Printf("[Automator] skipping %s: already recorded as %s", id, entry.Status)
		return &report.RowOutcome{
			Sheet: sheet, TakID: id, Name: row.Name(),
			Status: entry.Status, Skipped: true, Filename: entry.Filename,
		}, nil
	}

	if a.opts.TestMode {
		prompt, err := a.prompts.Build(sheet, row, nil)
		if err != nil {
			return &report.RowOutcome{
				Sheet: sheet, TakID: id, Name: row.Name(),
				Status: core.ArtifactInvalid, Issues: []string{err.Error()},
			}, nil
		}
		log.Printf("[Automator] test mode: prompt for %s builds cleanly (%d chars)", id, len(prompt))
		return nil, nil
	}

	var (
		feedback   *Feedback
		lastText   string
		lastResult artifactcheck.Result
		seen       = make(map[string]struct{})
		stalled    bool
		attempts   int
	)

	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		attempts = attempt

		prompt, err := a.prompts.Build(sheet, row, feedback)
		if err != nil {
			// Prompt construction failure is not a data problem the oracle
			// can repair; report it and move on without registering.
			return &report.RowOutcome{
				Sheet: sheet, TakID: id, Name: row.Name(),
				Status: core.ArtifactInvalid, Attempts: attempts,
				Issues: []string{err.Error()},
			}, nil
		}

		resp, err := a.oracle.ChatCompletionWithUsage(ctx, a.opts.Model, prompt, a.opts.MaxTokens)
		if err != nil {
			log.Printf("[Automator] %s attempt %d: %v", id,
				attempt, fmt.Errorf("%w: %v", core.ErrOracleNoResponse, err))
			continue
		}
		rep.AddUsage(resp.Usage)

		text := cleanArtifact(resp.Content)
		if _, repeated := seen[text]; repeated {
			// A response byte-identical to any earlier attempt means feedback
			// stopped moving the oracle; the loop would only cycle from here.
			stalled = true
			log.Printf("[Automator] %s attempt %d: response repeats an earlier attempt, stopping", id, attempt)
			break
		}
		seen[text] = struct{}{}
		lastText = text

		result := a.checker.Validate(text, id)
		lastResult = result
		if result.OK {
			return a.finishRow(ctx, rep.RunID, sheet, row, text, core.ArtifactValid, attempts, false, nil)
		}

		log.Printf("[Automator] %s attempt %d: %d issues (%s)", id, attempt, len(result.Issues), result.Category)
		feedback = &Feedback{PriorArtifact: text, Issues: core.IssueStrings(result.Issues)}
	}

	if len(seen) == 0 {
		return &report.RowOutcome{
			Sheet: sheet, TakID: id, Name: row.Name(),
			Status: core.ArtifactInvalid, Attempts: attempts,
			Issues: []string{"oracle produced no response within the attempt budget"},
		}, nil
	}

	status := core.ArtifactInvalid
	if lastResult.AllIssuesLowConfidence() {
		// Every remaining finding came from heuristic placement matching, so
		// the artifact may well be correct: park it for manual review.
		status = core.ArtifactNeedsReview
	}
	return a.finishRow(ctx, rep.RunID, sheet, row, lastText, status, attempts, stalled, core.IssueStrings(lastResult.Issues))
}

// finishRow persists the artifact, records the outcome in the registry and
// builds the report entry.
func (a *Automator) finishRow(ctx context.Context, runID core.RunID, sheet core.SheetName, row tabular.Row,
	text string, status core.ArtifactStatus, attempts int, stalled bool, issues []string) (*report.RowOutcome, error) {

	filename, err := a.store.Save(ports.StoredArtifact{
		Sheet:  sheet,
		TakID:  row.ID(),
		Name:   row.Name(),
		Status: status,
		Text:   text,
	})
	if err != nil {
		return nil, fmt.Errorf("save artifact for '%s': %w", row.ID(), err)
	}

	if err := a.registry.Record(ctx, ports.RegistryEntry{
		TakID:      row.ID(),
		Filename:   filename,
		Status:     status,
		RunID:      runID,
		RecordedAt: core.Now(),
	}); err != nil {
		return nil, fmt.Errorf("record outcome for '%s': %w", row.ID(), err)
	}

	return &report.RowOutcome{
		Sheet: sheet, TakID: row.ID(), Name: row.Name(),
		Status: status, Attempts: attempts, Stalled: stalled,
		Filename: filename, Issues: issues,
	}, nil
}

// cleanArtifact strips the markdown fences oracles like to wrap XML in.
func cleanArtifact(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}
