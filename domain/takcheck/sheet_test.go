package takcheck

import (
	"context"
	"strings"
	"testing"

	"takforge/domain/core"
	"takforge/domain/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSheet constructs a sheet whose column list covers the required set
// plus any extra fields the rows mention.
func buildSheet(name core.SheetName, rows ...map[string]string) *tabular.Sheet {
	columns := RequiredColumns(name)
	seen := make(map[string]bool)
	for _, col := range columns {
		seen[col] = true
	}
	for _, cells := range rows {
		for col := range cells {
			if !seen[col] {
				columns = append(columns, col)
				seen[col] = true
			}
		}
	}

	sheet := &tabular.Sheet{Name: name, Columns: columns}
	for i, cells := range rows {
		full := make(map[string]string, len(columns))
		for _, col := range columns {
			full[col] = cells[col]
		}
		sheet.Rows = append(sheet.Rows, tabular.NewRow(i+2, full))
	}
	return sheet
}

func numericConcept(id, name, min, max string) map[string]string {
	return map[string]string{
		"ID": id, "TAK_NAME": name, "TYPE": "numeric-raw-concept",
		"MIN_VALUE": min, "MAX_VALUE": max, "UNIT": "mg/dL", "SCALE": "linear",
	}
}

func nominalConcept(id, name, values string) map[string]string {
	return map[string]string{
		"ID": id, "TAK_NAME": name, "TYPE": "nominal-raw-concept",
		"NOMINAL_VALUES": values,
	}
}

func stateRow(id, name, derivedFrom, mapping, labels string) map[string]string {
	return map[string]string{
		"ID": id, "TAK_NAME": name, "DERIVED_FROM": derivedFrom,
		"MAPPING": mapping, "STATE_LABELS": labels,
	}
}

func issueText(issues []core.ValidationIssue) string {
	return strings.Join(core.IssueStrings(issues), "\n")
}

func TestValidateSheet_MissingColumnSuppressesRowChecks(t *testing.T) {
	sheet := &tabular.Sheet{
		Name:    core.SheetEvents,
		Columns: []string{"ID", "TAK_NAME"}, // ATTRIBUTES missing
		Rows:    []tabular.Row{tabular.NewRow(2, map[string]string{"ID": "", "TAK_NAME": "E1"})},
	}
	wb := tabular.NewWorkbook(sheet)

	issues := NewChecker(wb).ValidateSheet(core.SheetEvents)
	require.Len(t, issues, 1)
	assert.Equal(t, "ATTRIBUTES", issues[0].Field)
	assert.Contains(t, issues[0].Message, "required column is missing")
}

func TestValidateSheet_EmptyAndDuplicateIDs(t *testing.T) {
	sheet := buildSheet(core.SheetRawConcepts,
		numericConcept("", "EMPTY", "0", "100"),
		numericConcept("C1", "A", "0", "100"),
		numericConcept("C1", "B", "0", "100"),
	)
	wb := tabular.NewWorkbook(sheet)

	issues := NewChecker(wb).ValidateSheet(core.SheetRawConcepts)
	text := issueText(issues)
	assert.Contains(t, text, "raw_concepts")
	assert.Contains(t, text, "empty ID")
	assert.Contains(t, text, "'C1' is declared 2 times")
}

func TestValidateSheet_EmptyTakName(t *testing.T) {
	sheet := buildSheet(core.SheetRawConcepts,
		numericConcept("C1", "", "0", "100"),
		numericConcept("C2", "   ", "0", "100"),
	)
	wb := tabular.NewWorkbook(sheet)

	issues := NewChecker(wb).ValidateSheet(core.SheetRawConcepts)
	require.Len(t, issues, 2)
	for i, issue := range issues {
		assert.Equal(t, "TAK_NAME", issue.Field, i)
		assert.Contains(t, issue.Message, "empty TAK_NAME")
	}
}

func TestValidateSheet_NumericConceptMissingField(t *testing.T) {
	for _, field := range []string{"MIN_VALUE", "MAX_VALUE", "UNIT", "SCALE"} {
		row := numericConcept("C1", "GLUCOSE", "0", "200")
		delete(row, field)
		wb := tabular.NewWorkbook(buildSheet(core.SheetRawConcepts, row))

		issues := NewChecker(wb).ValidateSheet(core.SheetRawConcepts)
		require.Len(t, issues, 1, field)
		assert.Equal(t, field, issues[0].Field)
		assert.Contains(t, issues[0].Message, "numeric-raw-concept")
	}
}

func TestValidateSheet_TimeConceptDateParsing(t *testing.T) {
	sheet := buildSheet(core.SheetRawConcepts,
		map[string]string{
			"ID": "T1", "TAK_NAME": "ADMISSION_WINDOW", "TYPE": "time-raw-concept",
			"MIN_VALUE": "01/01/2020", "MAX_VALUE": "2020-12-31",
		},
		map[string]string{
			"ID": "T2", "TAK_NAME": "EMPTY_WINDOW", "TYPE": "time-raw-concept",
			"MIN_VALUE": "01/01/2020",
		},
	)
	wb := tabular.NewWorkbook(sheet)

	issues := NewChecker(wb).ValidateSheet(core.SheetRawConcepts)
	require.Len(t, issues, 2)
	// Unparseable date is its own issue, distinct from emptiness.
	assert.Contains(t, issues[0].Message, "not a valid")
	assert.Contains(t, issues[1].Message, "must be specified")
}

func TestValidateSheet_DanglingReference(t *testing.T) {
	wb := tabular.NewWorkbook(
		buildSheet(core.SheetRawConcepts, numericConcept("C1", "GLUCOSE", "0", "200")),
		buildSheet(core.SheetStates,
			stateRow("S1", "GLUCOSE_STATE", "C1, C_MISSING", "", "")),
	)

	issues := NewChecker(wb).ValidateSheet(core.SheetStates)
	text := issueText(issues)
	assert.Contains(t, text, "undefined ID 'C_MISSING'")
	assert.NotContains(t, text, "undefined ID 'C1'")
}

func TestValidateSheet_NominalStateLabelSetEquality(t *testing.T) {
	wb := tabular.NewWorkbook(
		buildSheet(core.SheetRawConcepts, nominalConcept("C1", "ROUTE", `["A","B"]`)),
		buildSheet(core.SheetStates, stateRow("S1", "ROUTE_STATE", "C1", "", `["B","A"]`)),
	)
	issues := NewChecker(wb).ValidateSheet(core.SheetStates)
	assert.Empty(t, issues, "order-insensitive set equality must pass")

	wb = tabular.NewWorkbook(
		buildSheet(core.SheetRawConcepts, nominalConcept("C1", "ROUTE", `["A","B"]`)),
		buildSheet(core.SheetStates, stateRow("S1", "ROUTE_STATE", "C1", "", `["A","C"]`)),
	)
	issues = NewChecker(wb).ValidateSheet(core.SheetStates)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "do not match the nominal values")
}

func TestValidateSheet_NumericStateMapping(t *testing.T) {
	labels := `["LOW","NORMAL","HIGH"]`
	cases := []struct {
		name    string
		mapping string
		want    string
	}{
		{"well-formed", `[[0,70],[70,140],[140,200]]`, ""},
		{"gap", `[[0,70],[75,140],[140,200]]`, "gap between bin 'LOW' (upper 70) and bin 'NORMAL' (lower 75)"},
		{"overlap", `[[0,75],[70,140],[140,200]]`, "overlap"},
		{"wrong minimum", `[[5,70],[70,140],[140,200]]`, "declares minimum 0"},
		{"wrong maximum", `[[0,70],[70,140],[140,190]]`, "declares maximum 200"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wb := tabular.NewWorkbook(
				buildSheet(core.SheetRawConcepts, numericConcept("C1", "GLUCOSE", "0", "200")),
				buildSheet(core.SheetStates, stateRow("S1", "GLUCOSE_STATE", "C1", tc.mapping, labels)),
			)
			issues := NewChecker(wb).ValidateSheet(core.SheetStates)
			if tc.want == "" {
				assert.Empty(t, issues)
				return
			}
			require.NotEmpty(t, issues)
			assert.Contains(t, issueText(issues), tc.want)
		})
	}
}

func TestValidateSheet_MappingLengthMismatchAndBadJSON(t *testing.T) {
	wb := tabular.NewWorkbook(
		buildSheet(core.SheetRawConcepts, numericConcept("C1", "GLUCOSE", "0", "200")),
		buildSheet(core.SheetStates,
			stateRow("S1", "A", "C1", `[[0,70],[70,200]]`, `["LOW"]`),
			stateRow("S2", "B", "C1", `not-json`, `["LOW"]`),
		),
	)
	issues := NewChecker(wb).ValidateSheet(core.SheetStates)
	text := issueText(issues)
	assert.Contains(t, text, "has 2 bins but STATE_LABELS has 1 labels")
	assert.Contains(t, text, "could not be parsed")
}

func TestValidateSheet_MultiValuedDerivedFromIsWarningOnly(t *testing.T) {
	wb := tabular.NewWorkbook(
		buildSheet(core.SheetRawConcepts,
			numericConcept("C1", "GLUCOSE", "0", "200"),
			numericConcept("C2", "INSULIN", "0", "50"),
		),
		buildSheet(core.SheetStates, stateRow("S1", "COMBINED", "C1, C2", "", "")),
	)
	issues := NewChecker(wb).ValidateSheet(core.SheetStates)
	require.Len(t, issues, 1)
	assert.True(t, issues[0].IsWarning())
	assert.Contains(t, issues[0].Message, "multi-valued DERIVED_FROM is unsupported")
}

func TestValidateSheet_ContextChecks(t *testing.T) {
	wb := tabular.NewWorkbook(
		buildSheet(core.SheetEvents, map[string]string{"ID": "E1", "TAK_NAME": "DOSE", "ATTRIBUTES": "E1"}),
		buildSheet(core.SheetContexts,
			map[string]string{ // no bound at all
				"ID": "X1", "TAK_NAME": "CTX1", "INDUCER_ID": "E1",
			},
			map[string]string{ // from-bound missing its granularity
				"ID": "X2", "TAK_NAME": "CTX2", "INDUCER_ID": "E1",
				"FROM_BOUNDARY": "start", "FROM_SHIFT": "2",
			},
			map[string]string{ // clipper missing shift and granularity
				"ID": "X3", "TAK_NAME": "CTX3", "INDUCER_ID": "E1",
				"FROM_BOUNDARY": "start", "FROM_SHIFT": "2", "FROM_GRANULARITY": "hour",
				"CLIPPER_ID": "E1", "CLIPPER_BOUNDARY": "end",
			},
		),
	)
	issues := NewChecker(wb).ValidateSheet(core.SheetContexts)
	text := issueText(issues)
	assert.Contains(t, text, "at least one of FROM_BOUNDARY or UNTIL_BOUNDARY")
	assert.Contains(t, text, "'FROM_GRANULARITY': must be specified when FROM_BOUNDARY is set")
	assert.Contains(t, text, "'CLIPPER_SHIFT': must be specified when CLIPPER_ID is set")
	assert.Contains(t, text, "'CLIPPER_GRANULARITY': must be specified when CLIPPER_ID is set")
}

func TestAggregator_MissingSheetDoesNotAbortOtherChecks(t *testing.T) {
	wb := tabular.NewWorkbook(
		buildSheet(core.SheetRawConcepts, numericConcept("C1", "GLUCOSE", "0", "")),
	)
	result := NewAggregator(core.SheetRawConcepts, core.SheetEvents).Validate(context.Background(), wb)

	assert.False(t, result.Valid)
	text := issueText(result.Issues)
	assert.Contains(t, text, "events: required sheet is missing")
	assert.Contains(t, text, "MAX_VALUE")
}

func TestAggregator_GlobalUniquenessNamesDuplicates(t *testing.T) {
	wb := tabular.NewWorkbook(
		buildSheet(core.SheetRawConcepts, numericConcept("DUP", "SHARED_NAME", "0", "200")),
		buildSheet(core.SheetEvents, map[string]string{
			"ID": "DUP", "TAK_NAME": "SHARED_NAME", "ATTRIBUTES": "DUP",
		}),
	)
	result := NewAggregator(core.SheetRawConcepts, core.SheetEvents).Validate(context.Background(), wb)

	assert.False(t, result.Valid)
	text := issueText(result.Issues)
	assert.Contains(t, text, "'DUP' is declared in sheets")
	assert.Contains(t, text, "'SHARED_NAME' is declared in sheets")
}

func TestAggregator_UnreferencedConceptIsWarningOnly(t *testing.T) {
	wb := tabular.NewWorkbook(
		buildSheet(core.SheetRawConcepts,
			numericConcept("C1", "GLUCOSE", "0", "200"),
			numericConcept("C2", "ORPHAN", "0", "10"),
		),
		buildSheet(core.SheetStates,
			stateRow("S1", "GLUCOSE_STATE", "C1", `[[0,100],[100,200]]`, `["LOW","HIGH"]`)),
		buildSheet(core.SheetEvents, map[string]string{
			"ID": "E1", "TAK_NAME": "DOSE", "ATTRIBUTES": "C1",
		}),
		buildSheet(core.SheetContexts, map[string]string{
			"ID": "X1", "TAK_NAME": "CTX", "INDUCER_ID": "E1",
			"FROM_BOUNDARY": "start", "FROM_SHIFT": "1", "FROM_GRANULARITY": "hour",
		}),
		buildSheet(core.SheetTrends, map[string]string{
			"ID": "R1", "TAK_NAME": "GLUCOSE_TREND", "DERIVED_FROM": "C1",
		}),
	)
	result := NewAggregator().Validate(context.Background(), wb)

	assert.True(t, result.Valid, issueText(result.Issues))
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, issueText(result.Warnings), "ID=C2")
	assert.Contains(t, issueText(result.Warnings), "never referenced")
}
