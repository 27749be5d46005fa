package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"takforge/domain/core"
	"takforge/domain/tabular"
	"takforge/internal/schema"
	"takforge/internal/template"
)

// promptExcludedFields are workbook columns that carry authoring workflow
// metadata rather than TAK content; they never reach the oracle.
var promptExcludedFields = map[string]struct{}{
	"Mapping_Rank_Selection_Criteria": {},
}

// Feedback carries the prior attempt's artifact and its validation issues
// into the next prompt, which is what makes the loop a repair loop instead
// of a retry loop.
type Feedback struct {
	PriorArtifact string
	Issues        []string
}

// PromptBuilder assembles generation prompts from the authoring template, the
// schema fragment for the row's type and the row's own fields.
type PromptBuilder struct {
	schema    *schema.Schema
	templates *template.Store
}

// NewPromptBuilder creates a prompt builder.
func NewPromptBuilder(s *schema.Schema, templates *template.Store) *PromptBuilder {
	return &PromptBuilder{schema: s, templates: templates}
}

// Build assembles the prompt for one row. Feedback is nil on the first
// attempt and carries the prior artifact plus issues on repair attempts.
func (b *PromptBuilder) Build(sheet core.SheetName, row tabular.Row, feedback *Feedback) (string, error) {
	tmpl, err := b.templates.ForRow(sheet, row)
	if err != nil {
		return "", err
	}

	fragment, err := b.schema.ExtractFragment(fragmentType(sheet, row))
	if err != nil {
		return "", err
	}

	fields, err := rowJSON(row)
	if err != nil {
		return "", fmt.Errorf("serialize row fields: %w", err)
	}

	var p strings.Builder
	fmt.Fprintf(&p, "Produce the XML document for TAK '%s' (ID %s).\n\n", row.Name(), row.ID())

	p.WriteString("The document must conform to this schema fragment:\n\n")
	p.WriteString(fragment)
	p.WriteString("\n")

	fmt.Fprintf(&p, "Use this template as the target shape, substituting every {PLACEHOLDER} with the matching field value:\n\n%s\n\n", tmpl.Text)

	fmt.Fprintf(&p, "Field values for this definition:\n\n%s\n", fields)

	if feedback != nil {
		p.WriteString("\nYour previous attempt produced this document:\n\n")
		p.WriteString(feedback.PriorArtifact)
		p.WriteString("\n\nIt failed validation with these findings:\n")
		for _, issue := range feedback.Issues {
			fmt.Fprintf(&p, "- %s\n", issue)
		}
		p.WriteString("\nProduce a corrected document that resolves every finding.")
	}

	return p.String(), nil
}

// fragmentType resolves which schema element declaration anchors the prompt:
// raw concepts sub-select by their TYPE cell, other sheets map one-to-one.
func fragmentType(sheet core.SheetName, row tabular.Row) core.ConceptType {
	switch sheet {
	case core.SheetRawConcepts:
		return row.Type()
	case core.SheetStates:
		return core.ConceptState
	case core.SheetEvents:
		return core.ConceptEvent
	case core.SheetContexts:
		return core.ConceptContext
	case core.SheetTrends:
		return core.ConceptTrend
	}
	return ""
}

// rowJSON renders the row's non-empty fields as indented JSON with
// deterministic key order.
func rowJSON(row tabular.Row) (string, error) {
	fields := make(map[string]string)
	for _, name := range row.Fields() {
		if _, excluded := promptExcludedFields[name]; excluded {
			continue
		}
		fields[name] = row.Get(name)
	}
	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
