package artifactcheck

import (
	"fmt"
	"strings"

	"takforge/domain/artifact"
	"takforge/domain/core"
	"takforge/domain/tabular"
)

// located is one placeholder resolution attempt against the artifact.
type located struct {
	value string
	found bool
	exact bool // true when resolved via the fixed special-case map
}

// locator resolves where a placeholder's value lives inside an artifact.
// The fixed locator knows the handful of fields with non-obvious placement;
// the heuristic locator is an explicitly best-effort structural search whose
// findings are tagged low-confidence.
type locator interface {
	Locate(doc *artifact.Node, placeholder string) located
}

// fixedLocator is the special-case lookup table for fields whose placement
// does not follow from their name.
type fixedLocator struct{}

// fixedLocations maps placeholder names to their known home in the document.
var fixedLocations = map[string]func(doc *artifact.Node) (string, bool){
	"ID":       rootAttr("id"),
	"TAK_NAME": rootAttr("name"),

	"MIN_VALUE": allowedValuesAttr("min"),
	"MAX_VALUE": allowedValuesAttr("max"),
	"UNIT":      allowedValuesAttr("unit"),
	"SCALE":     allowedValuesAttr("scale"),

	"GOOD_BEFORE":      persistenceAttr("good-before"),
	"GOOD_BEFORE_UNIT": persistenceAttr("good-before-unit"),
	"GOOD_AFTER":       persistenceAttr("good-after"),
	"GOOD_AFTER_UNIT":  persistenceAttr("good-after-unit"),

	"DERIVED_FROM": elementAttr("derived-from", "idref"),
	"ATTRIBUTES":   elementAttr("attributes", "idrefs"),
	"INDUCER_ID":   elementAttr("inducer", "idref"),
}

func elementAttr(tag, name string) func(*artifact.Node) (string, bool) {
	return func(doc *artifact.Node) (string, bool) {
		holder := doc.Find(tag)
		if holder == nil {
			return "", false
		}
		value, ok := holder.Attrs[name]
		return value, ok
	}
}

func rootAttr(name string) func(*artifact.Node) (string, bool) {
	return func(doc *artifact.Node) (string, bool) {
		value, ok := doc.Attrs[name]
		return value, ok
	}
}

// allowedValuesAttr looks in whichever allowed-values block the artifact
// carries; numeric and time concepts share the min/max placement.
func allowedValuesAttr(name string) func(*artifact.Node) (string, bool) {
	return func(doc *artifact.Node) (string, bool) {
		for _, tag := range []string{"numeric-allowed-values", "time-allowed-values"} {
			if holder := doc.Find(tag); holder != nil {
				if value, ok := holder.Attrs[name]; ok {
					return value, true
				}
			}
		}
		return "", false
	}
}

func persistenceAttr(name string) func(*artifact.Node) (string, bool) {
	return func(doc *artifact.Node) (string, bool) {
		holder := doc.Find("persistence")
		if holder == nil {
			return "", false
		}
		value, ok := holder.Attrs[name]
		return value, ok
	}
}

func (fixedLocator) Locate(doc *artifact.Node, placeholder string) located {
	resolve, ok := fixedLocations[placeholder]
	if !ok {
		return located{}
	}
	value, found := resolve(doc)
	return located{value: value, found: found, exact: true}
}

// heuristicLocator searches every element for an attribute matching the
// placeholder's normalized name, then for one matching its trailing name
// fragment. Best effort only: its findings may point at the wrong attribute.
type heuristicLocator struct{}

func (heuristicLocator) Locate(doc *artifact.Node, placeholder string) located {
	normalized := strings.ToLower(strings.ReplaceAll(placeholder, "_", "-"))
	fragments := strings.Split(normalized, "-")
	trailing := fragments[len(fragments)-1]

	var exactMatch, suffixMatch *string
	doc.Walk(func(n *artifact.Node) {
		for attr, value := range n.Attrs {
			if attr == normalized && exactMatch == nil {
				v := value
				exactMatch = &v
			}
			if attr == trailing && suffixMatch == nil {
				v := value
				suffixMatch = &v
			}
		}
	})

	if exactMatch != nil {
		return located{value: *exactMatch, found: true}
	}
	if suffixMatch != nil {
		return located{value: *suffixMatch, found: true}
	}
	return located{}
}

// reconcilePlaceholders resolves, for every placeholder of the row's
// authoring template, the expected value from the workbook and the actual
// value from the artifact. Findings from the heuristic fallback are
// explicitly annotated as potentially inaccurate so the control loop and
// human reviewers can discount them.
func (c *TakChecker) reconcilePlaceholders(doc *artifact.Node, sheet core.SheetName, row tabular.Row) []core.ValidationIssue {
	tmpl, err := c.templates.ForRow(sheet, row)
	if err != nil {
		// Without a template there is nothing to reconcile; prompt
		// construction fails hard on the same condition earlier.
		return nil
	}

	fixed := fixedLocator{}
	heuristic := heuristicLocator{}

	var issues []core.ValidationIssue
	for _, placeholder := range tmpl.Placeholders() {
		expected := row.Get(placeholder)
		if expected == "" {
			continue
		}

		loc := fixed.Locate(doc, placeholder)
		if loc.exact && !loc.found {
			issues = append(issues, core.NewFieldIssue(sheet, row.ID(), placeholder,
				fmt.Sprintf("expected value '%s' but the artifact carries no value at its known location", expected)))
			continue
		}
		if !loc.exact {
			loc = heuristic.Locate(doc, placeholder)
			if !loc.found {
				issues = append(issues, core.NewFieldIssue(sheet, row.ID(), placeholder,
					fmt.Sprintf("expected value '%s' was not found anywhere in the artifact", expected)).AsLowConfidence())
				continue
			}
		}

		if !valuesEqual(expected, loc.value) {
			issue := core.NewFieldIssue(sheet, row.ID(), placeholder,
				fmt.Sprintf("expected value '%s' but the artifact carries '%s'", expected, loc.value))
			if !loc.exact {
				issue = issue.AsLowConfidence()
			}
			issues = append(issues, issue)
		}
	}
	return issues
}

// valuesEqual compares a workbook cell against an artifact value, trimmed.
// JSON list cells compare as sets against nothing here; they are covered by
// the allowed-value reconciliation instead.
func valuesEqual(expected, actual string) bool {
	expected = strings.TrimSpace(expected)
	actual = strings.TrimSpace(actual)
	if expected == actual {
		return true
	}
	// A JSON-list cell never matches a scalar attribute; treat list cells as
	// out of scope for scalar comparison.
	if strings.HasPrefix(expected, "[") {
		return true
	}
	return false
}
