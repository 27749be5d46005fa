package artifactcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"takforge/domain/core"
	"takforge/domain/tabular"
	"takforge/internal/schema"
	"takforge/internal/template"
)

const testXSD = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="numeric-raw-concept">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="numeric-allowed-values">
          <xs:complexType>
            <xs:attribute name="min" use="required"/>
            <xs:attribute name="max" use="required"/>
          </xs:complexType>
        </xs:element>
        <xs:element name="persistence"/>
      </xs:sequence>
      <xs:attribute name="id" use="required"/>
      <xs:attribute name="name" use="required"/>
    </xs:complexType>
  </xs:element>
  <xs:element name="nominal-raw-concept">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="nominal-allowed-values"/>
        <xs:element name="persistence"/>
      </xs:sequence>
      <xs:attribute name="id" use="required"/>
      <xs:attribute name="name" use="required"/>
    </xs:complexType>
  </xs:element>
  <xs:element name="state">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="derived-from"/>
        <xs:element name="mapping-function" minOccurs="0"/>
        <xs:element name="persistence" minOccurs="0"/>
      </xs:sequence>
      <xs:attribute name="id" use="required"/>
      <xs:attribute name="name" use="required"/>
    </xs:complexType>
  </xs:element>
  <xs:element name="widget">
    <xs:complexType>
      <xs:attribute name="id" use="required"/>
    </xs:complexType>
  </xs:element>
</xs:schema>`

var testTemplates = map[string]string{
	"numeric-raw-concept": `<numeric-raw-concept id="{ID}" name="{TAK_NAME}">
  <numeric-allowed-values min="{MIN_VALUE}" max="{MAX_VALUE}" unit="{UNIT}" scale="{SCALE}" granularity="{OUTPUT_GRANULARITY}"/>
  <persistence good-before="{GOOD_BEFORE}" good-before-unit="{GOOD_BEFORE_UNIT}" good-after="{GOOD_AFTER}" good-after-unit="{GOOD_AFTER_UNIT}"/>
</numeric-raw-concept>`,
	"nominal-raw-concept": `<nominal-raw-concept id="{ID}" name="{TAK_NAME}">
  <nominal-allowed-values/>
  <persistence good-before="{GOOD_BEFORE}" good-before-unit="{GOOD_BEFORE_UNIT}" good-after="{GOOD_AFTER}" good-after-unit="{GOOD_AFTER_UNIT}"/>
</nominal-raw-concept>`,
	"state-from-numeric": `<state id="{ID}" name="{TAK_NAME}">
  <derived-from idref="{DERIVED_FROM}"/>
  <mapping-function/>
</state>`,
}

func newTestChecker(t *testing.T) *TakChecker {
	t.Helper()

	s, err := schema.New(testXSD)
	require.NoError(t, err)

	dir := t.TempDir()
	for name, text := range testTemplates {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".xml"), []byte(text), 0o644))
	}

	concepts := &tabular.Sheet{
		Name:    core.SheetRawConcepts,
		Columns: []string{"ID", "TAK_NAME", "TYPE", "MIN_VALUE", "MAX_VALUE", "UNIT", "SCALE"},
		Rows: []tabular.Row{
			tabular.NewRow(2, map[string]string{
				"ID": "C1", "TAK_NAME": "GLUCOSE", "TYPE": "numeric-raw-concept",
				"MIN_VALUE": "0", "MAX_VALUE": "200", "UNIT": "mg/dL", "SCALE": "linear",
				"GOOD_BEFORE": "12", "GOOD_BEFORE_UNIT": "hour",
				"GOOD_AFTER": "6", "GOOD_AFTER_UNIT": "hour",
			}),
			tabular.NewRow(3, map[string]string{
				"ID": "C2", "TAK_NAME": "SEX", "TYPE": "nominal-raw-concept",
				"NOMINAL_VALUES": `["MALE","FEMALE"]`,
				"GOOD_BEFORE":    "24", "GOOD_BEFORE_UNIT": "hour",
				"GOOD_AFTER": "24", "GOOD_AFTER_UNIT": "hour",
			}),
			tabular.NewRow(4, map[string]string{
				"ID": "C3", "TAK_NAME": "HEART_RATE", "TYPE": "numeric-raw-concept",
				"MIN_VALUE": "20", "MAX_VALUE": "250", "UNIT": "bpm", "SCALE": "linear",
				"OUTPUT_GRANULARITY": "hour",
				"GOOD_BEFORE":        "2", "GOOD_BEFORE_UNIT": "hour",
				"GOOD_AFTER": "2", "GOOD_AFTER_UNIT": "hour",
			}),
		},
	}
	states := &tabular.Sheet{
		Name:    core.SheetStates,
		Columns: []string{"ID", "TAK_NAME", "DERIVED_FROM", "MAPPING", "STATE_LABELS"},
		Rows: []tabular.Row{
			tabular.NewRow(2, map[string]string{
				"ID": "S1", "TAK_NAME": "GLUCOSE_STATE", "DERIVED_FROM": "C1",
				"MAPPING":      `[[0,70],[70,140],[140,200]]`,
				"STATE_LABELS": `["LOW","NORMAL","HIGH"]`,
			}),
		},
	}

	return NewTakChecker(s, tabular.NewWorkbook(concepts, states), template.NewStore(dir))
}

func TestValidateNumericRoundTrip(t *testing.T) {
	c := newTestChecker(t)

	r := c.Validate(`<numeric-raw-concept id="C1" name="GLUCOSE">
  <numeric-allowed-values min="0" max="200" unit="mg/dL" scale="linear"/>
  <persistence good-before="12" good-before-unit="hour" good-after="6" good-after-unit="hour"/>
</numeric-raw-concept>`, "C1")

	assert.True(t, r.OK)
	assert.Empty(t, r.Issues)
	assert.Equal(t, CategoryNone, r.Category)
}

func TestValidateMalformedXML(t *testing.T) {
	c := newTestChecker(t)

	r := c.Validate(`<numeric-raw-concept id="C1"`, "C1")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryCritical, r.Category)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].String(), "XML syntax error")
}

func TestValidateSchemaViolation(t *testing.T) {
	c := newTestChecker(t)

	// Missing the required persistence element and the min attribute.
	r := c.Validate(`<numeric-raw-concept id="C1" name="GLUCOSE">
  <numeric-allowed-values max="200"/>
</numeric-raw-concept>`, "C1")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryCritical, r.Category)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].String(), "schema validation errors")
	assert.Contains(t, r.Issues[0].String(), "persistence")
	assert.Contains(t, r.Issues[0].String(), "'min'")
}

func TestValidateIdentityMismatch(t *testing.T) {
	c := newTestChecker(t)

	r := c.Validate(`<numeric-raw-concept id="C9" name="GLUCOSE">
  <numeric-allowed-values min="0" max="200"/>
  <persistence/>
</numeric-raw-concept>`, "C1")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryCritical, r.Category)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].String(), "declares id 'C9' but 'C1' was expected")
}

func TestValidateUnknownRootTag(t *testing.T) {
	c := newTestChecker(t)

	// widget is schema-declared but maps to no sheet.
	r := c.Validate(`<widget id="C1"/>`, "C1")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryCritical, r.Category)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].String(), "unrecognized TAK type with root tag <widget>")
}

func TestValidateRowNotFound(t *testing.T) {
	c := newTestChecker(t)

	r := c.Validate(`<numeric-raw-concept id="C9" name="GHOST">
  <numeric-allowed-values min="0" max="1"/>
  <persistence/>
</numeric-raw-concept>`, "C9")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryCritical, r.Category)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].String(), "no matching ID 'C9' found in sheet 'raw_concepts'")
}

func TestValidateMappingGapAndBoundaryDrift(t *testing.T) {
	c := newTestChecker(t)

	// The NORMAL bin starts at 75 instead of 70: a gap against LOW, and a
	// boundary value the workbook never declared.
	r := c.Validate(`<state id="S1" name="GLUCOSE_STATE">
  <derived-from idref="C1"/>
  <mapping-function>
    <bin label="LOW"><compare op="lt" value="70"/></bin>
    <bin label="NORMAL"><and><compare op="ge" value="75"/><compare op="lt" value="140"/></and></bin>
    <bin label="HIGH"><compare op="ge" value="140"/></bin>
  </mapping-function>
</state>`, "S1")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryBusiness, r.Category)

	texts := core.IssueStrings(r.Issues)
	assert.Contains(t, texts, "states: (ID=S1) gap between bin 'LOW' (upper 70) and bin 'NORMAL' (lower 75)")
	found := false
	for _, text := range texts {
		if text == "states: (ID=S1) mapping boundary 75 is present in the artifact but not in the workbook" {
			found = true
		}
	}
	assert.True(t, found, "expected the drifted boundary to be reported, got %v", texts)
	assert.False(t, r.AllIssuesLowConfidence())
}

func TestValidateMappingClean(t *testing.T) {
	c := newTestChecker(t)

	r := c.Validate(`<state id="S1" name="GLUCOSE_STATE">
  <derived-from idref="C1"/>
  <mapping-function>
    <bin label="LOW"><compare op="lt" value="70"/></bin>
    <bin label="NORMAL"><and><compare op="ge" value="70"/><compare op="lt" value="140"/></and></bin>
    <bin label="HIGH"><compare op="ge" value="140"/></bin>
  </mapping-function>
</state>`, "S1")

	assert.True(t, r.OK, "issues: %v", core.IssueStrings(r.Issues))
}

func TestValidateMissingMappingFunction(t *testing.T) {
	c := newTestChecker(t)

	r := c.Validate(`<state id="S1" name="GLUCOSE_STATE">
  <derived-from idref="C1"/>
</state>`, "S1")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryBusiness, r.Category)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].String(), "missing <mapping-function> element despite MAPPING specified in the workbook")
}

func TestValidateUndeclaredNominalValue(t *testing.T) {
	c := newTestChecker(t)

	r := c.Validate(`<nominal-raw-concept id="C2" name="SEX">
  <nominal-allowed-values>
    <value name="MALE"/>
    <value name="FEMALE"/>
    <value name="OTHER"/>
  </nominal-allowed-values>
  <persistence good-before="24" good-before-unit="hour" good-after="24" good-after-unit="hour"/>
</nominal-raw-concept>`, "C2")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryBusiness, r.Category)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].String(), "artifact lists value 'OTHER' that the workbook does not declare")
	assert.False(t, r.AllIssuesLowConfidence())
}

func TestValidateFixedPlaceholderMiss(t *testing.T) {
	c := newTestChecker(t)

	// unit is dropped from the allowed-values block; its location is fixed, so
	// the finding carries full confidence.
	r := c.Validate(`<numeric-raw-concept id="C1" name="GLUCOSE">
  <numeric-allowed-values min="0" max="200" scale="linear"/>
  <persistence good-before="12" good-before-unit="hour" good-after="6" good-after-unit="hour"/>
</numeric-raw-concept>`, "C1")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryBusiness, r.Category)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].String(), "'UNIT'")
	assert.Contains(t, r.Issues[0].String(), "carries no value at its known location")
	assert.False(t, r.AllIssuesLowConfidence())
}

func TestValidateHeuristicPlaceholderLowConfidence(t *testing.T) {
	c := newTestChecker(t)

	// OUTPUT_GRANULARITY has no fixed location; the heuristic matches the
	// trailing granularity attribute and flags the mismatch with the caveat.
	r := c.Validate(`<numeric-raw-concept id="C3" name="HEART_RATE">
  <numeric-allowed-values min="20" max="250" unit="bpm" scale="linear" granularity="day"/>
  <persistence good-before="2" good-before-unit="hour" good-after="2" good-after-unit="hour"/>
</numeric-raw-concept>`, "C3")

	assert.False(t, r.OK)
	assert.Equal(t, CategoryBusiness, r.Category)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].String(), "expected value 'hour' but the artifact carries 'day'")
	assert.Contains(t, r.Issues[0].String(), "this finding may be inaccurate")
	assert.True(t, r.AllIssuesLowConfidence())
}
