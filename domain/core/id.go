package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Domain-specific ID types
type (
	// TakID is the workbook-declared identifier of one TAK definition row.
	TakID ID
	// TakName is the workbook-declared human-readable TAK name.
	TakName ID
	// SheetName names one sheet of the tabular source.
	SheetName ID
	// RunID identifies one generation run.
	RunID ID
)

// String conversions for domain IDs
func (id TakID) String() string     { return ID(id).String() }
func (id TakName) String() string   { return ID(id).String() }
func (id SheetName) String() string { return ID(id).String() }
func (id RunID) String() string     { return ID(id).String() }

// NewRunID mints a run identifier for one control-loop execution.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseTakID parses a string into TakID
func ParseTakID(s string) (TakID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("TAK ID cannot be empty")
	}
	return TakID(strings.TrimSpace(s)), nil
}

// ParseTakName parses a string into TakName
func ParseTakName(s string) (TakName, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("TAK name cannot be empty")
	}
	return TakName(strings.TrimSpace(s)), nil
}

// Recognized sheets of the tabular source, in processing order.
const (
	SheetRawConcepts SheetName = "raw_concepts"
	SheetStates      SheetName = "states"
	SheetEvents      SheetName = "events"
	SheetContexts    SheetName = "contexts"
	SheetTrends      SheetName = "trends"
)

// SheetOrder is the fixed processing order for validation and generation.
func SheetOrder() []SheetName {
	return []SheetName{SheetRawConcepts, SheetStates, SheetEvents, SheetContexts, SheetTrends}
}

// ConceptType classifies one TAK row and decides which companion fields are mandatory.
type ConceptType string

const (
	ConceptNumeric ConceptType = "numeric-raw-concept"
	ConceptNominal ConceptType = "nominal-raw-concept"
	ConceptTime    ConceptType = "time-raw-concept"
	ConceptState   ConceptType = "state"
	ConceptEvent   ConceptType = "event"
	ConceptContext ConceptType = "context"
	ConceptTrend   ConceptType = "trend"
)

// ParseConceptType normalizes a raw TYPE cell (trimmed, lower-cased).
func ParseConceptType(s string) ConceptType {
	return ConceptType(strings.ToLower(strings.TrimSpace(s)))
}

// SheetForRootTag maps an artifact root tag to the sheet that defines it.
// Returns false for tags that map to no known sheet.
func SheetForRootTag(tag string) (SheetName, bool) {
	switch tag {
	case string(ConceptNumeric), string(ConceptNominal), string(ConceptTime):
		return SheetRawConcepts, true
	case string(ConceptState):
		return SheetStates, true
	case string(ConceptEvent):
		return SheetEvents, true
	case string(ConceptContext):
		return SheetContexts, true
	case string(ConceptTrend):
		return SheetTrends, true
	}
	return "", false
}
