package takcheck

import "takforge/domain/core"

// Well-known field names used across sheets.
const (
	FieldID          = "ID"
	FieldTakName     = "TAK_NAME"
	FieldType        = "TYPE"
	FieldDerivedFrom = "DERIVED_FROM"
	FieldAttributes  = "ATTRIBUTES"
	FieldInducerID   = "INDUCER_ID"
	FieldMapping     = "MAPPING"
	FieldStateLabels = "STATE_LABELS"

	FieldMinValue      = "MIN_VALUE"
	FieldMaxValue      = "MAX_VALUE"
	FieldUnit          = "UNIT"
	FieldScale         = "SCALE"
	FieldNominalValues = "NOMINAL_VALUES"

	FieldFromBoundary       = "FROM_BOUNDARY"
	FieldFromShift          = "FROM_SHIFT"
	FieldFromGranularity    = "FROM_GRANULARITY"
	FieldUntilBoundary      = "UNTIL_BOUNDARY"
	FieldUntilShift         = "UNTIL_SHIFT"
	FieldUntilGranularity   = "UNTIL_GRANULARITY"
	FieldClipperID          = "CLIPPER_ID"
	FieldClipperBoundary    = "CLIPPER_BOUNDARY"
	FieldClipperShift       = "CLIPPER_SHIFT"
	FieldClipperGranularity = "CLIPPER_GRANULARITY"
)

// persistenceColumns are the temporal-semantic columns every definition sheet
// carries (good-before/good-after windows plus the six semantic flags).
var persistenceColumns = []string{
	"GOOD_BEFORE", "GOOD_BEFORE_UNIT", "GOOD_AFTER", "GOOD_AFTER_UNIT",
	"downward-hereditary", "forward", "backward", "solid", "concatenable", "gestalt",
}

// requiredColumns is the fixed required-column set per sheet type. A missing
// column is reported once, sheet-wide, and suppresses per-row checks.
var requiredColumns = map[core.SheetName][]string{
	core.SheetRawConcepts: append([]string{FieldID, FieldTakName, FieldType}, persistenceColumns...),
	core.SheetStates: append([]string{
		FieldID, FieldTakName, FieldDerivedFrom,
		"Mapping_Rank_Selection_Criteria", FieldMapping, FieldStateLabels,
	}, persistenceColumns...),
	core.SheetEvents:   {FieldID, FieldTakName, FieldAttributes},
	core.SheetContexts: {FieldID, FieldTakName, FieldInducerID},
	core.SheetTrends:   {FieldID, FieldTakName, FieldDerivedFrom},
}

// RequiredColumns exposes the required set for a sheet type.
func RequiredColumns(sheet core.SheetName) []string {
	return append([]string(nil), requiredColumns[sheet]...)
}

// referenceTargets lists, per sheet and reference field, the sheets whose IDs
// the field's comma-separated entries may point at.
var referenceTargets = map[core.SheetName]map[string][]core.SheetName{
	core.SheetStates: {
		FieldDerivedFrom: {core.SheetRawConcepts, core.SheetEvents},
	},
	core.SheetEvents: {
		FieldAttributes: {core.SheetRawConcepts, core.SheetEvents},
	},
	core.SheetContexts: {
		FieldInducerID: {core.SheetRawConcepts, core.SheetStates, core.SheetEvents},
	},
	core.SheetTrends: {
		FieldDerivedFrom: {core.SheetRawConcepts, core.SheetStates, core.SheetEvents},
	},
}
