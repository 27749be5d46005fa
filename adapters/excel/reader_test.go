package excel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"takforge/domain/core"
)

func TestBuildSheet(t *testing.T) {
	sheet := buildSheet(core.SheetRawConcepts, [][]string{
		{" ID ", "TAK_NAME", "TYPE", ""},
		{"C1", " GLUCOSE ", "numeric-raw-concept"},
		{"", "", ""},
		{"C2", "SEX"},
	})

	assert.Equal(t, []string{"ID", "TAK_NAME", "TYPE"}, sheet.Columns)
	assert.Len(t, sheet.Rows, 2)

	first := sheet.Rows[0]
	assert.Equal(t, 2, first.Number)
	assert.Equal(t, core.TakID("C1"), first.ID())
	assert.Equal(t, "GLUCOSE", first.Get("TAK_NAME"))

	// The empty row is dropped but numbering still tracks the workbook.
	second := sheet.Rows[1]
	assert.Equal(t, 4, second.Number)
	assert.Equal(t, core.TakID("C2"), second.ID())
	assert.Equal(t, "", second.Get("TYPE"))
}

func TestBuildSheetEmpty(t *testing.T) {
	sheet := buildSheet(core.SheetEvents, nil)
	assert.Empty(t, sheet.Columns)
	assert.Empty(t, sheet.Rows)
}
