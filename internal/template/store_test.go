package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"takforge/domain/core"
	"takforge/domain/tabular"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameForRow(t *testing.T) {
	numeric := tabular.NewRow(2, map[string]string{"TYPE": "numeric-raw-concept"})
	assert.Equal(t, "numeric-raw-concept", NameForRow(core.SheetRawConcepts, numeric))

	withMapping := tabular.NewRow(2, map[string]string{"MAPPING": "[[0,1]]"})
	assert.Equal(t, "state-from-numeric", NameForRow(core.SheetStates, withMapping))

	withoutMapping := tabular.NewRow(2, map[string]string{})
	assert.Equal(t, "state-from-nominal", NameForRow(core.SheetStates, withoutMapping))

	assert.Equal(t, "event", NameForRow(core.SheetEvents, tabular.NewRow(2, nil)))
	assert.Equal(t, "context", NameForRow(core.SheetContexts, tabular.NewRow(2, nil)))
	assert.Equal(t, "trend", NameForRow(core.SheetTrends, tabular.NewRow(2, nil)))
}

func TestStore_LoadAndPlaceholders(t *testing.T) {
	dir := t.TempDir()
	text := `<event id="{ID}" name="{TAK_NAME}"><attributes>{ATTRIBUTES}</attributes><note>{ID}</note></event>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "event.xml"), []byte(text), 0o644))

	store := NewStore(dir)
	tmpl, err := store.Load("event")
	require.NoError(t, err)
	assert.Equal(t, text, tmpl.Text)
	// Distinct placeholders in first-appearance order.
	assert.Equal(t, []string{"ID", "TAK_NAME", "ATTRIBUTES"}, tmpl.Placeholders())
}

func TestStore_MissingTemplateIsHardFailure(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load("state-from-numeric")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrTemplateNotFound))
}
