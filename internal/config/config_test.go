package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsInTestMode(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, 3, cfg.Loop.MaxAttempts)
	assert.Equal(t, "file", cfg.Registry.Backend)
	assert.True(t, cfg.Loop.TestMode)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "takforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
oracle:
  model: gpt-4o-mini
  api_key: from-file
loop:
  max_attempts: 5
paths:
  workbook_file: defs.xlsx
`), 0o644))

	t.Setenv("LLM_MODEL", "gpt-4.1")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Environment wins over the file; the file wins over defaults.
	assert.Equal(t, "gpt-4.1", cfg.Oracle.Model)
	assert.Equal(t, "from-file", cfg.Oracle.APIKey)
	assert.Equal(t, 5, cfg.Loop.MaxAttempts)
	assert.Equal(t, "defs.xlsx", cfg.Paths.WorkbookFile)
	assert.Equal(t, "output", cfg.Paths.OutputDir)
}

func TestLoadRejectsMissingKeyOutsideTestMode(t *testing.T) {
	t.Setenv("TEST_MODE", "false")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	t.Setenv("REGISTRY_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
