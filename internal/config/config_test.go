package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	want := DefaultConfig()
	assert.Equal(t, want, cfg)
	assert.Empty(t, cfg.File)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	writeFile(t, path, `
specs: api/specs
output: src
workers: 2
conflict: Force
verbose: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "api/specs", cfg.Specs)
	assert.Equal(t, "src", cfg.Output)
	assert.Equal(t, "python/v1", cfg.Templates)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, ConflictForce, cfg.Conflict)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	writeFile(t, path, "workers: 2\noutput: src\n")
	t.Setenv("QUILL_WORKERS", "7")
	t.Setenv("QUILL_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "src", cfg.Output)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "output: src\n")
	writeFile(t, filepath.Join(dir, ".env"), "QUILL_OUTPUT=generated\nQUILL_TEMPLATES=python/v1\n")
	t.Cleanup(func() {
		os.Unsetenv("QUILL_OUTPUT")
		os.Unsetenv("QUILL_TEMPLATES")
	})

	cfg, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, "generated", cfg.Output)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "")
	writeFile(t, filepath.Join(dir, ".env"), "QUILL_SPECS=from-dotenv\n")
	t.Setenv("QUILL_SPECS", "from-env")

	cfg, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Specs)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad conflict", "conflict: ask\n", `conflict must be one of [skip force diff interactive], got "ask"`},
		{"zero workers", "workers: 0\n", "workers must be between 1 and 256, got 0"},
		{"bad log level", "log_level: loud\n", "log_level must be one of"},
		{"empty specs", "specs: \"\"\n", "specs is required"},
		{"broken yaml", "workers: [\n", "failed to read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.content)

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yml")
}

func TestConflictMode(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ConflictInteractive, cfg.ConflictMode(true))
	assert.Equal(t, ConflictSkip, cfg.ConflictMode(false))

	cfg.Conflict = ConflictDiff
	assert.Equal(t, ConflictDiff, cfg.ConflictMode(true))
}
