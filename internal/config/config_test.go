package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .bigbrother.yml and .bigbrother.yaml from the root
// - Load() merges a partial config file with defaults
// - Environment variables override config file values
// - List environment variables are comma separated
// - Load() returns error for malformed YAML
// - Load() returns error for invalid configuration values
// - Validate() rejects non-positive limits and worker counts
// - Validate() rejects malformed globs and blank dispatch names
// - Validate() reports every invalid field at once
// - LawContext() threads limits and dispatch names into laws.Context

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 800, cfg.SourceMax)
	assert.Equal(t, 500, cfg.TestMax)
	assert.Empty(t, cfg.Ignore)
	assert.Contains(t, cfg.EntryPatterns, "__main__.py")
	assert.Contains(t, cfg.EntryPatterns, "main.*")
	assert.Equal(t, []string{"**test**"}, cfg.TestPatterns)
	assert.Contains(t, cfg.SkipDirs, "__pycache__")
	assert.Equal(t, []string{"main"}, cfg.DispatchNames)
	assert.Positive(t, cfg.Workers)

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	expected := Default()
	assert.Empty(t, cfg.Ignore)
	assert.Equal(t, expected.SourceMax, cfg.SourceMax)
	assert.Equal(t, expected.TestMax, cfg.TestMax)
	assert.Equal(t, expected.EntryPatterns, cfg.EntryPatterns)
	assert.Equal(t, expected.TestPatterns, cfg.TestPatterns)
	assert.Equal(t, expected.Workers, cfg.Workers)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{".bigbrother.yml", ".bigbrother.yaml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeConfig(t, dir, name, `
ignore:
  - "migrations/**"
  - "*_pb2.py"
source_max: 600
test_max: 400
dispatch_names: [main, cli]
workers: 2
`)

			cfg, err := NewLoader(dir).Load()
			require.NoError(t, err)

			assert.Equal(t, []string{"migrations/**", "*_pb2.py"}, cfg.Ignore)
			assert.Equal(t, 600, cfg.SourceMax)
			assert.Equal(t, 400, cfg.TestMax)
			assert.Equal(t, []string{"main", "cli"}, cfg.DispatchNames)
			assert.Equal(t, 2, cfg.Workers)
		})
	}
}

func TestLoad_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, ".bigbrother.yml", "source_max: 1000\n")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	defaults := Default()
	assert.Equal(t, 1000, cfg.SourceMax)
	assert.Equal(t, defaults.TestMax, cfg.TestMax)
	assert.Equal(t, defaults.EntryPatterns, cfg.EntryPatterns)
	assert.Equal(t, defaults.SkipDirs, cfg.SkipDirs)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	// t.Setenv forbids t.Parallel
	dir := t.TempDir()
	writeConfig(t, dir, ".bigbrother.yml", "source_max: 1000\nworkers: 3\n")

	t.Setenv("BB_SOURCE_MAX", "1200")
	t.Setenv("BB_IGNORE", "build/**, generated/*.py ,")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 1200, cfg.SourceMax)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, []string{"build/**", "generated/*.py"}, cfg.Ignore)
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, ".bigbrother.yml", "ignore: [unterminated\n")

	_, err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, ".bigbrother.yml", "test_max: 0\n")

	_, err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero source max", func(c *Config) { c.SourceMax = 0 }, ErrInvalidLimit},
		{"negative test max", func(c *Config) { c.TestMax = -5 }, ErrInvalidLimit},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"unclosed class in ignore", func(c *Config) { c.Ignore = []string{"[abc"} }, ErrInvalidPattern},
		{"blank entry pattern", func(c *Config) { c.EntryPatterns = []string{" "} }, ErrInvalidPattern},
		{"unclosed class in test pattern", func(c *Config) { c.TestPatterns = []string{"test["} }, ErrInvalidPattern},
		{"blank dispatch name", func(c *Config) { c.DispatchNames = []string{"main", ""} }, ErrEmptyDispatchName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.SourceMax = 0
	cfg.Workers = -1
	cfg.Ignore = []string{"[x"}

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	assert.ErrorIs(t, err, ErrInvalidWorkers)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestLawContext(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.SourceMax = 300
	cfg.DispatchNames = []string{"main", "run"}

	ctx := cfg.LawContext(true, false)
	assert.True(t, ctx.IsEntry)
	assert.False(t, ctx.IsTest)
	assert.Equal(t, 300, ctx.SourceMax)
	assert.Equal(t, 500, ctx.TestMax)
	assert.Equal(t, []string{"main", "run"}, ctx.DispatchNames)

	// the context owns its slice
	ctx.DispatchNames[0] = "other"
	assert.Equal(t, "main", cfg.DispatchNames[0])
}
