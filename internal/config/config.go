package config

import (
	"github.com/mvp-joe/big-brother/internal/laws"
)

// FileName is the base name of the per-project config file (.bigbrother.yml
// or .bigbrother.yaml in the scan root).
const FileName = ".bigbrother"

// Config represents the complete big-brother configuration.
// It can be loaded from .bigbrother.yml with environment variable overrides.
type Config struct {
	// Ignore is an ordered list of globs matched against a file's basename
	// and its path relative to the scan root.
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`

	SourceMax int `yaml:"source_max" mapstructure:"source_max"` // LOC limit for source files
	TestMax   int `yaml:"test_max" mapstructure:"test_max"`     // LOC limit for test files

	EntryPatterns []string `yaml:"entry_patterns" mapstructure:"entry_patterns"` // basename globs for entry files
	TestPatterns  []string `yaml:"test_patterns" mapstructure:"test_patterns"`   // globs on the lowercased relative path
	SkipDirs      []string `yaml:"skip_dirs" mapstructure:"skip_dirs"`           // directory names never descended into
	DispatchNames []string `yaml:"dispatch_names" mapstructure:"dispatch_names"` // definitions an entry file may hold

	Workers int `yaml:"workers" mapstructure:"workers"` // parallel file scans
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Ignore:    []string{},
		SourceMax: laws.DefaultSourceMax,
		TestMax:   laws.DefaultTestMax,
		EntryPatterns: []string{
			"main.*",
			"index.*",
			"app.*",
			"server.*",
			"run.*",
			"start.*",
			"entry.*",
			"bootstrap.*",
			"__main__.py",
			"setup.py",
		},
		TestPatterns: []string{"**test**"},
		SkipDirs: []string{
			".git",
			"__pycache__",
			".venv",
			"venv",
			"node_modules",
			".tox",
			".mypy_cache",
		},
		DispatchNames: []string{"main"},
		Workers:       8,
	}
}

// LawContext returns the evaluation context for one file under this config.
func (c *Config) LawContext(isEntry, isTest bool) laws.Context {
	return laws.Context{
		IsEntry:       isEntry,
		IsTest:        isTest,
		SourceMax:     c.SourceMax,
		TestMax:       c.TestMax,
		DispatchNames: append([]string(nil), c.DispatchNames...),
	}
}
