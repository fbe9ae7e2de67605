package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (BB_SOURCE_MAX, BB_WORKERS, ...).
const EnvPrefix = "BB"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given scan root.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (BB_*)
// 2. Config file (.bigbrother.yml or .bigbrother.yaml in the root)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(l.rootDir)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{"source_max", "test_max", "workers"} {
		_ = v.BindEnv(key)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated list overrides: BB_IGNORE="build/**,*_pb2.py"
	for key, dst := range map[string]*[]string{
		"IGNORE":         &cfg.Ignore,
		"ENTRY_PATTERNS": &cfg.EntryPatterns,
		"TEST_PATTERNS":  &cfg.TestPatterns,
		"SKIP_DIRS":      &cfg.SkipDirs,
		"DISPATCH_NAMES": &cfg.DispatchNames,
	} {
		if raw, ok := os.LookupEnv(EnvPrefix + "_" + key); ok {
			*dst = splitList(raw)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("ignore", defaults.Ignore)
	v.SetDefault("source_max", defaults.SourceMax)
	v.SetDefault("test_max", defaults.TestMax)
	v.SetDefault("entry_patterns", defaults.EntryPatterns)
	v.SetDefault("test_patterns", defaults.TestPatterns)
	v.SetDefault("skip_dirs", defaults.SkipDirs)
	v.SetDefault("dispatch_names", defaults.DispatchNames)
	v.SetDefault("workers", defaults.Workers)
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadConfigFromDir loads configuration for the scan root rootDir.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
