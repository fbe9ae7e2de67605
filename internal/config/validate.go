package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidLimit indicates a non-positive LOC limit
	ErrInvalidLimit = errors.New("invalid line limit")

	// ErrInvalidPattern indicates a glob that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrEmptyDispatchName indicates a blank entry in dispatch_names
	ErrEmptyDispatchName = errors.New("empty dispatch name")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateLimits(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validatePatterns("ignore", cfg.Ignore); err != nil {
		errs = append(errs, err)
	}
	if err := validatePatterns("entry_patterns", cfg.EntryPatterns); err != nil {
		errs = append(errs, err)
	}
	if err := validatePatterns("test_patterns", cfg.TestPatterns); err != nil {
		errs = append(errs, err)
	}

	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	for i, name := range cfg.DispatchNames {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("%w: dispatch_names[%d]", ErrEmptyDispatchName, i))
		}
	}

	return errors.Join(errs...)
}

func validateLimits(cfg *Config) error {
	var errs []error

	if cfg.SourceMax <= 0 {
		errs = append(errs, fmt.Errorf("%w: source_max must be positive, got %d", ErrInvalidLimit, cfg.SourceMax))
	}
	if cfg.TestMax <= 0 {
		errs = append(errs, fmt.Errorf("%w: test_max must be positive, got %d", ErrInvalidLimit, cfg.TestMax))
	}

	return errors.Join(errs...)
}

func validatePatterns(field string, patterns []string) error {
	var errs []error

	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("%w: %s[%d] is empty", ErrInvalidPattern, field, i))
			continue
		}
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s[%d] %q: %v", ErrInvalidPattern, field, i, p, err))
		}
	}

	return errors.Join(errs...)
}
