package splitter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Write materializes pkg under pkg.Dir. Every file is written to a
// temporary sibling directory first, which is renamed onto pkg.Dir only
// after all writes succeed, so a failure never leaves an importable
// partial package behind. Write refuses to replace an existing directory.
func Write(fs afero.Fs, pkg *Package) error {
	if pkg.Dir == "" {
		return fmt.Errorf("package has no target directory")
	}

	exists, err := afero.Exists(fs, pkg.Dir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", pkg.Dir, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTargetExists, pkg.Dir)
	}

	names := make(map[string]string)
	for _, f := range pkg.AllFiles() {
		key := strings.ToLower(f.Name)
		if other, ok := names[key]; ok {
			return fmt.Errorf("%w: %s and %s", ErrCaseCollision, other, f.Name)
		}
		names[key] = f.Name
	}

	parent := filepath.Dir(pkg.Dir)
	if err := fs.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", parent, err)
	}

	staging, err := afero.TempDir(fs, parent, "."+filepath.Base(pkg.Dir)+".split-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	published := false
	defer func() {
		if !published {
			_ = fs.RemoveAll(staging)
		}
	}()

	for _, f := range pkg.AllFiles() {
		target := filepath.Join(staging, f.Name)
		if err := afero.WriteFile(fs, target, []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}

	if err := fs.Rename(staging, pkg.Dir); err != nil {
		return fmt.Errorf("failed to publish %s: %w", pkg.Dir, err)
	}
	published = true
	return nil
}

// WriteSafe writes pkg only when it carries no warnings.
func WriteSafe(fs afero.Fs, pkg *Package) error {
	if !pkg.Safe() {
		return fmt.Errorf("%w: %d warning(s)", ErrUnsafe, len(pkg.Warnings))
	}
	return Write(fs, pkg)
}
