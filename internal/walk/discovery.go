package walk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// Discovery finds the Python files under a root.
type Discovery struct {
	fs      afero.Fs
	rootDir string
	filter  *Filter
}

// NewDiscovery creates a discovery for rootDir. skipDirs are directory
// names never descended into; ignore globs drop files by basename or by
// path relative to rootDir.
func NewDiscovery(fs afero.Fs, rootDir string, skipDirs, ignore []string) (*Discovery, error) {
	filter, err := NewFilter(skipDirs, ignore)
	if err != nil {
		return nil, err
	}
	return &Discovery{fs: fs, rootDir: rootDir, filter: filter}, nil
}

// Root returns the directory being walked.
func (d *Discovery) Root() string {
	return d.rootDir
}

// Discover walks the tree and returns *.py paths relative to the root,
// slash-separated and in lexical order. A root that is itself a .py file
// yields its own base name.
func (d *Discovery) Discover() ([]string, error) {
	info, err := d.fs.Stat(d.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", d.rootDir, err)
	}
	if !info.IsDir() {
		if !isPython(d.rootDir) {
			return nil, fmt.Errorf("%s is not a Python file", d.rootDir)
		}
		return []string{filepath.Base(d.rootDir)}, nil
	}

	files := []string{}
	err = afero.Walk(d.fs, d.rootDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if p != d.rootDir && d.filter.SkipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(d.rootDir, p)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.filter.Keep(relPath) {
			files = append(files, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Abs joins a relative path from Discover back onto the root.
func (d *Discovery) Abs(relPath string) string {
	info, err := d.fs.Stat(d.rootDir)
	if err == nil && !info.IsDir() {
		return d.rootDir
	}
	return filepath.Join(d.rootDir, filepath.FromSlash(relPath))
}
