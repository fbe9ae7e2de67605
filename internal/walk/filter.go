package walk

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, compiledPattern{pattern: p, glob: g})
	}
	return out, nil
}

// matchesAny reports whether relPath or its basename matches one of the
// patterns. A leading "**/" also matches files at the root.
func matchesAny(relPath string, patterns []compiledPattern) bool {
	base := path.Base(relPath)
	for _, cp := range patterns {
		if cp.glob.Match(relPath) || cp.glob.Match(base) {
			return true
		}
		if !strings.Contains(relPath, "/") && strings.HasPrefix(cp.pattern, "**/") {
			if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(relPath) {
				return true
			}
		}
	}
	return false
}

// Filter decides which paths under a scan root are candidates: Python
// files outside skipped directories that no ignore glob matches.
type Filter struct {
	skipDirs map[string]bool
	ignore   []compiledPattern
}

// NewFilter compiles the ignore globs. skipDirs are directory names
// never descended into.
func NewFilter(skipDirs, ignore []string) (*Filter, error) {
	patterns, err := compilePatterns(ignore)
	if err != nil {
		return nil, err
	}
	f := &Filter{
		skipDirs: make(map[string]bool, len(skipDirs)),
		ignore:   patterns,
	}
	for _, name := range skipDirs {
		f.skipDirs[name] = true
	}
	return f, nil
}

// SkipDir reports whether a directory with this base name is skipped.
func (f *Filter) SkipDir(name string) bool {
	return f.skipDirs[name]
}

// Keep reports whether the slash-separated path relative to the root is
// a candidate file.
func (f *Filter) Keep(relPath string) bool {
	if !isPython(relPath) {
		return false
	}
	for _, part := range strings.Split(path.Dir(relPath), "/") {
		if f.skipDirs[part] {
			return false
		}
	}
	return !f.ignored(relPath)
}

// ignored checks the file and, for directory globs such as "build/**",
// each of its parent directories.
func (f *Filter) ignored(relPath string) bool {
	if matchesAny(relPath, f.ignore) {
		return true
	}
	for dir := path.Dir(relPath); dir != "." && dir != "/"; dir = path.Dir(dir) {
		for _, cp := range f.ignore {
			if cp.glob.Match(dir+"/**") || cp.glob.Match(dir) {
				return true
			}
		}
	}
	return false
}

func isPython(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".py")
}
