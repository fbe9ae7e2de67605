package walk

import (
	"strings"
)

// Classifier decides which laws apply to a file: entry files get the
// entry-point law, test files the test LOC limit.
type Classifier struct {
	entry []compiledPattern
	test  []compiledPattern
}

// NewClassifier compiles entry patterns (matched on the basename) and test
// patterns (matched on the lowercased relative path).
func NewClassifier(entryPatterns, testPatterns []string) (*Classifier, error) {
	entry, err := compilePatterns(entryPatterns)
	if err != nil {
		return nil, err
	}
	test, err := compilePatterns(lower(testPatterns))
	if err != nil {
		return nil, err
	}
	return &Classifier{entry: entry, test: test}, nil
}

// IsEntry reports whether relPath is an entry point.
func (c *Classifier) IsEntry(relPath string) bool {
	base := relPath
	if i := strings.LastIndexByte(relPath, '/'); i >= 0 {
		base = relPath[i+1:]
	}
	for _, cp := range c.entry {
		if cp.glob.Match(base) {
			return true
		}
	}
	return false
}

// IsTest reports whether relPath is a test file.
func (c *Classifier) IsTest(relPath string) bool {
	return matchesAny(strings.ToLower(relPath), c.test)
}

func lower(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = strings.ToLower(p)
	}
	return out
}
