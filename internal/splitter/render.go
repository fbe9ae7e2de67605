package splitter

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mvp-joe/big-brother/internal/facts"
)

// renderImport rebuilds one import statement with only the names in keep.
// Relative from-imports gain shift leading dots.
func renderImport(rec facts.ImportRecord, keep map[string]bool, shift int) string {
	module := rec.Module
	if rec.From && rec.Level() > 0 {
		module = strings.Repeat(".", shift) + module
	}
	if rec.Wildcard {
		return "from " + module + " import *"
	}

	var parts []string
	for _, n := range rec.Names {
		if !keep[rec.Bound(n)] {
			continue
		}
		part := n.Path
		if n.Alias != "" {
			part += " as " + n.Alias
		}
		parts = append(parts, part)
	}

	if rec.From {
		return "from " + module + " import " + strings.Join(parts, ", ")
	}
	return "import " + strings.Join(parts, ", ")
}

// renderSiblingImports imports definitions that moved to other modules
// of the package, one line per definition, sorted by name.
func renderSiblingImports(siblings map[string]string) string {
	names := make([]string, 0, len(siblings))
	for name := range siblings {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString("from .")
		b.WriteString(siblings[name])
		b.WriteString(" import ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return b.String()
}

// pyList renders a Python list literal of strings.
func pyList(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, strconv.Quote(n))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// tidy trims leading blank lines, keeps at most two blank lines in a
// row, and ends the text with exactly one newline.
func tidy(text string) string {
	text = strings.TrimLeft(text, "\n")
	for strings.Contains(text, "\n\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n\n", "\n\n\n")
	}
	return strings.TrimRight(text, "\n") + "\n"
}

var scriptDirPattern = regexp.MustCompile(`(=\s*)os\.path\.dirname\(os\.path\.abspath\(__file__\)\)`)

// fixScriptDir keeps SCRIPT_DIR-style constants pointing at the original
// directory once the module moves one level down into the package.
func fixScriptDir(text string) string {
	return scriptDirPattern.ReplaceAllString(text, "${1}os.path.dirname(os.path.dirname(os.path.abspath(__file__)))")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
