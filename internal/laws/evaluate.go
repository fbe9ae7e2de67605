package laws

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/big-brother/internal/facts"
)

// maxListedNames caps how many names a message spells out.
const maxListedNames = 5

type check func(sheet *facts.FactSheet, ctx Context) (Violation, bool)

// checks run in this order; the order only affects output ordering.
var checks = []check{
	checkMultiDef,
	checkReexportAll,
	checkEntry,
	checkSize,
}

// Evaluate applies every law to sheet and returns the violations found,
// at most one per law. The vetting marker is ignored here: vetted files
// yield the same violations as unvetted ones.
func Evaluate(sheet *facts.FactSheet, ctx Context) []Violation {
	var out []Violation
	for _, c := range checks {
		if v, ok := c(sheet, ctx); ok {
			v.Path = sheet.Path
			out = append(out, v)
		}
	}
	return out
}

// Unparsable is the single violation reported for a file that failed to parse.
func Unparsable(path string, err *facts.ParseError) Violation {
	v := Violation{
		Law:     LawUnparsable,
		Path:    path,
		Message: "cannot parse file",
	}
	if err != nil {
		v.Message = fmt.Sprintf("cannot parse file: syntax error at line %d", err.Line)
		v.StartLine = err.Line
		v.EndLine = err.Line
	}
	return v
}

// checkMultiDef: one public definition per file. Package entry points
// and tests are exempt; multiple definitions are expected there.
func checkMultiDef(sheet *facts.FactSheet, ctx Context) (Violation, bool) {
	if sheet.IsPackageInit || ctx.IsTest {
		return Violation{}, false
	}
	public := sheet.PublicDefinitions()
	if len(public) <= 1 {
		return Violation{}, false
	}
	return Violation{
		Law:         LawMultiDef,
		Message:     fmt.Sprintf("%d public defs, %d LOC (%s)", len(public), sheet.LOC, listNames(public)),
		Definitions: ranges(public),
	}, true
}

// checkReexportAll: a package entry point that passes imported names
// through must declare them in a literal __all__.
func checkReexportAll(sheet *facts.FactSheet, _ Context) (Violation, bool) {
	if !sheet.IsPackageInit {
		return Violation{}, false
	}
	passed := passThroughNames(sheet)
	if len(passed) == 0 {
		return Violation{}, false
	}

	switch sheet.All.State {
	case facts.AllLiteral:
		if len(sheet.All.Names) > 0 {
			return Violation{}, false
		}
		return Violation{
			Law:       LawMissingAll,
			Message:   fmt.Sprintf("re-exports with empty __all__ (%s)", joinNames(passed)),
			StartLine: sheet.All.Line,
			EndLine:   sheet.All.Line,
		}, true
	case facts.AllComputed:
		return Violation{
			Law:       LawUnverifiableAll,
			Message:   fmt.Sprintf("re-exports with computed __all__, contents unverifiable (%s)", joinNames(passed)),
			StartLine: sheet.All.Line,
			EndLine:   sheet.All.Line,
		}, true
	default:
		return Violation{
			Law:     LawMissingAll,
			Message: fmt.Sprintf("re-exports without __all__ (%s)", joinNames(passed)),
		}, true
	}
}

// passThroughNames are names bound by from-imports that nothing in the
// module reads: they exist only to be re-exposed.
func passThroughNames(sheet *facts.FactSheet) []string {
	used := sheet.UsedNames()
	var out []string
	for _, imp := range sheet.Imports {
		if !imp.From || imp.Future || imp.Wildcard {
			continue
		}
		for _, name := range imp.BoundNames() {
			if !used[name] {
				out = append(out, name)
			}
		}
	}
	return out
}

// checkEntry: entry files route to code defined elsewhere.
func checkEntry(sheet *facts.FactSheet, ctx Context) (Violation, bool) {
	if !ctx.IsEntry || ctx.IsTest || sheet.IsPackageInit {
		return Violation{}, false
	}
	var nonDispatch []facts.Definition
	for _, d := range sheet.Definitions {
		if !isDispatch(d.Name, ctx.DispatchNames) {
			nonDispatch = append(nonDispatch, d)
		}
	}
	if len(nonDispatch) <= MaxEntryDefs {
		return Violation{}, false
	}
	return Violation{
		Law:         LawEntry,
		Message:     fmt.Sprintf("%d defs in entry file (%s)", len(nonDispatch), listNames(nonDispatch)),
		Definitions: ranges(nonDispatch),
	}, true
}

// checkSize: source and test files have separate line ceilings.
func checkSize(sheet *facts.FactSheet, ctx Context) (Violation, bool) {
	limit, kind := ctx.SourceMax, "source"
	if ctx.IsTest {
		limit, kind = ctx.TestMax, "test"
	}
	if sheet.LOC <= limit {
		return Violation{}, false
	}
	return Violation{
		Law:     LawLOC,
		Message: fmt.Sprintf("%d lines (%s, limit %d, over by %d)", sheet.LOC, kind, limit, sheet.LOC-limit),
	}, true
}

func isDispatch(name string, dispatch []string) bool {
	for _, d := range dispatch {
		if d == name {
			return true
		}
	}
	return false
}

func ranges(defs []facts.Definition) []DefRange {
	out := make([]DefRange, 0, len(defs))
	for _, d := range defs {
		out = append(out, DefRange{Name: d.Name, StartLine: d.StartLine, EndLine: d.EndLine})
	}
	return out
}

func listNames(defs []facts.Definition) string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return joinNames(names)
}

func joinNames(names []string) string {
	if len(names) > maxListedNames {
		return strings.Join(names[:maxListedNames], ", ") + ", ..."
	}
	return strings.Join(names, ", ")
}
