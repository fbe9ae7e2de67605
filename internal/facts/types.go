package facts

import "strings"

// DefKind is the kind of a definition.
type DefKind string

const (
	KindFunction DefKind = "function"
	KindClass    DefKind = "class"
)

// Definition is a def, async def, or class statement.
type Definition struct {
	Name      string
	Kind      DefKind
	Async     bool
	StartLine int // first decorator line when decorated
	EndLine   int

	// FreeNames are identifiers read by the definition that are not bound
	// by its own parameters or body, sorted.
	FreeNames []string

	// Chains are the dotted reads rooted at a free name, sorted:
	// "xml.dom.minidom.parseString" for an attribute chain, the bare name
	// when it is read on its own.
	Chains []string

	// Globals are names the body declares with a global statement.
	Globals []string

	// Nested is true for definitions inside another definition. Nested
	// definitions never appear in FactSheet.Definitions.
	Nested   bool
	Children []Definition
}

// Public reports whether the name has no leading underscore.
func (d Definition) Public() bool {
	return !strings.HasPrefix(d.Name, "_")
}

// References reports whether name is one of the definition's free names.
func (d Definition) References(name string) bool {
	return containsSorted(d.FreeNames, name)
}

// ImportedName is one name pulled in by an import statement.
// For "import a.b as c" Path is "a.b" and Alias is "c"; for
// "from m import x as y" Path is "x" and Alias is "y".
type ImportedName struct {
	Path  string
	Alias string
}

// ImportRecord is one module-level import statement.
type ImportRecord struct {
	// Module is the source of a from-import, including leading dots for
	// relative imports. Empty for plain "import x" statements.
	Module    string
	From      bool
	Future    bool
	Wildcard  bool
	Names     []ImportedName
	StartLine int
	EndLine   int
}

// Bound returns the name the import binds in the importing namespace.
func (r ImportRecord) Bound(n ImportedName) string {
	if n.Alias != "" {
		return n.Alias
	}
	if r.From {
		return n.Path
	}
	if i := strings.IndexByte(n.Path, '.'); i >= 0 {
		return n.Path[:i]
	}
	return n.Path
}

// BoundNames returns every name the statement binds, in statement order.
func (r ImportRecord) BoundNames() []string {
	names := make([]string, 0, len(r.Names))
	for _, n := range r.Names {
		names = append(names, r.Bound(n))
	}
	return names
}

// Level is the number of leading dots of a relative from-import.
func (r ImportRecord) Level() int {
	return len(r.Module) - len(strings.TrimLeft(r.Module, "."))
}

// AllState distinguishes the three ways a module can declare __all__.
type AllState int

const (
	// AllAbsent means no module-level __all__ assignment exists.
	AllAbsent AllState = iota
	// AllLiteral means __all__ is a literal list or tuple of strings.
	AllLiteral
	// AllComputed means __all__ exists but its value is not a literal,
	// so its contents cannot be verified statically.
	AllComputed
)

func (s AllState) String() string {
	switch s {
	case AllLiteral:
		return "literal"
	case AllComputed:
		return "computed"
	default:
		return "absent"
	}
}

// AllDecl is the module's __all__ declaration.
type AllDecl struct {
	State AllState
	Names []string // only for AllLiteral
	Line  int
}

// Binding is a module-level assignment to one or more plain names.
type Binding struct {
	Names     []string
	StartLine int
	EndLine   int
	FreeNames []string
	Chains    []string
	Augmented bool

	// Constant is true when the value is an immutable literal, so a copy
	// behaves exactly like the original.
	Constant bool
}

// Statement is any other module-level statement: side-effect calls,
// guarded blocks, try/except import fallbacks and the like.
type Statement struct {
	Kind      string
	StartLine int
	EndLine   int
	Reads     []string
	Binds     []string
	MainGuard bool
}

// FactSheet is the structural description of one Python file.
type FactSheet struct {
	Path          string
	LOC           int
	Vetted        bool
	IsPackageInit bool
	Docstring     string

	Definitions []Definition
	Imports     []ImportRecord
	Bindings    []Binding
	Statements  []Statement
	All         AllDecl

	lines []string
}

// Lookup returns the top-level definition with the given name.
func (s *FactSheet) Lookup(name string) (Definition, int, bool) {
	for i, d := range s.Definitions {
		if d.Name == name {
			return d, i, true
		}
	}
	return Definition{}, -1, false
}

// PublicDefinitions returns the top-level definitions without a leading underscore.
func (s *FactSheet) PublicDefinitions() []Definition {
	var out []Definition
	for _, d := range s.Definitions {
		if d.Public() {
			out = append(out, d)
		}
	}
	return out
}

// Text returns the physical lines start..end (1-indexed, inclusive)
// joined with newlines and terminated by one.
func (s *FactSheet) Text(startLine, endLine int) string {
	text := extractLines(s.lines, startLine, endLine)
	if text == "" {
		return ""
	}
	return text + "\n"
}

// CommentStart returns the first line of the comment block directly
// above line, or line itself when there is none. Only unindented
// comments count; shebang, encoding and vetting marker lines never do.
func (s *FactSheet) CommentStart(line int) int {
	start := line
	for start > 1 && start-2 < len(s.lines) {
		text := strings.TrimRight(s.lines[start-2], "\r")
		if !strings.HasPrefix(text, "#") || strings.HasPrefix(text, "#!") || strings.Contains(text, VettingMarker) {
			break
		}
		if start-1 <= 2 && strings.Contains(text, "coding") {
			break
		}
		start--
	}
	return start
}

// UsedNames returns every name read by module-level code: definitions,
// bindings and other statements. Import statements and __all__ are excluded.
func (s *FactSheet) UsedNames() map[string]bool {
	used := make(map[string]bool)
	for _, d := range s.Definitions {
		for _, n := range d.FreeNames {
			used[n] = true
		}
	}
	for _, b := range s.Bindings {
		for _, n := range b.FreeNames {
			used[n] = true
		}
	}
	for _, st := range s.Statements {
		for _, n := range st.Reads {
			used[n] = true
		}
	}
	return used
}

func containsSorted(sorted []string, name string) bool {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case sorted[mid] == name:
			return true
		case sorted[mid] < name:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false
}
