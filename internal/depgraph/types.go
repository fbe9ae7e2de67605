package depgraph

// Resolution says where a free name of a definition comes from.
type Resolution int

const (
	// Unresolved names are neither module bindings nor builtins.
	Unresolved Resolution = iota
	ResolvedDefinition
	ResolvedImport
	ResolvedBinding
	ResolvedBuiltin
)

func (r Resolution) String() string {
	switch r {
	case ResolvedDefinition:
		return "definition"
	case ResolvedImport:
		return "import"
	case ResolvedBinding:
		return "binding"
	case ResolvedBuiltin:
		return "builtin"
	default:
		return "unresolved"
	}
}

// Edge records that From reads To at module scope.
type Edge struct {
	From string
	To   string
}

// ImportUse is the part of one ImportRecord a definition needs.
type ImportUse struct {
	Index int      // position in FactSheet.Imports
	Names []string // bound names actually referenced, in statement order
}

// UnresolvedRef is a free name that could not be attributed.
type UnresolvedRef struct {
	Name string
	// BoundByStatement is true when a module-level statement other than a
	// plain assignment binds the name (try/except imports, loops, ...).
	BoundByStatement bool
}

// Needs is what a piece of module-level code requires from the rest of its module.
type Needs struct {
	Definitions []string
	Imports     []ImportUse
	Bindings    []int // indexes into FactSheet.Bindings, sorted
	Unresolved  []UnresolvedRef
}
