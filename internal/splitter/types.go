package splitter

import (
	"errors"
)

var (
	// ErrNothingToSplit indicates the file has fewer than two top-level definitions
	ErrNothingToSplit = errors.New("nothing to split")

	// ErrTargetExists indicates the output directory already exists
	ErrTargetExists = errors.New("target directory already exists")

	// ErrUnsafe indicates a write was refused because the plan carries warnings
	ErrUnsafe = errors.New("split plan has warnings")

	// ErrCaseCollision indicates two file names that differ only in case
	ErrCaseCollision = errors.New("file names differ only in case")
)

// WarningKind classifies why a split cannot be trusted blindly.
type WarningKind string

const (
	// WarnUnresolvedReference: a free name is neither an import, a sibling
	// definition, a module binding, nor a builtin.
	WarnUnresolvedReference WarningKind = "unresolved-reference"

	// WarnSharedState: module state cannot stay a single object: a
	// definition rebinds it with a global statement, or it is read by
	// several modules and refers to definitions, so each gets a copy.
	WarnSharedState WarningKind = "shared-state"

	// WarnDroppedStatement: a module-level statement has no place in the package.
	WarnDroppedStatement WarningKind = "dropped-statement"

	// WarnRelativeImport: relative imports cannot be re-pointed because the
	// output directory is not next to the original module.
	WarnRelativeImport WarningKind = "relative-import"

	// WarnWildcardImport: a star import may be supplying unresolved names.
	WarnWildcardImport WarningKind = "wildcard-import"

	// WarnCaseCollision: two modules differ only in case.
	WarnCaseCollision WarningKind = "case-collision"
)

// Warning is one reason the generated package may not behave like the original.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	Definition string      `json:"definition,omitempty"`
	Name       string      `json:"name,omitempty"`
	Line       int         `json:"line,omitempty"`
	Message    string      `json:"message"`
}

// File is one generated module.
type File struct {
	Name        string   `json:"name"` // relative to Package.Dir
	Definitions []string `json:"definitions,omitempty"`
	Shared      []string `json:"shared,omitempty"` // module bindings held for the other files
	Content     string   `json:"content"`
}

// Package is the complete output of a split, ready to be materialized.
type Package struct {
	Source string `json:"source"`
	Dir    string `json:"dir"`

	// Files holds one module per definition or per cluster, in the order
	// their first definition appeared in the source.
	Files []File `json:"files"`
	State *File  `json:"state,omitempty"`
	Index File   `json:"index"`
	Main  *File  `json:"main,omitempty"`

	// Clusters are groups of mutually dependent definitions that share a file.
	Clusters [][]string `json:"clusters,omitempty"`
	Notes    []string   `json:"notes,omitempty"`
	Warnings []Warning  `json:"warnings,omitempty"`
}

// Safe reports whether the package can be applied without review.
func (p *Package) Safe() bool {
	return len(p.Warnings) == 0
}

// AllFiles returns the definition files followed by the shared state
// module, the index and __main__.py.
func (p *Package) AllFiles() []File {
	out := make([]File, 0, len(p.Files)+3)
	out = append(out, p.Files...)
	if p.State != nil {
		out = append(out, *p.State)
	}
	out = append(out, p.Index)
	if p.Main != nil {
		out = append(out, *p.Main)
	}
	return out
}

// FileFor returns the generated file holding definition name.
func (p *Package) FileFor(name string) (File, bool) {
	for _, f := range p.Files {
		for _, d := range f.Definitions {
			if d == name {
				return f, true
			}
		}
	}
	return File{}, false
}
