package depgraph

import (
	"sort"
	"strings"

	"github.com/mvp-joe/big-brother/internal/facts"
)

type importBinding struct {
	index int
	path  string // dotted module of a plain "import a.b"; empty otherwise
}

// resolver attributes free names to module-level bindings of one sheet.
type resolver struct {
	sheet       *facts.FactSheet
	defs        map[string][]int
	imports     map[string][]importBinding
	bindings    map[string][]int
	statementBs map[string]bool
}

func newResolver(sheet *facts.FactSheet, defs map[string][]int) *resolver {
	r := &resolver{
		sheet:       sheet,
		defs:        defs,
		imports:     make(map[string][]importBinding),
		bindings:    make(map[string][]int),
		statementBs: make(map[string]bool),
	}
	for i, imp := range sheet.Imports {
		if imp.Future {
			continue
		}
		for _, n := range imp.Names {
			ib := importBinding{index: i}
			if !imp.From && n.Alias == "" {
				ib.path = n.Path
			}
			name := imp.Bound(n)
			r.imports[name] = append(r.imports[name], ib)
		}
	}
	for i, b := range sheet.Bindings {
		for _, name := range b.Names {
			r.bindings[name] = append(r.bindings[name], i)
		}
	}
	for _, st := range sheet.Statements {
		for _, name := range st.Binds {
			r.statementBs[name] = true
		}
	}
	return r
}

func (r *resolver) resolve(name string) Resolution {
	switch {
	case len(r.defs[name]) > 0:
		return ResolvedDefinition
	case len(r.imports[name]) > 0:
		return ResolvedImport
	case len(r.bindings[name]) > 0:
		return ResolvedBinding
	case facts.IsBuiltin(name):
		return ResolvedBuiltin
	default:
		return Unresolved
	}
}

// importsFor returns the statements that supply name to code reading
// chains. A later from-import or alias replaces earlier ones, so only
// the last statement counts. Plain "import a.x" and "import a.y" both
// bind the same package "a": each one is kept when an attribute chain
// goes through its submodule, and all of them when a chain cannot be
// matched or "a" is read on its own.
func (r *resolver) importsFor(name string, chains map[string]bool) []int {
	cands := r.imports[name]
	last := cands[len(cands)-1]
	if last.path == "" {
		return []int{last.index}
	}

	var plain []importBinding
	for _, c := range cands {
		if c.path != "" {
			plain = append(plain, c)
		}
	}
	if len(plain) == 1 {
		return []int{last.index}
	}

	picked := make(map[int]bool)
	all := func() {
		for _, c := range plain {
			picked[c.index] = true
		}
	}
	matched := false
	for chain := range chains {
		if chainRoot(chain) != name {
			continue
		}
		matched = true
		best, bestLen := []int(nil), 1
		for _, c := range plain {
			n := commonComponents(chain, c.path)
			switch {
			case n > bestLen:
				best, bestLen = []int{c.index}, n
			case n == bestLen && n > 1:
				best = append(best, c.index)
			}
		}
		if best == nil {
			all()
			continue
		}
		for _, idx := range best {
			picked[idx] = true
		}
	}
	if !matched {
		all()
	}

	out := make([]int, 0, len(picked))
	for idx := range picked {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func chainRoot(chain string) string {
	if i := strings.IndexByte(chain, '.'); i >= 0 {
		return chain[:i]
	}
	return chain
}

// commonComponents counts the leading dotted components a and b share.
func commonComponents(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}
	return n
}

type requirements struct {
	definitions []string
	imports     []ImportUse
	bindings    []int
	unresolved  []UnresolvedRef
	resolution  map[string]Resolution
}

// requirements follows free names through bindings: code that reads a
// binding also needs whatever that binding reads. Bindings in stop are
// recorded but not followed.
func (r *resolver) requirements(free, chains []string, stop map[int]bool) requirements {
	req := requirements{resolution: make(map[string]Resolution)}

	defSeen := make(map[string]bool)
	bindingSeen := make(map[int]bool)
	importSeen := make(map[string]bool)
	var importOrder []string
	unresolvedSeen := make(map[string]bool)

	chainSet := make(map[string]bool, len(chains))
	for _, c := range chains {
		chainSet[c] = true
	}

	queue := append([]string(nil), free...)
	direct := make(map[string]bool, len(free))
	for _, n := range free {
		direct[n] = true
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		res := r.resolve(name)
		if direct[name] {
			req.resolution[name] = res
		}

		switch res {
		case ResolvedDefinition:
			if !defSeen[name] {
				defSeen[name] = true
				req.definitions = append(req.definitions, name)
			}
		case ResolvedImport:
			if !importSeen[name] {
				importSeen[name] = true
				importOrder = append(importOrder, name)
			}
		case ResolvedBinding:
			for _, bi := range r.bindings[name] {
				if bindingSeen[bi] {
					continue
				}
				bindingSeen[bi] = true
				req.bindings = append(req.bindings, bi)
				if stop[bi] {
					continue
				}
				b := r.sheet.Bindings[bi]
				queue = append(queue, b.FreeNames...)
				for _, c := range b.Chains {
					chainSet[c] = true
				}
			}
		case Unresolved:
			if !unresolvedSeen[name] {
				unresolvedSeen[name] = true
				req.unresolved = append(req.unresolved, UnresolvedRef{
					Name:             name,
					BoundByStatement: r.statementBs[name],
				})
			}
		}
	}

	sort.Ints(req.bindings)
	sort.Slice(req.unresolved, func(i, j int) bool { return req.unresolved[i].Name < req.unresolved[j].Name })

	importNames := make(map[int]map[string]bool)
	for _, name := range importOrder {
		for _, idx := range r.importsFor(name, chainSet) {
			if importNames[idx] == nil {
				importNames[idx] = make(map[string]bool)
			}
			importNames[idx][name] = true
		}
	}
	for idx, names := range importNames {
		use := ImportUse{Index: idx}
		for _, bound := range r.sheet.Imports[idx].BoundNames() {
			if names[bound] {
				use.Names = append(use.Names, bound)
				delete(names, bound)
			}
		}
		req.imports = append(req.imports, use)
	}
	sort.Slice(req.imports, func(i, j int) bool { return req.imports[i].Index < req.imports[j].Index })

	return req
}
