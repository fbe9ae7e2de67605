package depgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/big-brother/internal/facts"
)

// Graph is the reference graph among one file's top-level definitions.
// Vertices are definition names; a name defined twice is one vertex that
// owns both definitions.
type Graph struct {
	sheet *facts.FactSheet
	g     graph.Graph[string, string]
	r     *resolver

	names []string         // vertex names in first-appearance order
	order map[string]int   // name -> index in names
	defs  map[string][]int // name -> indexes in sheet.Definitions

	edges      []Edge
	imports    map[string][]ImportUse
	bindings   map[string][]int
	unresolved map[string][]UnresolvedRef
	resolution map[string]map[string]Resolution
}

// Build computes the dependency graph of sheet. It never fails on
// unresolved names; those are recorded and exposed via Unresolved.
func Build(sheet *facts.FactSheet) (*Graph, error) {
	gr := &Graph{
		sheet:      sheet,
		g:          graph.New(graph.StringHash, graph.Directed()),
		order:      make(map[string]int),
		defs:       make(map[string][]int),
		imports:    make(map[string][]ImportUse),
		bindings:   make(map[string][]int),
		unresolved: make(map[string][]UnresolvedRef),
		resolution: make(map[string]map[string]Resolution),
	}

	for i, d := range sheet.Definitions {
		if _, seen := gr.order[d.Name]; !seen {
			gr.order[d.Name] = len(gr.names)
			gr.names = append(gr.names, d.Name)
			if err := gr.g.AddVertex(d.Name); err != nil {
				return nil, fmt.Errorf("failed to add definition %s: %w", d.Name, err)
			}
		}
		gr.defs[d.Name] = append(gr.defs[d.Name], i)
	}

	gr.r = newResolver(sheet, gr.defs)
	for _, name := range gr.names {
		free, chains := gr.reads(name)
		req := gr.r.requirements(free, chains, nil)
		gr.imports[name] = req.imports
		gr.bindings[name] = req.bindings
		gr.unresolved[name] = req.unresolved
		gr.resolution[name] = req.resolution

		for _, target := range req.definitions {
			if target == name {
				continue
			}
			err := gr.g.AddEdge(name, target)
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", name, target, err)
			}
		}
	}

	adjacency, err := gr.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read adjacency: %w", err)
	}
	for from, targets := range adjacency {
		for to := range targets {
			gr.edges = append(gr.edges, Edge{From: from, To: to})
		}
	}
	sort.Slice(gr.edges, func(i, j int) bool {
		a, b := gr.edges[i], gr.edges[j]
		if gr.order[a.From] != gr.order[b.From] {
			return gr.order[a.From] < gr.order[b.From]
		}
		return gr.order[a.To] < gr.order[b.To]
	})

	return gr, nil
}

// reads unions the free names and chains of every definition with this name.
func (gr *Graph) reads(name string) (free, chains []string) {
	for _, i := range gr.defs[name] {
		free = append(free, gr.sheet.Definitions[i].FreeNames...)
		chains = append(chains, gr.sheet.Definitions[i].Chains...)
	}
	return free, chains
}

// NeedsOf resolves free names and their dotted chains the way Build does
// for a definition. Bindings in stop are reported but what they read is
// not followed.
func (gr *Graph) NeedsOf(free, chains []string, stop map[int]bool) Needs {
	req := gr.r.requirements(free, chains, stop)
	return Needs{
		Definitions: req.definitions,
		Imports:     req.imports,
		Bindings:    req.bindings,
		Unresolved:  req.unresolved,
	}
}

// Sheet returns the fact sheet the graph was built from.
func (gr *Graph) Sheet() *facts.FactSheet {
	return gr.sheet
}

// Names returns the vertex names in first-appearance order.
func (gr *Graph) Names() []string {
	return append([]string(nil), gr.names...)
}

// Order returns the first-appearance index of name, or -1.
func (gr *Graph) Order(name string) int {
	if i, ok := gr.order[name]; ok {
		return i
	}
	return -1
}

// Definitions returns every top-level definition named name, in source order.
func (gr *Graph) Definitions(name string) []facts.Definition {
	var out []facts.Definition
	for _, i := range gr.defs[name] {
		out = append(out, gr.sheet.Definitions[i])
	}
	return out
}

// Edges returns every edge ordered by source then target appearance.
func (gr *Graph) Edges() []Edge {
	return append([]Edge(nil), gr.edges...)
}

// DependsOn returns the definitions name reads, in appearance order.
func (gr *Graph) DependsOn(name string) []string {
	var out []string
	for _, e := range gr.edges {
		if e.From == name {
			out = append(out, e.To)
		}
	}
	return out
}

// ImportsFor returns the import statements (and the names of each) that
// the definition needs, including those needed by bindings it reads.
func (gr *Graph) ImportsFor(name string) []ImportUse {
	return gr.imports[name]
}

// BindingsFor returns indexes into FactSheet.Bindings the definition
// reads, transitively, in source order.
func (gr *Graph) BindingsFor(name string) []int {
	return gr.bindings[name]
}

// Unresolved returns the free names of name that could not be attributed.
func (gr *Graph) Unresolved(name string) []UnresolvedRef {
	return gr.unresolved[name]
}

// Resolve reports how a free name of definition def was attributed.
func (gr *Graph) Resolve(def, name string) Resolution {
	return gr.resolution[def][name]
}

// Components returns the strongly connected components ordered by the
// lowest appearance index of their members; members are in appearance order.
func (gr *Graph) Components() ([][]string, error) {
	sccs, err := graph.StronglyConnectedComponents(gr.g)
	if err != nil {
		return nil, fmt.Errorf("failed to compute components: %w", err)
	}
	for _, c := range sccs {
		sort.Slice(c, func(i, j int) bool { return gr.order[c[i]] < gr.order[c[j]] })
	}
	sort.Slice(sccs, func(i, j int) bool {
		return gr.order[sccs[i][0]] < gr.order[sccs[j][0]]
	})
	return sccs, nil
}

// Cycles returns the components with more than one member: groups of
// mutually dependent definitions that cannot live in separate modules.
func (gr *Graph) Cycles() ([][]string, error) {
	sccs, err := gr.Components()
	if err != nil {
		return nil, err
	}
	var out [][]string
	for _, c := range sccs {
		if len(c) > 1 {
			out = append(out, c)
		}
	}
	return out, nil
}
