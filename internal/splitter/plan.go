package splitter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mvp-joe/big-brother/internal/depgraph"
	"github.com/mvp-joe/big-brother/internal/facts"
)

// Split extracts, graphs and plans src in one call.
func Split(src facts.SourceFile, opts Options) (*Package, error) {
	sheet, err := facts.Extract(src)
	if err != nil {
		return nil, err
	}
	gr, err := depgraph.Build(sheet)
	if err != nil {
		return nil, err
	}
	return Plan(sheet, gr, opts)
}

// Plan decomposes sheet into a package: one module per strongly connected
// component of gr, plus an index that re-exports every public definition.
// Plan does not touch the filesystem.
func Plan(sheet *facts.FactSheet, gr *depgraph.Graph, opts Options) (*Package, error) {
	log := opts.logger().With(zap.String("source", sheet.Path))

	names := gr.Names()
	if len(names) < 2 {
		return nil, fmt.Errorf("%w: %s has %d top-level definition(s)", ErrNothingToSplit, sheet.Path, len(names))
	}

	components, err := gr.Components()
	if err != nil {
		return nil, err
	}

	p := &planner{
		sheet:  sheet,
		graph:  gr,
		opts:   opts,
		module: strings.TrimSuffix(filepath.Base(sheet.Path), filepath.Ext(sheet.Path)),
		fileOf: make(map[string]string),
		pkg: &Package{
			Source: sheet.Path,
			Dir:    opts.Dir,
		},
	}

	for _, comp := range components {
		stem := comp[0]
		for _, name := range comp {
			p.fileOf[name] = stem
		}
		if len(comp) > 1 {
			p.pkg.Clusters = append(p.pkg.Clusters, comp)
			p.note("%s kept together in %s.py (mutual dependency)", strings.Join(comp, ", "), stem)
			log.Debug("clustered definitions", zap.Strings("members", comp))
		}
	}

	p.caseCollisions(components)
	p.planState(components)

	for _, comp := range components {
		p.pkg.Files = append(p.pkg.Files, p.definitionFile(comp))
	}
	if len(p.state) > 0 {
		p.pkg.State = p.stateFile()
	}
	p.pkg.Index = p.indexFile()
	p.mainFile()
	p.statements()
	p.subprocessCalls()

	log.Debug("planned split",
		zap.Int("files", len(p.pkg.Files)),
		zap.Int("clusters", len(p.pkg.Clusters)),
		zap.Int("warnings", len(p.pkg.Warnings)))
	return p.pkg, nil
}

type planner struct {
	sheet  *facts.FactSheet
	graph  *depgraph.Graph
	opts   Options
	module string
	fileOf map[string]string // definition name -> file stem
	pkg    *Package

	state     map[int]bool // bindings that live in the shared state module
	stateStem string

	relativeWarned bool
}

func (p *planner) note(format string, args ...any) {
	p.pkg.Notes = append(p.pkg.Notes, fmt.Sprintf(format, args...))
}

func (p *planner) warn(w Warning) {
	p.pkg.Warnings = append(p.pkg.Warnings, w)
}

// definitionFile renders the module for one component.
func (p *planner) definitionFile(comp []string) File {
	stem := comp[0]
	inComp := make(map[string]bool, len(comp))
	for _, name := range comp {
		inComp[name] = true
	}

	var defs []facts.Definition
	var free, chains []string
	siblings := make(map[string]string) // definition -> file stem

	for _, name := range comp {
		for _, d := range p.graph.Definitions(name) {
			defs = append(defs, d)
			free = append(free, d.FreeNames...)
			chains = append(chains, d.Chains...)
		}
		for _, dep := range p.graph.DependsOn(name) {
			if !inComp[dep] {
				siblings[dep] = p.fileOf[dep]
			}
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].StartLine < defs[j].StartLine })

	needs := p.graph.NeedsOf(free, chains, p.state)
	importNames := importSet(needs.Imports)
	for _, name := range comp {
		p.unresolved(name, importNames)
	}
	for _, d := range defs {
		p.sharedState(d)
	}

	// Shared bindings are imported, everything else is copied.
	var bindings, shared []int
	reads := make(map[string]bool)
	for _, n := range free {
		reads[n] = true
	}
	for _, bi := range needs.Bindings {
		if p.state[bi] {
			shared = append(shared, bi)
			continue
		}
		bindings = append(bindings, bi)
		for _, n := range p.sheet.Bindings[bi].FreeNames {
			reads[n] = true
		}
	}
	stateNames := p.bindingNames(shared, reads)

	var b strings.Builder
	p.header(&b)
	p.futureImports(&b)

	if imports := p.renderImports(importNames); imports != "" {
		b.WriteString(imports)
		b.WriteString("\n")
	}
	if len(siblings) > 0 || len(stateNames) > 0 {
		b.WriteString(renderSiblingImports(siblings))
		if len(stateNames) > 0 {
			fmt.Fprintf(&b, "from .%s import %s\n", p.stateStem, strings.Join(stateNames, ", "))
		}
		b.WriteString("\n")
	}

	// Bindings that read a definition of this file must follow it.
	var before, after []int
	for _, bi := range bindings {
		if p.readsAny(p.sheet.Bindings[bi].FreeNames, inComp) {
			after = append(after, bi)
		} else {
			before = append(before, bi)
		}
	}
	p.writeBindings(&b, before, stem)
	for _, d := range defs {
		b.WriteString("\n\n")
		b.WriteString(p.sheet.Text(p.sheet.CommentStart(d.StartLine), d.EndLine))
	}
	if len(after) > 0 {
		b.WriteString("\n")
		p.writeBindings(&b, after, stem)
	}

	return File{
		Name:        stem + ".py",
		Definitions: append([]string(nil), comp...),
		Content:     tidy(b.String()),
	}
}

func (p *planner) header(b *strings.Builder) {
	if p.sheet.Docstring == "" {
		return
	}
	fmt.Fprintf(b, "# From: %s - %s\n\n", filepath.Base(p.sheet.Path), firstLine(p.sheet.Docstring))
}

// futureImports are compiler directives and must open every module.
func (p *planner) futureImports(b *strings.Builder) {
	wrote := false
	for _, imp := range p.sheet.Imports {
		if imp.Future {
			b.WriteString(p.sheet.Text(imp.StartLine, imp.EndLine))
			wrote = true
		}
	}
	if wrote {
		b.WriteString("\n")
	}
}

// renderImports regenerates the needed import statements, keeping only
// the names the file reads, in original statement order.
func (p *planner) renderImports(importNames map[int]map[string]bool) string {
	var b strings.Builder
	for _, idx := range sortedIndexes(keysOf(importNames)) {
		rec := p.sheet.Imports[idx]
		shift := p.opts.RelativeShift
		if rec.From && rec.Level() > 0 && shift == 0 && !p.relativeWarned {
			p.relativeWarned = true
			p.warn(Warning{
				Kind:    WarnRelativeImport,
				Line:    rec.StartLine,
				Message: fmt.Sprintf("relative import %q kept as-is; output directory is not next to the source", rec.Module),
			})
		}
		b.WriteString(renderImport(rec, importNames[idx], shift))
		b.WriteString("\n")
	}
	return b.String()
}

// unresolved records a warning per unattributable name, and pulls star
// imports into the file since they may be the source.
func (p *planner) unresolved(name string, importNames map[int]map[string]bool) {
	refs := p.graph.Unresolved(name)
	if len(refs) == 0 {
		return
	}
	wildcards := p.wildcardImports()
	for _, idx := range wildcards {
		if importNames[idx] == nil {
			importNames[idx] = make(map[string]bool)
		}
	}

	line := 0
	if defs := p.graph.Definitions(name); len(defs) > 0 {
		line = defs[0].StartLine
	}
	for _, ref := range refs {
		msg := fmt.Sprintf("%s reads %s, which is not an import, definition, binding, or builtin", name, ref.Name)
		if ref.BoundByStatement {
			msg = fmt.Sprintf("%s reads %s, which is bound by a module-level statement that is not relocated", name, ref.Name)
		}
		if len(wildcards) > 0 {
			msg += " (a star import may provide it)"
		}
		p.warn(Warning{
			Kind:       WarnUnresolvedReference,
			Definition: name,
			Name:       ref.Name,
			Line:       line,
			Message:    msg,
		})
	}
	if len(wildcards) > 0 {
		p.warn(Warning{
			Kind:       WarnWildcardImport,
			Definition: name,
			Line:       p.sheet.Imports[wildcards[0]].StartLine,
			Message:    fmt.Sprintf("star import copied into the module for %s", name),
		})
	}
}

func (p *planner) wildcardImports() []int {
	var out []int
	for i, imp := range p.sheet.Imports {
		if imp.Wildcard {
			out = append(out, i)
		}
	}
	return out
}

// sharedState flags definitions that rebind module state. Each generated
// module would own its own copy of the binding.
func (p *planner) sharedState(d facts.Definition) {
	for _, g := range d.Globals {
		p.warn(Warning{
			Kind:       WarnSharedState,
			Definition: d.Name,
			Name:       g,
			Line:       d.StartLine,
			Message:    fmt.Sprintf("%s declares global %s; module state is not shared after the split", d.Name, g),
		})
	}
}

func (p *planner) readsAny(names []string, set map[string]bool) bool {
	for _, n := range names {
		if set[n] {
			return true
		}
	}
	return false
}

func (p *planner) writeBindings(b *strings.Builder, indexes []int, stem string) {
	if len(indexes) == 0 {
		return
	}
	b.WriteString("\n")
	for _, bi := range indexes {
		bind := p.sheet.Bindings[bi]
		text := p.sheet.Text(p.sheet.CommentStart(bind.StartLine), bind.EndLine)
		fixed := fixScriptDir(text)
		if fixed != text {
			p.note("%s.py: __file__-relative directory in %s moved up one level", stem, strings.Join(bind.Names, ", "))
		}
		b.WriteString(fixed)
	}
}

// indexFile re-exports every public definition with a literal __all__.
func (p *planner) indexFile() File {
	var b strings.Builder
	if p.sheet.Docstring != "" {
		fmt.Fprintf(&b, "\"\"\"%s\"\"\"\n\n", p.sheet.Docstring)
	}
	p.futureImports(&b)

	var public []string
	for _, name := range p.graph.Names() {
		defs := p.graph.Definitions(name)
		if len(defs) == 0 || !defs[0].Public() {
			continue
		}
		public = append(public, name)
		fmt.Fprintf(&b, "from .%s import %s\n", p.fileOf[name], name)
	}
	if len(public) > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "__all__ = %s\n", pyList(public))

	return File{
		Name:        facts.PackageInitName,
		Definitions: public,
		Content:     tidy(b.String()),
	}
}

// mainFile adds __main__.py so "python -m pkg" keeps working when the
// original exposed a public main().
func (p *planner) mainFile() {
	defs := p.graph.Definitions("main")
	if len(defs) == 0 || !defs[0].Public() {
		return
	}
	content := fmt.Sprintf("\"\"\"python -m %s: run main().\"\"\"\n\nfrom .%s import main\n\nmain()\n", p.module, p.fileOf["main"])
	p.pkg.Main = &File{Name: "__main__.py", Content: content}
}

// statements accounts for every module-level statement that is not
// relocated. Nothing is dropped silently.
func (p *planner) statements() {
	hasMain := p.pkg.Main != nil
	for _, st := range p.sheet.Statements {
		if st.MainGuard && hasMain {
			p.note("__main__ guard at L%d-L%d replaced by __main__.py", st.StartLine, st.EndLine)
			continue
		}
		p.warn(Warning{
			Kind:    WarnDroppedStatement,
			Line:    st.StartLine,
			Message: fmt.Sprintf("module-level %s at L%d-L%d is not relocated", st.Kind, st.StartLine, st.EndLine),
		})
	}
}

// subprocessCalls notes definitions that launch the original module by
// file name; those calls need "-m" once the module becomes a package.
func (p *planner) subprocessCalls() {
	for _, d := range p.sheet.Definitions {
		text := p.sheet.Text(d.StartLine, d.EndLine)
		viaExecutable := strings.Contains(text, "sys.executable") && strings.Contains(text, p.module+".py")
		viaPython := strings.Contains(text, "python3 "+p.module) || strings.Contains(text, "python "+p.module)
		if viaExecutable || viaPython {
			p.note("%s launches %s.py as a subprocess; switch it to -m %s", d.Name, p.module, p.module)
		}
	}
}

// caseCollisions warns about module names that differ only in case;
// they overwrite each other on case-insensitive filesystems.
func (p *planner) caseCollisions(components [][]string) {
	seen := make(map[string]string)
	for _, comp := range components {
		stem := comp[0]
		key := strings.ToLower(stem)
		first, ok := seen[key]
		if !ok {
			seen[key] = stem
			continue
		}
		line := 0
		if defs := p.graph.Definitions(stem); len(defs) > 0 {
			line = defs[0].StartLine
		}
		p.warn(Warning{
			Kind:       WarnCaseCollision,
			Definition: stem,
			Line:       line,
			Message:    fmt.Sprintf("%s.py and %s.py differ only in case and collide on case-insensitive filesystems", first, stem),
		})
	}
}

// planState picks the bindings that move to one shared module. A
// binding read by more than one generated module must stay a single
// object unless it is a constant: copies of a dict, list or client would
// diverge as soon as one module changes its copy. A shared binding that
// refers to definitions cannot move, since the state module would import
// the modules that import it; it is copied and flagged instead.
func (p *planner) planState(components [][]string) {
	readers := make(map[int][]string)
	for _, comp := range components {
		seen := make(map[int]bool)
		for _, name := range comp {
			for _, bi := range p.graph.BindingsFor(name) {
				if !seen[bi] {
					seen[bi] = true
					readers[bi] = append(readers[bi], comp[0])
				}
			}
		}
	}

	p.state = make(map[int]bool)
	for _, bi := range sortedIndexes(keysOf(readers)) {
		b := p.sheet.Bindings[bi]
		if len(readers[bi]) < 2 || b.Constant || p.state[bi] {
			continue
		}
		needs := p.graph.NeedsOf(b.FreeNames, b.Chains, nil)
		if len(needs.Definitions) > 0 {
			p.warn(Warning{
				Kind:    WarnSharedState,
				Name:    strings.Join(b.Names, ", "),
				Line:    b.StartLine,
				Message: fmt.Sprintf("%s is read by %s and refers to %s; each module gets its own copy", strings.Join(b.Names, ", "), strings.Join(readers[bi], ", "), strings.Join(needs.Definitions, ", ")),
			})
			continue
		}
		p.state[bi] = true
		for _, dep := range needs.Bindings {
			p.state[dep] = true
		}
	}
	if len(p.state) == 0 {
		return
	}

	taken := make(map[string]bool)
	for _, stem := range p.fileOf {
		taken[strings.ToLower(stem)] = true
	}
	p.stateStem = "_state"
	for taken[p.stateStem] {
		p.stateStem += "_"
	}
}

// stateFile holds the shared bindings with the imports they read.
func (p *planner) stateFile() *File {
	indexes := sortedIndexes(p.state)
	var free, chains []string
	for _, bi := range indexes {
		free = append(free, p.sheet.Bindings[bi].FreeNames...)
		chains = append(chains, p.sheet.Bindings[bi].Chains...)
	}
	needs := p.graph.NeedsOf(free, chains, p.state)
	names := p.bindingNames(indexes, nil)

	var b strings.Builder
	p.header(&b)
	p.futureImports(&b)
	if imports := p.renderImports(importSet(needs.Imports)); imports != "" {
		b.WriteString(imports)
	}
	p.writeBindings(&b, indexes, p.stateStem)

	p.note("module state %s shared through %s.py", strings.Join(names, ", "), p.stateStem)
	return &File{
		Name:    p.stateStem + ".py",
		Shared:  names,
		Content: tidy(b.String()),
	}
}

// bindingNames lists the names the given bindings bind, in source order
// and without repeats. A nil reads keeps every name.
func (p *planner) bindingNames(indexes []int, reads map[string]bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, bi := range indexes {
		for _, n := range p.sheet.Bindings[bi].Names {
			if seen[n] || (reads != nil && !reads[n]) {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func importSet(uses []depgraph.ImportUse) map[int]map[string]bool {
	out := make(map[int]map[string]bool, len(uses))
	for _, use := range uses {
		if out[use.Index] == nil {
			out[use.Index] = make(map[string]bool)
		}
		for _, n := range use.Names {
			out[use.Index][n] = true
		}
	}
	return out
}

func keysOf[V any](m map[int]V) map[int]bool {
	out := make(map[int]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func sortedIndexes(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
