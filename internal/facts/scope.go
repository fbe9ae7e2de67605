package facts

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// scope tracks the names one Python scope binds and reads.
//
// A name bound anywhere in a function body is local to the whole body,
// so free names are simply reads minus bindings. Class bodies differ in
// two ways: functions nested in a class do not see the class namespace,
// which is why their free names are kept apart in passthrough, and a
// read before the first binding in the class body falls back to the
// module ("TIMEOUT = TIMEOUT"), which early records.
type scope struct {
	source  []byte
	isClass bool

	locals      map[string]bool
	reads       map[string]bool
	early       map[string]bool
	passthrough map[string]bool
	chains      map[string]bool // dotted reads: "os.path.join", or a bare "os"
	globals     map[string]bool // global statements in this scope
	nonlocals   map[string]bool

	// declared accumulates global statements of this scope and every scope nested in it.
	declared map[string]bool
}

func newScope(source []byte, isClass bool) *scope {
	return &scope{
		source:      source,
		isClass:     isClass,
		locals:      make(map[string]bool),
		reads:       make(map[string]bool),
		early:       make(map[string]bool),
		passthrough: make(map[string]bool),
		chains:      make(map[string]bool),
		globals:     make(map[string]bool),
		nonlocals:   make(map[string]bool),
		declared:    make(map[string]bool),
	}
}

func (s *scope) bind(name string) {
	if name != "" {
		s.locals[name] = true
	}
}

func (s *scope) read(name string) {
	if name == "" {
		return
	}
	s.reads[name] = true
	if s.isClass && !s.locals[name] {
		s.early[name] = true
	}
}

// readChain reads the root of a dotted name and remembers the chain.
func (s *scope) readChain(chain string) {
	s.read(chainRoot(chain))
	s.chains[chain] = true
}

// free returns the names this scope needs from its enclosing scope.
func (s *scope) free() map[string]bool {
	out := make(map[string]bool)
	for n := range s.reads {
		if !s.locals[n] || s.globals[n] || s.nonlocals[n] {
			out[n] = true
		}
	}
	for n := range s.globals {
		out[n] = true
	}
	for n := range s.nonlocals {
		out[n] = true
	}
	for n := range s.passthrough {
		out[n] = true
	}
	for n := range s.early {
		out[n] = true
	}
	return out
}

// freeChains returns the dotted reads whose root is a free name.
func (s *scope) freeChains() map[string]bool {
	free := s.free()
	out := make(map[string]bool)
	for c := range s.chains {
		if free[chainRoot(c)] {
			out[c] = true
		}
	}
	return out
}

// absorb folds a nested scope's free names into s.
func (s *scope) absorb(inner *scope) {
	target := s.reads
	if s.isClass {
		target = s.passthrough
	}
	for n := range inner.free() {
		target[n] = true
	}
	for c := range inner.freeChains() {
		s.chains[c] = true
	}
	for n := range inner.declared {
		s.declared[n] = true
	}
}

func (s *scope) visit(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "identifier", "keyword_identifier":
		s.readChain(nodeText(n, s.source))
		return
	case "comment", "string_content", "escape_sequence":
		return
	case "attribute":
		if chain, ok := dottedName(n, s.source); ok {
			s.readChain(chain)
			return
		}
		s.visit(n.ChildByFieldName("object"))
		return
	case "keyword_argument":
		s.visit(n.ChildByFieldName("value"))
		return
	case "function_definition":
		s.visitFunction(n)
		return
	case "class_definition":
		s.visitClass(n)
		return
	case "decorated_definition":
		for _, child := range namedChildren(n) {
			if child.Kind() == "decorator" {
				s.visit(child)
			}
		}
		s.visit(n.ChildByFieldName("definition"))
		return
	case "lambda":
		s.visitLambda(n)
		return
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		s.visitComprehension(n)
		return
	case "global_statement":
		for _, child := range namedChildren(n) {
			name := nodeText(child, s.source)
			s.globals[name] = true
			s.declared[name] = true
		}
		return
	case "nonlocal_statement":
		for _, child := range namedChildren(n) {
			s.nonlocals[nodeText(child, s.source)] = true
		}
		return
	case "import_statement", "import_from_statement", "future_import_statement":
		if rec, ok := parseImport(n, s.source); ok {
			for _, name := range rec.BoundNames() {
				s.bind(name)
			}
		}
		return
	case "assignment":
		// the value is evaluated before the target is bound
		s.visit(n.ChildByFieldName("right"))
		s.visit(n.ChildByFieldName("type"))
		s.bindTarget(n.ChildByFieldName("left"))
		s.visit(n.ChildByFieldName("left"))
		return
	case "augmented_assignment":
		s.visit(n.ChildByFieldName("left"))
		s.visit(n.ChildByFieldName("right"))
		s.bindTarget(n.ChildByFieldName("left"))
		return
	case "for_statement":
		s.visit(n.ChildByFieldName("right"))
		s.bindTarget(n.ChildByFieldName("left"))
	case "for_in_clause":
		s.bindTarget(n.ChildByFieldName("left"))
	case "named_expression":
		s.visit(n.ChildByFieldName("value"))
		s.bindTarget(n.ChildByFieldName("name"))
		return
	case "as_pattern":
		s.bindTarget(n.ChildByFieldName("alias"))
	case "delete_statement":
		for _, child := range namedChildren(n) {
			s.bindTarget(child)
		}
	case "except_clause", "except_group_clause":
		afterAs := false
		eachChild(n, func(child *sitter.Node, field string) {
			if field == "alias" || (afterAs && child.Kind() == "identifier") {
				s.bindTarget(child)
			}
			afterAs = child.Kind() == "as"
		})
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		s.visit(n.Child(uint(i)))
	}
}

// bindTarget binds every plain name in an assignment target.
func (s *scope) bindTarget(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "identifier", "keyword_identifier":
		s.bind(nodeText(n, s.source))
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"parenthesized_expression", "expression_list", "list_splat_pattern",
		"list_splat", "as_pattern_target":
		children := namedChildren(n)
		if len(children) == 0 && n.Kind() == "as_pattern_target" {
			s.bind(nodeText(n, s.source))
		}
		for _, child := range children {
			s.bindTarget(child)
		}
	}
}

// visitFunction evaluates defaults and annotations in s, folds the
// body's free names in, and binds the function name last.
func (s *scope) visitFunction(fn *sitter.Node) {
	inner := newScope(s.source, false)
	if params := fn.ChildByFieldName("parameters"); params != nil {
		for _, p := range namedChildren(params) {
			inner.bindParam(p, s)
		}
	}
	s.visit(fn.ChildByFieldName("return_type"))
	inner.visit(fn.ChildByFieldName("body"))
	s.absorb(inner)
	s.bind(nodeText(fn.ChildByFieldName("name"), s.source))
}

func (s *scope) visitClass(cls *sitter.Node) {
	s.visit(cls.ChildByFieldName("superclasses"))

	inner := newScope(s.source, true)
	inner.visit(cls.ChildByFieldName("body"))
	s.absorb(inner)
	s.bind(nodeText(cls.ChildByFieldName("name"), s.source))
}

func (s *scope) visitLambda(n *sitter.Node) {
	inner := newScope(s.source, false)
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range namedChildren(params) {
			inner.bindParam(p, s)
		}
	}
	inner.visit(n.ChildByFieldName("body"))
	s.absorb(inner)
}

func (s *scope) visitComprehension(n *sitter.Node) {
	inner := newScope(s.source, false)
	for _, child := range namedChildren(n) {
		if child.Kind() == "for_in_clause" {
			inner.bindTarget(child.ChildByFieldName("left"))
		}
	}
	for _, child := range namedChildren(n) {
		inner.visit(child)
	}
	s.absorb(inner)
}

// bindParam binds one parameter in s; defaults and annotations are read in outer.
func (s *scope) bindParam(p *sitter.Node, outer *scope) {
	switch p.Kind() {
	case "identifier":
		s.bind(nodeText(p, s.source))
	case "default_parameter":
		s.bindTarget(p.ChildByFieldName("name"))
		outer.visit(p.ChildByFieldName("value"))
	case "typed_default_parameter":
		s.bindTarget(p.ChildByFieldName("name"))
		outer.visit(p.ChildByFieldName("type"))
		outer.visit(p.ChildByFieldName("value"))
	case "typed_parameter":
		for _, child := range namedChildren(p) {
			switch child.Kind() {
			case "identifier":
				s.bind(nodeText(child, s.source))
			case "list_splat_pattern", "dictionary_splat_pattern":
				s.bindParam(child, outer)
			}
		}
		outer.visit(p.ChildByFieldName("type"))
	case "list_splat_pattern", "dictionary_splat_pattern", "tuple_pattern":
		for _, child := range namedChildren(p) {
			s.bindTarget(child)
		}
	}
}

// dottedName renders an attribute node made only of names, such as
// xml.dom.minidom.parseString.
func dottedName(n *sitter.Node, source []byte) (string, bool) {
	switch n.Kind() {
	case "identifier":
		return nodeText(n, source), true
	case "attribute":
		obj := n.ChildByFieldName("object")
		attr := n.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return "", false
		}
		prefix, ok := dottedName(obj, source)
		if !ok {
			return "", false
		}
		return prefix + "." + nodeText(attr, source), true
	}
	return "", false
}

func chainRoot(chain string) string {
	if i := strings.IndexByte(chain, '.'); i >= 0 {
		return chain[:i]
	}
	return chain
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
