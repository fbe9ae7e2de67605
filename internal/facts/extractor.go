package facts

import (
	"path"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PackageInitName is the basename of a package entry point.
const PackageInitName = "__init__.py"

// Extract parses src into a FactSheet. It returns a *ParseError when the
// text is not valid Python. Extract has no side effects and may be called
// concurrently.
func Extract(src SourceFile) (*FactSheet, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(pythonLanguage); err != nil {
		return nil, err
	}

	tree := parser.Parse(src.Text, nil)
	if tree == nil {
		return nil, &ParseError{Path: src.Path, Line: 1, Column: 1}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		perr := &ParseError{Path: src.Path, Line: 1, Column: 1}
		if bad := firstSyntaxError(root); bad != nil {
			perr.Line = startLine(bad)
			perr.Column = int(bad.StartPosition().Column) + 1
			perr.Near = firstLine(nodeText(bad, src.Text))
		}
		return nil, perr
	}

	sheet := &FactSheet{
		Path:          src.Path,
		LOC:           src.LOC,
		Vetted:        src.Vetted,
		IsPackageInit: path.Base(strings.ReplaceAll(src.Path, "\\", "/")) == PackageInitName,
		lines:         strings.Split(string(src.Text), "\n"),
	}

	x := &extractor{source: src.Text, sheet: sheet}
	first := true
	for _, child := range namedChildren(root) {
		x.topLevel(child, first)
		if child.Kind() != "comment" {
			first = false
		}
	}
	return sheet, nil
}

// ExtractBytes is a convenience wrapper around NewSourceFile and Extract.
func ExtractBytes(path string, text []byte) (*FactSheet, error) {
	return Extract(NewSourceFile(path, text))
}

type extractor struct {
	source []byte
	sheet  *FactSheet
}

// topLevel classifies one module-level statement.
func (x *extractor) topLevel(n *sitter.Node, first bool) {
	switch n.Kind() {
	case "comment":
		return
	case "import_statement", "import_from_statement", "future_import_statement":
		if rec, ok := parseImport(n, x.source); ok {
			x.sheet.Imports = append(x.sheet.Imports, rec)
		}
		return
	case "function_definition", "class_definition", "decorated_definition":
		x.sheet.Definitions = append(x.sheet.Definitions, x.definition(n, false))
		return
	case "expression_statement":
		if x.expressionStatement(n, first) {
			return
		}
	}
	x.statement(n)
}

// expressionStatement handles docstrings, __all__ and bindings. It
// returns false when n is an ordinary statement.
func (x *extractor) expressionStatement(n *sitter.Node, first bool) bool {
	children := namedChildren(n)
	if len(children) != 1 {
		return false
	}
	expr := children[0]

	switch expr.Kind() {
	case "string":
		if first {
			x.sheet.Docstring = stringLiteralValue(expr, x.source)
			return true
		}
		return false
	case "assignment", "augmented_assignment":
	default:
		return false
	}

	left := expr.ChildByFieldName("left")
	if left == nil {
		return false
	}

	if left.Kind() == "identifier" && nodeText(left, x.source) == "__all__" {
		x.allDecl(expr)
		return true
	}

	names, ok := plainTargets(left, x.source)
	if !ok {
		return false
	}
	if expr.ChildByFieldName("right") == nil && expr.Kind() == "assignment" {
		// bare annotation: "x: int" binds nothing at runtime
		return false
	}

	sc := newScope(x.source, false)
	sc.visit(expr)
	free := sc.free()
	if expr.Kind() == "augmented_assignment" {
		// "X += 1" reads X's previous value
		for _, name := range names {
			free[name] = true
		}
	}
	x.sheet.Bindings = append(x.sheet.Bindings, Binding{
		Names:     names,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		FreeNames: sortedKeys(free),
		Chains:    sortedKeys(sc.freeChains()),
		Augmented: expr.Kind() == "augmented_assignment",
		Constant:  expr.Kind() == "assignment" && isConstant(expr.ChildByFieldName("right"), x.source),
	})
	return true
}

// allDecl records __all__. Only a plain assignment of a list or tuple
// of plain string literals is verifiable; everything else is computed.
func (x *extractor) allDecl(expr *sitter.Node) {
	decl := AllDecl{State: AllComputed, Line: startLine(expr)}
	if expr.Kind() == "assignment" {
		if names, ok := literalStrings(expr.ChildByFieldName("right"), x.source); ok {
			decl.State = AllLiteral
			decl.Names = names
		}
	}
	if x.sheet.All.State != AllAbsent {
		// reassigned or extended: no longer a single literal
		decl.State = AllComputed
		decl.Names = nil
		decl.Line = x.sheet.All.Line
	}
	x.sheet.All = decl
}

// statement records any other module-level statement.
func (x *extractor) statement(n *sitter.Node) {
	sc := newScope(x.source, false)
	sc.visit(n)
	x.sheet.Statements = append(x.sheet.Statements, Statement{
		Kind:      n.Kind(),
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Reads:     sortedKeys(sc.free()),
		Binds:     sortedKeys(sc.locals),
		MainGuard: isMainGuard(n, x.source),
	})
}

// definition builds a Definition from a function, class, or decorated node.
func (x *extractor) definition(n *sitter.Node, nested bool) Definition {
	target := n
	if n.Kind() == "decorated_definition" {
		target = n.ChildByFieldName("definition")
	}

	def := Definition{
		Name:      nodeText(target.ChildByFieldName("name"), x.source),
		Kind:      KindFunction,
		StartLine: startLine(n),
		EndLine:   endLine(n),
		Nested:    nested,
	}
	if target.Kind() == "class_definition" {
		def.Kind = KindClass
	} else if target.ChildCount() > 0 && target.Child(0).Kind() == "async" {
		def.Async = true
	}

	// Evaluate the whole statement in a throwaway enclosing scope: the
	// decorators, defaults and bases land there as reads, the body's free
	// names are absorbed, and the definition's own name is its only binding.
	sc := newScope(x.source, false)
	sc.visit(n)
	def.FreeNames = sortedKeys(sc.free())
	def.Chains = sortedKeys(sc.freeChains())
	def.Globals = sortedKeys(sc.declared)

	if body := target.ChildByFieldName("body"); body != nil {
		def.Children = x.nested(body)
	}
	return def
}

// nested collects the definitions directly inside body, recursively.
func (x *extractor) nested(body *sitter.Node) []Definition {
	var out []Definition
	walkTree(body, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "decorated_definition":
			out = append(out, x.definition(n, true))
			return false
		case "function_definition", "class_definition":
			out = append(out, x.definition(n, true))
			return false
		case "lambda":
			return false
		}
		return true
	})
	return out
}

// parseImport converts an import statement node into an ImportRecord.
func parseImport(n *sitter.Node, source []byte) (ImportRecord, bool) {
	rec := ImportRecord{
		StartLine: startLine(n),
		EndLine:   endLine(n),
	}

	switch n.Kind() {
	case "import_statement":
	case "import_from_statement":
		rec.From = true
		rec.Module = strings.Join(strings.Fields(nodeText(n.ChildByFieldName("module_name"), source)), "")
	case "future_import_statement":
		rec.From = true
		rec.Future = true
		rec.Module = "__future__"
	default:
		return rec, false
	}

	eachChild(n, func(child *sitter.Node, field string) {
		switch {
		case child.Kind() == "wildcard_import":
			rec.Wildcard = true
		case field == "name" && child.Kind() == "aliased_import":
			rec.Names = append(rec.Names, ImportedName{
				Path:  nodeText(child.ChildByFieldName("name"), source),
				Alias: nodeText(child.ChildByFieldName("alias"), source),
			})
		case field == "name":
			rec.Names = append(rec.Names, ImportedName{Path: nodeText(child, source)})
		}
	})
	return rec, true
}

// plainTargets returns the names of an assignment target made only of
// identifiers (possibly unpacked). Attribute or subscript targets fail.
func plainTargets(n *sitter.Node, source []byte) ([]string, bool) {
	switch n.Kind() {
	case "identifier":
		return []string{nodeText(n, source)}, true
	case "pattern_list", "tuple_pattern", "list_pattern":
		var names []string
		for _, child := range namedChildren(n) {
			sub, ok := plainTargets(child, source)
			if !ok {
				return nil, false
			}
			names = append(names, sub...)
		}
		return names, len(names) > 0
	}
	return nil, false
}

// literalStrings returns the values of a list or tuple of plain strings.
func literalStrings(n *sitter.Node, source []byte) ([]string, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Kind() {
	case "list", "tuple":
	case "parenthesized_expression":
		children := namedChildren(n)
		if len(children) != 1 {
			return nil, false
		}
		return literalStrings(children[0], source)
	default:
		return nil, false
	}

	names := []string{}
	for _, child := range namedChildren(n) {
		if child.Kind() == "comment" {
			continue
		}
		if child.Kind() != "string" || !isPlainString(child, source) {
			return nil, false
		}
		names = append(names, stringLiteralValue(child, source))
	}
	return names, true
}

// isConstant reports whether n is an immutable literal: numbers, strings
// without interpolation, True/False/None, and tuples or arithmetic of those.
func isConstant(n *sitter.Node, source []byte) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "integer", "float", "true", "false", "none", "ellipsis":
		return true
	case "string":
		for _, child := range namedChildren(n) {
			if child.Kind() == "interpolation" {
				return false
			}
		}
		return true
	case "concatenated_string", "tuple", "parenthesized_expression", "unary_operator", "binary_operator":
		for _, child := range namedChildren(n) {
			if child.Kind() == "comment" {
				continue
			}
			if !isConstant(child, source) {
				return false
			}
		}
		return true
	}
	return false
}

// isPlainString rejects f-strings and other interpolated literals.
func isPlainString(n *sitter.Node, source []byte) bool {
	for _, child := range namedChildren(n) {
		if child.Kind() == "interpolation" {
			return false
		}
	}
	prefix := strings.ToLower(nodeText(n, source))
	for _, r := range prefix {
		if r == '\'' || r == '"' {
			break
		}
		if r == 'f' || r == 'b' {
			return false
		}
	}
	return true
}

// stringLiteralValue returns the raw content of a string literal.
func stringLiteralValue(n *sitter.Node, source []byte) string {
	var b strings.Builder
	for _, child := range namedChildren(n) {
		if child.Kind() == "string_content" || child.Kind() == "escape_sequence" {
			b.WriteString(nodeText(child, source))
		}
	}
	return b.String()
}

// isMainGuard recognizes: if __name__ == "__main__":
func isMainGuard(n *sitter.Node, source []byte) bool {
	if n.Kind() != "if_statement" {
		return false
	}
	cond := nodeText(n.ChildByFieldName("condition"), source)
	return strings.Contains(cond, "__name__") && strings.Contains(cond, "__main__")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
