package facts

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Extract:
// - Top-level functions, async functions, classes and decorated definitions
// - Decorated definitions start at their first decorator line
// - Nested definitions are children, never top-level definitions
// - Free names exclude parameters, locals, comprehension targets and the definition's own name
// - Methods see names from the class body only as free names
// - A class body that reads a module name before binding it keeps the name free
// - Attribute chains rooted at free names are recorded
// - Bindings with immutable literal values are marked constant
// - Comment blocks directly above a line are found, never the shebang, encoding line or marker
// - global statements are recorded on the definition
// - Imports: plain, aliased, dotted, from, relative, wildcard, __future__
// - __all__: absent, literal, computed, reassigned
// - Bindings record targets and free names; augmented bindings read themselves
// - Other statements record reads, binds and the __main__ guard
// - Docstring is found after leading comments and ignored elsewhere
// - Vetting marker is honored only in the first ten lines
// - Syntax errors return *ParseError matching ErrParse
// - ReadSourceFile wraps filesystem failures in *IOError

func extract(t *testing.T, path, src string) *FactSheet {
	t.Helper()
	sheet, err := ExtractBytes(path, []byte(src))
	require.NoError(t, err)
	return sheet
}

func TestExtract_Definitions(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "pkg/tools.py", `import functools


def alpha(x):
    return helper(x) + len(CONST)


async def fetch(url):
    return await client.get(url)


@functools.cache
@trace
def cached():
    return 1


class Gamma(Base):
    limit = 10

    def run(self):
        return limit


def _private():
    pass
`)

	require.Len(t, sheet.Definitions, 5)

	alpha := sheet.Definitions[0]
	assert.Equal(t, "alpha", alpha.Name)
	assert.Equal(t, KindFunction, alpha.Kind)
	assert.False(t, alpha.Async)
	assert.Equal(t, 4, alpha.StartLine)
	assert.Equal(t, 5, alpha.EndLine)
	assert.Equal(t, []string{"CONST", "helper", "len"}, alpha.FreeNames)

	fetch := sheet.Definitions[1]
	assert.True(t, fetch.Async)
	assert.Equal(t, []string{"client"}, fetch.FreeNames)

	cached := sheet.Definitions[2]
	assert.Equal(t, "cached", cached.Name)
	assert.Equal(t, 12, cached.StartLine, "decorated definitions start at the first decorator")
	assert.Equal(t, 15, cached.EndLine)
	assert.Equal(t, []string{"functools", "trace"}, cached.FreeNames)

	gamma := sheet.Definitions[3]
	assert.Equal(t, KindClass, gamma.Kind)
	assert.Equal(t, []string{"Base", "limit"}, gamma.FreeNames, "class attributes are invisible to methods")
	require.Len(t, gamma.Children, 1)
	assert.Equal(t, "run", gamma.Children[0].Name)
	assert.True(t, gamma.Children[0].Nested)

	assert.False(t, sheet.Definitions[4].Public())
	assert.Len(t, sheet.PublicDefinitions(), 4)
}

func TestExtract_FreeNamesScopes(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "scopes.py", `def outer(a, *args, key=DEFAULT, **kw):
    def inner():
        return a + b
    total = [y * 2 for y in args]
    fn = lambda z: z + offset
    try:
        pass
    except ValueError as exc:
        log(exc)
    return inner, total, fn, kw, key


def recursive(n):
    return recursive(n - 1)
`)

	outer, _, ok := sheet.Lookup("outer")
	require.True(t, ok)
	assert.Equal(t, []string{"DEFAULT", "ValueError", "b", "log", "offset"}, outer.FreeNames)
	require.Len(t, outer.Children, 1)
	assert.Equal(t, "inner", outer.Children[0].Name)
	assert.Len(t, sheet.Definitions, 2, "nested definitions stay out of the top level")

	rec, _, ok := sheet.Lookup("recursive")
	require.True(t, ok)
	assert.Empty(t, rec.FreeNames)
	assert.False(t, rec.References("recursive"))
}

func TestExtract_Globals(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "state.py", `COUNTER = 0


def bump():
    global COUNTER
    COUNTER += 1
`)

	bump, _, ok := sheet.Lookup("bump")
	require.True(t, ok)
	assert.Equal(t, []string{"COUNTER"}, bump.Globals)
	assert.True(t, bump.References("COUNTER"))
}

func TestExtract_Imports(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "imports.py", `from __future__ import annotations
import os
import os.path as osp
import xml.etree.ElementTree
from typing import List, Dict as D
from . import sibling
from ..core import (
    engine,
    driver as drv,
)
from helpers import *
`)

	require.Len(t, sheet.Imports, 8)

	future := sheet.Imports[0]
	assert.True(t, future.Future)
	assert.Equal(t, []string{"annotations"}, future.BoundNames())

	assert.Equal(t, []string{"os"}, sheet.Imports[1].BoundNames())
	assert.False(t, sheet.Imports[1].From)
	assert.Equal(t, []string{"osp"}, sheet.Imports[2].BoundNames())
	assert.Equal(t, []string{"xml"}, sheet.Imports[3].BoundNames())

	typing := sheet.Imports[4]
	assert.True(t, typing.From)
	assert.Equal(t, "typing", typing.Module)
	assert.Equal(t, []ImportedName{{Path: "List"}, {Path: "Dict", Alias: "D"}}, typing.Names)
	assert.Equal(t, []string{"List", "D"}, typing.BoundNames())
	assert.Equal(t, 0, typing.Level())

	rel := sheet.Imports[5]
	assert.Equal(t, ".", rel.Module)
	assert.Equal(t, 1, rel.Level())

	core := sheet.Imports[6]
	assert.Equal(t, "..core", core.Module)
	assert.Equal(t, 2, core.Level())
	assert.Equal(t, []string{"engine", "drv"}, core.BoundNames())
	assert.Equal(t, 7, core.StartLine)
	assert.Equal(t, 10, core.EndLine)
}

func TestExtract_WildcardImport(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "star.py", "from helpers import *\n")
	require.Len(t, sheet.Imports, 1)
	assert.True(t, sheet.Imports[0].Wildcard)
	assert.Empty(t, sheet.Imports[0].Names)
}

func TestExtract_AllDeclaration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		state AllState
		names []string
	}{
		{"absent", "from .a import x\n", AllAbsent, nil},
		{"literal list", "__all__ = [\"x\", 'y']\n", AllLiteral, []string{"x", "y"}},
		{"literal tuple", "__all__ = (\"x\",)\n", AllLiteral, []string{"x"}},
		{"empty literal", "__all__ = []\n", AllLiteral, []string{}},
		{"comprehension", "__all__ = [n for n in dir() if not n.startswith('_')]\n", AllComputed, nil},
		{"f-string", "__all__ = [f\"{x}\"]\n", AllComputed, nil},
		{"extended", "__all__ = [\"x\"]\n__all__ += [\"y\"]\n", AllComputed, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sheet := extract(t, "pkg/__init__.py", tt.src)
			assert.Equal(t, tt.state, sheet.All.State)
			assert.Equal(t, tt.names, sheet.All.Names)
			assert.True(t, sheet.IsPackageInit)
			assert.Empty(t, sheet.Bindings, "__all__ is not a binding")
		})
	}
}

func TestExtract_BindingsAndStatements(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "script.py", `CONFIG = load(PATH)
a, b = 1, 2
CONFIG += extra
obj.attr = 5
print("starting")

try:
    import yaml
except ImportError:
    yaml = None

if __name__ == "__main__":
    main()
`)

	require.Len(t, sheet.Bindings, 3)
	assert.Equal(t, []string{"CONFIG"}, sheet.Bindings[0].Names)
	assert.Equal(t, []string{"PATH", "load"}, sheet.Bindings[0].FreeNames)
	assert.Equal(t, []string{"a", "b"}, sheet.Bindings[1].Names)
	assert.True(t, sheet.Bindings[2].Augmented)
	assert.Equal(t, []string{"CONFIG", "extra"}, sheet.Bindings[2].FreeNames)

	require.Len(t, sheet.Statements, 4)
	assert.Equal(t, 4, sheet.Statements[0].StartLine, "attribute assignment is a plain statement")
	assert.Equal(t, []string{"print"}, sheet.Statements[1].Reads)

	fallback := sheet.Statements[2]
	assert.Equal(t, "try_statement", fallback.Kind)
	assert.Equal(t, []string{"yaml"}, fallback.Binds)

	guard := sheet.Statements[3]
	assert.True(t, guard.MainGuard)
	assert.Contains(t, guard.Reads, "main")

	used := sheet.UsedNames()
	assert.True(t, used["load"])
	assert.True(t, used["main"])
}

func TestExtract_Docstring(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "doc.py", "#!/usr/bin/env python3\n# header\n\"\"\"Tool helpers.\n\nMore.\"\"\"\n\nx = 1\n")
	assert.Equal(t, "Tool helpers.\n\nMore.", sheet.Docstring)

	late := extract(t, "late.py", "x = 1\n\"\"\"not a docstring\"\"\"\n")
	assert.Empty(t, late.Docstring)
	require.Len(t, late.Statements, 1)
}

func TestExtract_Text(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "text.py", "def a():\n    return 1\n\n\ndef b():\n    return 2\n")
	b, _, ok := sheet.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "def b():\n    return 2\n", sheet.Text(b.StartLine, b.EndLine))
	assert.Empty(t, sheet.Text(100, 120))

	_, idx, ok := sheet.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
}

func TestExtract_LOCAndVettingMarker(t *testing.T) {
	t.Parallel()

	withMarkerAt := func(line int) string {
		lines := make([]string, 12)
		for i := range lines {
			lines[i] = "# filler"
		}
		lines[line-1] = "# " + VettingMarker + ": generated"
		return strings.Join(lines, "\n") + "\n"
	}

	tests := []struct {
		line   int
		vetted bool
	}{
		{1, true},
		{9, true},
		{10, true},
		{11, false},
	}
	for _, tt := range tests {
		sheet := extract(t, "vet.py", withMarkerAt(tt.line))
		assert.Equal(t, tt.vetted, sheet.Vetted, "marker on line %d", tt.line)
		assert.Equal(t, 12, sheet.LOC)
	}

	assert.Equal(t, 0, NewSourceFile("empty.py", nil).LOC)
	assert.Equal(t, 2, NewSourceFile("x.py", []byte("a\nb")).LOC)
	assert.Equal(t, 2, NewSourceFile("x.py", []byte("a\nb\n")).LOC)
}

func TestExtract_ParseError(t *testing.T) {
	t.Parallel()

	_, err := ExtractBytes("broken.py", []byte("x = 1\ndef broken(:\n    pass\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken.py", perr.Path)
	assert.GreaterOrEqual(t, perr.Line, 2)
	assert.Contains(t, perr.Error(), "broken.py:")
}

func TestExtract_EmptyFile(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "empty.py", "")
	assert.Empty(t, sheet.Definitions)
	assert.Equal(t, AllAbsent, sheet.All.State)
	assert.Equal(t, 0, sheet.LOC)
}

func TestReadSourceFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/mod.py", []byte("# bb:vetted\nx = 1\n"), 0644))

	src, err := ReadSourceFile(fs, "/src/mod.py")
	require.NoError(t, err)
	assert.True(t, src.Vetted)
	assert.Equal(t, 2, src.LOC)

	_, err = ReadSourceFile(fs, "/src/missing.py")
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)
	assert.Equal(t, "/src/missing.py", ioErr.Path)
}

func TestExtract_ClassBodyReadsBeforeBinding(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "settings.py", `TIMEOUT = 30


def helper():
    return "h"


class Settings:
    TIMEOUT = TIMEOUT
    helper = staticmethod(helper)
    total += 1
    retries = 3
    backoff = retries * 2
`)

	settings, _, ok := sheet.Lookup("Settings")
	require.True(t, ok)
	assert.Equal(t, []string{"TIMEOUT", "helper", "staticmethod", "total"}, settings.FreeNames)
	assert.False(t, settings.References("retries"), "bound before it is read")
}

func TestExtract_Chains(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "chains.py", `import os
import xml.dom.minidom


def parse(s):
    return xml.dom.minidom.parseString(s), os.sep, os


def local():
    obj = object()
    return obj.attr
`)

	parse, _, ok := sheet.Lookup("parse")
	require.True(t, ok)
	assert.Equal(t, []string{"os", "os.sep", "xml.dom.minidom.parseString"}, parse.Chains)

	local, _, ok := sheet.Lookup("local")
	require.True(t, ok)
	assert.Equal(t, []string{"object"}, local.Chains, "chains of locals are dropped")
}

func TestExtract_ConstantBindings(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "consts.py", `A = 1
B = "x" "y"
C = (1, -2.5, None)
D = {}
E = [1]
F = f"{A}"
G = A
H = 60 * 60
I: int = 3
J += 1
`)

	constant := make(map[string]bool)
	for _, b := range sheet.Bindings {
		constant[b.Names[0]] = b.Constant
	}
	assert.Equal(t, map[string]bool{
		"A": true, "B": true, "C": true, "D": false, "E": false,
		"F": false, "G": false, "H": true, "I": true, "J": false,
	}, constant)
}

func TestFactSheet_CommentStart(t *testing.T) {
	t.Parallel()

	sheet := extract(t, "comments.py", `#!/usr/bin/env python
# -*- coding: utf-8 -*-
def a():
    pass

# Helper for b.
# Second line.
@deco
def b():
    pass


def c():
    pass
`)

	assert.Equal(t, 3, sheet.CommentStart(3), "shebang and encoding lines stay with the module")
	assert.Equal(t, 6, sheet.CommentStart(8))
	assert.Equal(t, 13, sheet.CommentStart(13))

	marked := extract(t, "marked.py", "# bb:vetted\ndef d():\n    pass\n")
	assert.Equal(t, 2, marked.CommentStart(2))
}
