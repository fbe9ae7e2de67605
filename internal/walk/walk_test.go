package walk

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Discovery and Classifier:
// - Discover returns only .py files, relative, slash-separated, sorted
// - Skip directories are never descended into
// - Ignore globs match by basename and by relative path
// - Directory-style ignore globs ("build/**") cover nested files
// - A root that is a single .py file yields that file
// - A missing root is an error
// - Filter.Keep applies the same rules to single paths
// - IsEntry matches basenames only
// - IsTest matches "test" anywhere in the lowercased path

func newTree(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/proj", f), []byte("x = 1\n"), 0644))
	}
	return fs
}

func TestDiscover_FindsPythonFiles(t *testing.T) {
	t.Parallel()

	fs := newTree(t,
		"b.py",
		"a.py",
		"README.md",
		"pkg/__init__.py",
		"pkg/core.py",
		"pkg/__pycache__/core.cpython-312.py",
		".venv/lib/site.py",
	)

	d, err := NewDiscovery(fs, "/proj", []string{"__pycache__", ".venv"}, nil)
	require.NoError(t, err)

	files, err := d.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py", "pkg/__init__.py", "pkg/core.py"}, files)
}

func TestDiscover_IgnoreGlobs(t *testing.T) {
	t.Parallel()

	fs := newTree(t,
		"app.py",
		"proto/user_pb2.py",
		"build/gen/out.py",
		"migrations/0001_initial.py",
		"keep/migrations.py",
	)

	d, err := NewDiscovery(fs, "/proj", nil, []string{"*_pb2.py", "build/**", "migrations"})
	require.NoError(t, err)

	files, err := d.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "keep/migrations.py"}, files)
}

func TestDiscover_SingleFileRoot(t *testing.T) {
	t.Parallel()

	fs := newTree(t, "tool.py")
	d, err := NewDiscovery(fs, "/proj/tool.py", nil, nil)
	require.NoError(t, err)

	files, err := d.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"tool.py"}, files)
	assert.Equal(t, "/proj/tool.py", d.Abs(files[0]))
}

func TestDiscover_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewDiscovery(afero.NewMemMapFs(), "/proj", nil, []string{"[bad"})
	assert.Error(t, err)

	d, err := NewDiscovery(afero.NewMemMapFs(), "/missing", nil, nil)
	require.NoError(t, err)
	_, err = d.Discover()
	assert.Error(t, err)

	fs := newTree(t, "notes.txt")
	d, err = NewDiscovery(fs, "/proj/notes.txt", nil, nil)
	require.NoError(t, err)
	_, err = d.Discover()
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	f, err := NewFilter([]string{"__pycache__", ".venv"}, []string{"build/**", "*_pb2.py"})
	require.NoError(t, err)

	tests := []struct {
		path string
		keep bool
	}{
		{"mod.py", true},
		{"pkg/core.PY", true},
		{"notes.md", false},
		{"pkg/__pycache__/core.py", false},
		{".venv/lib/site.py", false},
		{"build/gen.py", false},
		{"build/deep/gen.py", false},
		{"api/service_pb2.py", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.keep, f.Keep(tt.path), tt.path)
	}

	assert.True(t, f.SkipDir("__pycache__"))
	assert.False(t, f.SkipDir("pkg"))

	_, err = NewFilter(nil, []string{"[x"})
	assert.Error(t, err)
}

func TestClassifier(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(
		[]string{"main.*", "app.*", "__main__.py"},
		[]string{"**test**"},
	)
	require.NoError(t, err)

	tests := []struct {
		path  string
		entry bool
		test  bool
	}{
		{"main.py", true, false},
		{"cli/app.py", true, false},
		{"pkg/__main__.py", true, false},
		{"pkg/domain.py", false, false},
		{"mainframe.py", false, false},
		{"tests/test_core.py", false, true},
		{"pkg/Core_Test.py", false, true},
		{"pkg/contest.py", false, true},
		{"testing/main.py", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.entry, c.IsEntry(tt.path), "IsEntry")
			assert.Equal(t, tt.test, c.IsTest(tt.path), "IsTest")
		})
	}
}
