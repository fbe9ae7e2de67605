package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for CLI commands:
// - version prints the build information
// - laws prints the limits from .bigbrother.yml
// - scan prints laws, findings and the vet hint; --strict exits 1 only for unvetted findings
// - scan --format json emits machine-readable findings; flags override config
// - scan rejects an unknown format
// - split --dry-run prints the plan and contents without writing
// - split writes a safe plan and refuses to overwrite
// - split refuses an unsafe plan without --force and writes it with --force
// - split reports files with nothing to split
//
// Commands share package-level flag state, so these tests do not run in parallel.

// resetFlags restores every flag to its default between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--no-color"))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const monolith = `"""Tools."""

import os


def alpha():
    return os.getcwd()


def beta():
    return alpha()
`

const vetted = `# bb:vetted
def left():
    pass


def right():
    pass
`

func exitCode(err error) int {
	if e, ok := err.(*exitError); ok {
		return e.code
	}
	return -1
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "big-brother dev")
}

func TestLaws_UsesConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".bigbrother.yml"), "source_max: 300\ntest_max: 200\n")

	out, err := execute(t, "laws", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Laws:")
	assert.Contains(t, out, "Source files <= 300 LOC, test files <= 200 LOC")
}

func TestScan_TextAndStrict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tools.py"), monolith)
	writeFile(t, filepath.Join(dir, "pair.py"), vetted)

	out, err := execute(t, "scan", dir, "--quiet", "--lines")
	require.NoError(t, err, "not strict")
	assert.NotContains(t, out, "Laws:")
	assert.Contains(t, out, "tools.py: 2 public defs")
	assert.Regexp(t, `alpha\s+L6-L7`, out)
	assert.Contains(t, out, "--- vetted (1) ---")
	assert.Contains(t, out, "pair.py: 2 public defs")

	_, err = execute(t, "scan", dir, "--quiet", "--strict")
	assert.Equal(t, 1, exitCode(err))

	require.NoError(t, os.Remove(filepath.Join(dir, "tools.py")))
	out, err = execute(t, "scan", dir, "--strict")
	require.NoError(t, err, "vetted findings never fail a strict run")
	assert.Contains(t, out, "Laws:")
	assert.Contains(t, out, "No unvetted violations.")
}

func TestScan_JSONWithOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tools.py"), monolith)
	writeFile(t, filepath.Join(dir, "gen", "big.py"), "a = 1\nb = 2\nc = 3\n")

	out, err := execute(t, "scan", dir, "--format", "json", "--ignore", "tools.py", "--source-max", "2")
	require.NoError(t, err)

	var res struct {
		Files    int `json:"files"`
		Findings []struct {
			Law  string `json:"law"`
			Path string `json:"path"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Files)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "loc", res.Findings[0].Law)
	assert.Equal(t, "gen/big.py", res.Findings[0].Path)
}

func TestScan_InvalidFormat(t *testing.T) {
	_, err := execute(t, "scan", t.TempDir(), "--format", "xml")
	assert.ErrorContains(t, err, "invalid --format")
}

func TestSplit_DryRun(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "tools.py")
	writeFile(t, source, monolith)

	out, err := execute(t, "split", source, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Planned 3 file(s)")
	assert.Contains(t, out, "==> beta.py <==")
	assert.Contains(t, out, "from .alpha import alpha")

	_, err = os.Stat(filepath.Join(dir, "tools"))
	assert.True(t, os.IsNotExist(err), "dry run writes nothing")
}

func TestSplit_WritesAndRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "tools.py")
	writeFile(t, source, monolith)

	out, err := execute(t, "split", source)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 3 file(s)")

	for _, name := range []string{"alpha.py", "beta.py", "__init__.py"} {
		assert.FileExists(t, filepath.Join(dir, "tools", name))
	}
	original, err := os.ReadFile(source)
	require.NoError(t, err)
	assert.Equal(t, monolith, string(original), "source untouched")

	_, err = execute(t, "split", source)
	assert.ErrorContains(t, err, "already exists")
}

func TestSplit_UnsafeNeedsForce(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "app.py")
	writeFile(t, source, `def load():
    return CONFIG


def save():
    return load()


print("side effect")
`)

	out, err := execute(t, "split", source)
	require.Error(t, err)
	assert.Contains(t, out, "Warnings (2):")
	assert.Contains(t, out, "[unresolved-reference]")
	assert.Contains(t, out, "[dropped-statement]")
	assert.NoDirExists(t, filepath.Join(dir, "app"))

	out, err = execute(t, "split", source, "--force", "--json")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "app"))

	var pkg struct {
		Warnings []struct {
			Kind string `json:"kind"`
		} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &pkg))
	assert.Len(t, pkg.Warnings, 2)
}

func TestSplit_NothingToSplit(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "one.py")
	writeFile(t, source, "def only():\n    pass\n")

	_, err := execute(t, "split", source)
	assert.ErrorContains(t, err, "nothing to split")
}
