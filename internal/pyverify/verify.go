// Package pyverify checks a generated package with a real Python
// interpreter: every module compiles, the package imports, and every
// name in __all__ resolves.
package pyverify

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kluctl/go-embed-python/python"
	"go.uber.org/zap"
)

//go:embed check_package.py
var inspectScript []byte

// Interpreter builds a command running Python with args.
type Interpreter interface {
	Command(args ...string) (*exec.Cmd, error)
}

// Embedded is the Python runtime bundled into the binary.
type Embedded struct {
	ep *python.EmbeddedPython
}

// NewEmbedded extracts the bundled runtime into dir, reusing a previous
// extraction when unchanged. An empty dir selects the user cache directory.
func NewEmbedded(dir string) (*Embedded, error) {
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate cache directory: %w", err)
		}
		dir = filepath.Join(cache, "big-brother", "python")
	}
	ep, err := python.NewEmbeddedPythonWithTmpDir(dir, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded Python: %w", err)
	}
	return &Embedded{ep: ep}, nil
}

// Command implements Interpreter.
func (e *Embedded) Command(args ...string) (*exec.Cmd, error) {
	return e.ep.PythonCmd(args...)
}

// System is a Python executable found on PATH or given by path.
type System struct {
	Path string
}

// NewSystem resolves name (python3, /usr/bin/python3.12, ...).
func NewSystem(name string) (*System, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("python interpreter %q not found: %w", name, err)
	}
	return &System{Path: path}, nil
}

// Command implements Interpreter.
func (s *System) Command(args ...string) (*exec.Cmd, error) {
	return exec.Command(s.Path, args...), nil
}

// CompileError is a syntax error in one generated module.
type CompileError struct {
	File  string `json:"file"`
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Report is what the inspection observed.
type Report struct {
	Package       string         `json:"package"`
	CompileErrors []CompileError `json:"compile_errors"`
	ImportError   string         `json:"import_error"`
	All           []string       `json:"all"`
	Missing       []string       `json:"missing"`
	NotCallable   []string       `json:"not_callable"`
}

// OK reports whether the package compiled, imported and exported every name.
func (r *Report) OK() bool {
	return len(r.CompileErrors) == 0 && r.ImportError == "" && len(r.Missing) == 0
}

// Problems lists every failure in a readable form.
func (r *Report) Problems() []string {
	var out []string
	for _, ce := range r.CompileErrors {
		out = append(out, fmt.Sprintf("%s:%d: %s", ce.File, ce.Line, ce.Error))
	}
	if r.ImportError != "" {
		out = append(out, "import failed: "+r.ImportError)
	}
	for _, n := range r.Missing {
		out = append(out, fmt.Sprintf("__all__ names %s, which the package does not define", n))
	}
	return out
}

// Verifier runs the inspection script against package directories.
type Verifier struct {
	python Interpreter
	log    *zap.Logger
}

// NewVerifier creates a verifier using interp.
func NewVerifier(interp Interpreter, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{python: interp, log: log}
}

// Verify inspects the package at dir. Importing executes the package's
// module-level code.
func (v *Verifier) Verify(ctx context.Context, dir string) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a package directory", dir)
	}

	tmp, err := os.MkdirTemp("", "big-brother-inspect-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	script := filepath.Join(tmp, "check_package.py")
	if err := os.WriteFile(script, inspectScript, 0644); err != nil {
		return nil, fmt.Errorf("failed to write inspection script: %w", err)
	}

	cmd, err := v.python.Command(script, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create Python command: %w", err)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	v.log.Debug("running inspection", zap.String("dir", dir), zap.Strings("args", cmd.Args))
	if err := run(ctx, cmd); err != nil {
		return nil, fmt.Errorf("inspection failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseReport(stdout.Bytes())
}

// run executes cmd, killing it when ctx ends first.
func run(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	}
}

func parseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unexpected inspection output: %w", err)
	}
	return &r, nil
}
