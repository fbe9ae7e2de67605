package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/big-brother/internal/walk"
)

// Test Plan for Watcher:
// - New succeeds on a directory and fails on a missing one
// - A .py change is delivered as a root-relative path after the debounce
// - Rapid changes to several files are batched, deduplicated and sorted
// - Removed files are reported separately from changed ones
// - Non-Python, skipped and ignored paths never produce a batch
// - New directories are watched recursively
// - Pause holds batches; Resume delivers what accumulated
// - Start rejects a nil callback and a second start
// - Stop is idempotent and safe before Start

const testDebounce = 50 * time.Millisecond

type recorder struct {
	batches chan Batch
}

func newRecorder() *recorder {
	return &recorder{batches: make(chan Batch, 16)}
}

func (r *recorder) onBatch(b Batch) {
	r.batches <- b
}

func (r *recorder) wait(t *testing.T) Batch {
	t.Helper()
	select {
	case b := <-r.batches:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered before timeout")
		return Batch{}
	}
}

func (r *recorder) none(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case b := <-r.batches:
		t.Fatalf("unexpected batch: %+v", b)
	case <-time.After(within):
	}
}

func startWatcher(t *testing.T, dir string, filter *walk.Filter) (*Watcher, *recorder) {
	t.Helper()
	w, err := New(dir, Options{Filter: filter, Debounce: testDebounce})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	rec := newRecorder()
	require.NoError(t, w.Start(context.Background(), rec.onBatch))
	time.Sleep(50 * time.Millisecond)
	return w, rec
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNew(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := New(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, w.Stop())

	w, err = New(filepath.Join(dir, "missing"), Options{})
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestWatcher_SingleChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, rec := startWatcher(t, dir, nil)

	writeFile(t, filepath.Join(dir, "module.py"), "x = 1\n")

	b := rec.wait(t)
	assert.Equal(t, []string{"module.py"}, b.Changed)
	assert.Empty(t, b.Removed)
	assert.Equal(t, 1, b.Len())
}

func TestWatcher_BatchesAndDeduplicates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, rec := startWatcher(t, dir, nil)

	writeFile(t, filepath.Join(dir, "b.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "b.py"), "x = 2\n")

	assert.Equal(t, []string{"a.py", "b.py"}, rec.wait(t).Changed)
}

func TestWatcher_Removals(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gone := filepath.Join(dir, "gone.py")
	writeFile(t, gone, "x = 1\n")
	_, rec := startWatcher(t, dir, nil)

	require.NoError(t, os.Remove(gone))

	b := rec.wait(t)
	assert.Equal(t, []string{"gone.py"}, b.Removed)
	assert.Empty(t, b.Changed)
}

func TestWatcher_FilteredPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	skipped := filepath.Join(dir, "__pycache__")
	require.NoError(t, os.MkdirAll(skipped, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gen"), 0755))

	filter, err := walk.NewFilter([]string{"__pycache__"}, []string{"gen/**"})
	require.NoError(t, err)
	_, rec := startWatcher(t, dir, filter)

	writeFile(t, filepath.Join(dir, "notes.md"), "# notes\n")
	writeFile(t, filepath.Join(skipped, "cached.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "gen", "api_pb2.py"), "x = 1\n")

	rec.none(t, 4*testDebounce)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, rec := startWatcher(t, dir, nil)

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0755))
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(sub, "core.py"), "x = 1\n")

	assert.Contains(t, rec.wait(t).Changed, "pkg/core.py")
}

func TestWatcher_PauseResume(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, rec := startWatcher(t, dir, nil)

	w.Pause()
	writeFile(t, filepath.Join(dir, "paused.py"), "x = 1\n")
	rec.none(t, 4*testDebounce)

	w.Resume()
	assert.Equal(t, []string{"paused.py"}, rec.wait(t).Changed)
}

func TestWatcher_StartErrors(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	assert.Error(t, w.Start(context.Background(), nil))

	require.NoError(t, w.Start(context.Background(), func(Batch) {}))
	assert.Error(t, w.Start(context.Background(), func(Batch) {}))
}

func TestWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	w, err := New(t.TempDir(), Options{})
	require.NoError(t, err)

	// never started
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
