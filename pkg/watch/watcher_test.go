package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	deierrors "github.com/panbanda/dei/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func goFilesOnly(path string) bool {
	return strings.HasSuffix(path, ".go")
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		opts     []Option
		debounce time.Duration
	}{
		{"default debounce", nil, DefaultDebounce},
		{"custom debounce", []Option{WithDebounce(time.Second)}, time.Second},
		{"negative debounce keeps default", []Option{WithDebounce(-time.Second)}, DefaultDebounce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(dir, tt.opts...)
			require.NoError(t, err)
			defer w.Close()

			assert.Equal(t, tt.debounce, w.debounce)
			assert.Equal(t, dir, w.root)
			assert.NotNil(t, w.logger)
		})
	}
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := New(filepath.Join(dir, "missing"))
	assert.Equal(t, deierrors.KindPathNotFound, deierrors.KindOf(err))

	file := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main\n"), 0o644))
	_, err = New(file)
	assert.Equal(t, deierrors.KindConfig, deierrors.KindOf(err))
}

func TestAddTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "pkg"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "lib"), 0o755))

	w, err := New(dir, WithIgnoreDirs([]string{"node_modules"}))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.addTree(dir))
	assert.ElementsMatch(t, []string{
		dir,
		filepath.Join(dir, "src"),
		filepath.Join(dir, "src", "pkg"),
	}, w.Watched())
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, WithIgnoreDirs([]string{"vendor"}), WithFilter(goFilesOnly))
	require.NoError(t, err)
	defer w.Close()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write go file", fsnotify.Event{Name: filepath.Join(dir, "a.go"), Op: fsnotify.Write}, true},
		{"create go file", fsnotify.Event{Name: filepath.Join(dir, "b.go"), Op: fsnotify.Create}, true},
		{"remove go file", fsnotify.Event{Name: filepath.Join(dir, "c.go"), Op: fsnotify.Remove}, true},
		{"rename go file", fsnotify.Event{Name: filepath.Join(dir, "d.go"), Op: fsnotify.Rename}, true},
		{"chmod ignored", fsnotify.Event{Name: filepath.Join(dir, "e.go"), Op: fsnotify.Chmod}, false},
		{"filtered file", fsnotify.Event{Name: filepath.Join(dir, "README.md"), Op: fsnotify.Write}, false},
		{"ignored dir", fsnotify.Event{Name: filepath.Join(dir, "vendor", "x.go"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}

func TestRelevantNewDirectory(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)
	defer w.Close()

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))

	assert.False(t, w.relevant(fsnotify.Event{Name: sub, Op: fsnotify.Create}))
	assert.Contains(t, w.Watched(), sub)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, WithDebounce(200*time.Millisecond), WithFilter(goFilesOnly))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(changed []string) { batches <- changed })
	}()

	// Wait for the root to be watched before writing.
	require.Eventually(t, func() bool { return len(w.Watched()) > 0 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))

	select {
	case changed := <-batches:
		assert.Equal(t, []string{filepath.Join(dir, "a.go"), filepath.Join(dir, "b.go")}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch reported")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunStopsOnClose(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background(), func([]string) {})
	}()

	require.Eventually(t, func() bool { return len(w.Watched()) > 0 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, w.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
