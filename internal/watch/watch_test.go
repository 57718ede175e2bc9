package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"ammo/internal/config"
	"ammo/internal/model"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type buildCall struct {
	needSecondary bool
}

type fakeBuilder struct {
	mu    sync.Mutex
	calls []buildCall
	err   error
}

func (b *fakeBuilder) TryBuild(_ context.Context, needSecondary bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, buildCall{needSecondary: needSecondary})
	return b.err
}

func (b *fakeBuilder) Calls() []buildCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]buildCall(nil), b.calls...)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// touch moves the modification time forward so the change is visible even
// on filesystems with coarse timestamps.
func touch(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	later := info.ModTime().Add(3 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
}

func newProjectTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.go"), "package main")
	writeFile(t, filepath.Join(root, "src", "web", "app.js"), "console.log(1)")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main")
	writeFile(t, filepath.Join(root, "target", "debug", "app"), "bin")
	writeFile(t, filepath.Join(root, "README.md"), "# demo")
	return root
}

func newTestWatcher(t *testing.T, root string, builder Builder) (*Watcher, *model.LogSink) {
	t.Helper()
	sink := model.NewLogSink()
	w, err := New(Config{
		Root:            root,
		Interval:        2 * time.Second,
		Ignore:          NewIgnoreSet([]string{".git", "target"}),
		SecondaryMarker: filepath.Join("src", "web") + string(filepath.Separator),
		Builder:         builder,
		Sink:            sink,
	})
	require.NoError(t, err)

	initial, err := TakeSnapshot(root, w.ignore)
	require.NoError(t, err)
	w.prev = initial
	return w, sink
}

func TestIgnoreSet_Match(t *testing.T) {
	set := NewIgnoreSet([]string{".git", "target", "src/gen", "*.log", " "})

	cases := []struct {
		rel, name string
		isDir     bool
		want      bool
	}{
		{".git", ".git", true, true},
		{filepath.Join("crates", "target"), "target", true, true},
		{filepath.Join("src", "gen", "types.go"), "types.go", false, true},
		{filepath.Join("logs", "build.log"), "build.log", false, true},
		{filepath.Join("src", "main.go"), "main.go", false, false},
		{"targets.txt", "targets.txt", false, false},
		{filepath.Join("src", "gen"), "gen", true, true},
		{filepath.Join("lib", "src", "gen", "a.go"), "a.go", false, true},
		{filepath.Join("src", "generated", "a.go"), "a.go", false, false},
		{filepath.Join("xsrc", "gen", "a.go"), "a.go", false, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, set.Match(tc.rel, tc.name, tc.isDir), tc.rel)
	}

	var none *IgnoreSet
	assert.False(t, none.Match("a", "a", false))
}

func TestIgnoreSetWithFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "dist/\n*.tmp\n")

	set, err := NewIgnoreSetWithFile([]string{".git"}, filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.True(t, set.Match("dist", "dist", true))
	assert.True(t, set.Match("scratch.tmp", "scratch.tmp", false))
	assert.True(t, set.Match(".git", ".git", true))
	assert.False(t, set.Match("main.go", "main.go", false))

	missing, err := NewIgnoreSetWithFile([]string{"*.bak"}, filepath.Join(root, "absent"))
	require.NoError(t, err)
	assert.True(t, missing.Match("x.bak", "x.bak", false))
}

func TestTakeSnapshot_RecordsFullPathsAndHonoursIgnore(t *testing.T) {
	root := newProjectTree(t)

	snap, err := TakeSnapshot(root, NewIgnoreSet([]string{".git", "target"}))
	require.NoError(t, err)

	assert.Len(t, snap, 3)
	assert.Contains(t, snap, filepath.Join(root, "src", "main.go"))
	assert.Contains(t, snap, filepath.Join(root, "src", "web", "app.js"))
	assert.Contains(t, snap, filepath.Join(root, "README.md"))
	for path := range snap {
		assert.NotContains(t, path, ".git")
		assert.NotContains(t, path, "target")
	}
}

func TestTakeSnapshot_SameFileNameInTwoDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "mod.rs"), "a")
	writeFile(t, filepath.Join(root, "b", "mod.rs"), "b")

	snap, err := TakeSnapshot(root, nil)
	require.NoError(t, err)
	assert.Len(t, snap, 2)
}

func TestTakeSnapshot_MissingRootFails(t *testing.T) {
	_, err := TakeSnapshot(filepath.Join(t.TempDir(), "gone"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTakeSnapshot_InvalidNameAbortsWalk(t *testing.T) {
	root := newProjectTree(t)
	bad := filepath.Join(root, "src", "\xff.go")
	if err := os.WriteFile(bad, []byte("package main"), 0o644); err != nil {
		t.Skipf("filesystem rejects non-UTF-8 names: %v", err)
	}

	snap, err := TakeSnapshot(root, NewIgnoreSet([]string{".git", "target"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Nil(t, snap)
}

func TestTakeSnapshot_UnreadableDirectoryAbortsWalk(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
	root := newProjectTree(t)
	locked := filepath.Join(root, "src", "web")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	snap, err := TakeSnapshot(root, NewIgnoreSet([]string{".git", "target"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Nil(t, snap)
}

func TestSnapshot_FirstChange(t *testing.T) {
	t0 := time.Unix(1000, 0)
	prev := Snapshot{"a": t0, "b": t0, "gone": t0}

	_, changed := Snapshot{"a": t0, "b": t0}.FirstChange(prev)
	assert.False(t, changed, "removed paths are not reported")

	path, changed := Snapshot{"a": t0, "b": t0.Add(time.Second), "c": t0}.FirstChange(prev)
	assert.True(t, changed)
	assert.Equal(t, "b", path, "first in sorted order")

	path, changed = Snapshot{"a": t0, "new": t0}.FirstChange(Snapshot{"a": t0})
	assert.True(t, changed)
	assert.Equal(t, "new", path)
}

func TestNew_EnumeratesMissingFields(t *testing.T) {
	_, err := New(Config{})

	var missing *config.MissingFieldsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"interval", "builder", "sink"}, missing.Fields)
	assert.Contains(t, err.Error(), "watcher")
}

func TestPoll_UnchangedTreeTriggersNothing(t *testing.T) {
	root := newProjectTree(t)
	builder := &fakeBuilder{}
	w, _ := newTestWatcher(t, root, builder)

	require.NoError(t, w.poll(context.Background()))
	require.NoError(t, w.poll(context.Background()))
	assert.Empty(t, builder.Calls())
}

func TestPoll_SecondaryMarkerClassification(t *testing.T) {
	root := newProjectTree(t)
	builder := &fakeBuilder{}
	w, sink := newTestWatcher(t, root, builder)

	touch(t, filepath.Join(root, "src", "web", "app.js"))
	require.NoError(t, w.poll(context.Background()))

	touch(t, filepath.Join(root, "src", "main.go"))
	require.NoError(t, w.poll(context.Background()))

	assert.Equal(t, []buildCall{{needSecondary: true}, {needSecondary: false}}, builder.Calls())
	assert.Contains(t, ansi.Strip(sink.Lines()[0]), "updated: "+filepath.Join(root, "src", "web", "app.js"))
}

func TestPoll_NewFileCountsAsChange(t *testing.T) {
	root := newProjectTree(t)
	builder := &fakeBuilder{}
	w, _ := newTestWatcher(t, root, builder)

	writeFile(t, filepath.Join(root, "src", "extra.go"), "package main")
	require.NoError(t, w.poll(context.Background()))

	assert.Len(t, builder.Calls(), 1)
}

func TestPoll_IgnoredChangeTriggersNothing(t *testing.T) {
	root := newProjectTree(t)
	builder := &fakeBuilder{}
	w, _ := newTestWatcher(t, root, builder)

	touch(t, filepath.Join(root, "target", "debug", "app"))
	writeFile(t, filepath.Join(root, ".git", "index"), "x")
	require.NoError(t, w.poll(context.Background()))

	assert.Empty(t, builder.Calls())
}

func TestPoll_OneBuildPerTickAndSnapshotAlwaysReplaced(t *testing.T) {
	root := newProjectTree(t)
	builder := &fakeBuilder{err: errors.New("spawn failed")}
	w, sink := newTestWatcher(t, root, builder)

	touch(t, filepath.Join(root, "src", "main.go"))
	touch(t, filepath.Join(root, "README.md"))
	require.NoError(t, w.poll(context.Background()), "a failed build must not stop watching")
	assert.Len(t, builder.Calls(), 1)

	// The second change was absorbed into the replaced snapshot.
	require.NoError(t, w.poll(context.Background()))
	assert.Len(t, builder.Calls(), 1)

	last := ansi.Strip(sink.Lines()[sink.Len()-1])
	assert.Contains(t, last, "spawn failed")
}

func TestPoll_SnapshotFailureIsReturned(t *testing.T) {
	root := newProjectTree(t)
	w, _ := newTestWatcher(t, root, &fakeBuilder{})

	require.NoError(t, os.RemoveAll(root))
	assert.Error(t, w.poll(context.Background()))
}

func TestRun_StopsOnCancel(t *testing.T) {
	root := newProjectTree(t)
	sink := model.NewLogSink()
	w, err := New(Config{Root: root, Interval: 10 * time.Millisecond, Builder: &fakeBuilder{}, Sink: sink})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return sink.Len() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_InitialSnapshotFailureIsFatal(t *testing.T) {
	sink := model.NewLogSink()
	w, err := New(Config{
		Root:     filepath.Join(t.TempDir(), "missing"),
		Interval: time.Second,
		Builder:  &fakeBuilder{},
		Sink:     sink,
	})
	require.NoError(t, err)

	err = w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, ansi.Strip(sink.Lines()[0]), "watcher stopped")
}
