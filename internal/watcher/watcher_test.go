package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/logging"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestEventTypeFromOp(t *testing.T) {
	assert.Equal(t, EventTypeCreated, eventType(fsnotify.Create))
	assert.Equal(t, EventTypeModified, eventType(fsnotify.Write))
	assert.Equal(t, EventTypeDeleted, eventType(fsnotify.Remove))
	assert.Equal(t, EventTypeRenamed, eventType(fsnotify.Rename))
	assert.Equal(t, EventTypeModified, eventType(fsnotify.Chmod))
	assert.Equal(t, EventTypeCreated, eventType(fsnotify.Create|fsnotify.Write))
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.NotNil(t, watcher.logger)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherReportsEachJoinedError(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelDebug, Format: "json", Output: &buf})
	watcher, err := NewFileWatcher(100*time.Millisecond, logger)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.report(context.Background(), stderrors.Join(
		errors.NewCompileError(errors.ErrCodeCompileFailed, "lessc exited with status 1", nil).WithFile("css/bad.less"),
		errors.NewWriteError("cannot write derived css", fmt.Errorf("read-only file system")),
		fmt.Errorf("plain failure"),
	))

	var levels []string
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &record))
		levels = append(levels, record["level"].(string))
	}
	assert.Equal(t, []string{"WARN", "ERROR", "ERROR"}, levels)
}

func TestFileWatcherFilters(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(LessFilter)
	watcher.AddFilter(NoHiddenFilter)
	assert.Len(t, watcher.filters, 2)

	assert.True(t, watcher.accept("/src/css/base.less"))
	assert.False(t, watcher.accept("/src/css/app.css"))
	assert.False(t, watcher.accept("/src/css/.base.less"))
}

func TestLessFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"css/base.less", true},
		{"/abs/css/lib/mixins.less", true},
		{"css/base.less.css", false},
		{"js/app.js", false},
		{"less", false},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, LessFilter(tc.path))
		})
	}
}

func TestNoHiddenFilter(t *testing.T) {
	assert.True(t, NoHiddenFilter("css/base.less"))
	assert.False(t, NoHiddenFilter("css/.base.less.css.123.tmp"))
	assert.False(t, NoHiddenFilter(".#base.less"))
}

func TestNoGitFilter(t *testing.T) {
	testCases := []struct {
		path     string
		expected bool
	}{
		{"css/base.less", true},
		{".git/config", false},
		{"/repo/.git/HEAD", false},
		{"/repo/.github/style.less", true},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, NoGitFilter(tc.path))
		})
	}
}

func TestDebouncerCollapsesEvents(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.start(ctx)

	require.True(t, d.Add(ChangeEvent{Type: EventTypeCreated, Path: "/b.less"}))
	require.True(t, d.Add(ChangeEvent{Type: EventTypeModified, Path: "/a.less"}))
	require.True(t, d.Add(ChangeEvent{Type: EventTypeModified, Path: "/b.less"}))

	select {
	case batch := <-d.Output():
		require.Len(t, batch, 2)
		assert.Equal(t, "/a.less", batch[0].Path)
		assert.Equal(t, "/b.less", batch[1].Path)
		assert.Equal(t, EventTypeModified, batch[1].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestDebouncerAddDoesNotBlock(t *testing.T) {
	d := NewDebouncer(time.Hour)
	accepted := 0
	for i := 0; i < cap(d.events)+10; i++ {
		if d.Add(ChangeEvent{Path: "/x.less"}) {
			accepted++
		}
	}
	assert.Equal(t, cap(d.events), accepted)
}

func TestAddRecursiveSkipsHiddenDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "css", "lib"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))

	watcher, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddRecursive(root))

	list := watcher.WatchList()
	assert.Contains(t, list, filepath.Join(root, "css"))
	assert.Contains(t, list, filepath.Join(root, "css", "lib"))
	assert.NotContains(t, list, filepath.Join(root, ".git"))
}

func TestAddRecursiveMissingRoot(t *testing.T) {
	watcher, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.Error(t, watcher.AddRecursive(filepath.Join(t.TempDir(), "missing")))
}

func TestFileWatcherDeliversLessChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "css"), 0o755))

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	watcher.AddFilter(LessFilter)
	watcher.AddFilter(NoHiddenFilter)

	var mu sync.Mutex
	var got []string
	watcher.AddHandler(func(ctx context.Context, events []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		for _, ev := range events {
			got = append(got, ev.Path)
		}
		return nil
	})

	require.NoError(t, watcher.AddRecursive(root))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	less := filepath.Join(root, "css", "base.less")
	require.NoError(t, os.WriteFile(less, []byte("body {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "css", "app.css"), []byte("p {}"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, p := range got {
		assert.Equal(t, less, p)
	}
}

func TestFileWatcherWatchesNewDirectories(t *testing.T) {
	root := t.TempDir()

	watcher, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()
	require.NoError(t, watcher.AddRecursive(root))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	dir := filepath.Join(root, "themes")
	require.NoError(t, os.Mkdir(dir, 0o755))

	assert.Eventually(t, func() bool {
		for _, p := range watcher.WatchList() {
			if p == dir {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}
