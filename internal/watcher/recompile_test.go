package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bustle/internal/errors"
)

type recordingCompiler struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]bool
	errors map[string]error
}

func (c *recordingCompiler) Compile(ctx context.Context, logical string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, logical)
	if err := c.errors[logical]; err != nil {
		return "", err
	}
	if c.fail[logical] {
		return "", fmt.Errorf("lessc exited with status 1")
	}
	return logical + ".css", nil
}

func TestRecompilerLogical(t *testing.T) {
	base := t.TempDir()
	first := filepath.Join(base, "src")
	second := filepath.Join(base, "vendor")
	r := NewRecompiler(nil, []string{first, second}, nil, nil)

	testCases := []struct {
		name    string
		path    string
		logical string
		ok      bool
	}{
		{"first source", filepath.Join(first, "css", "base.less"), "css/base.less", true},
		{"second source", filepath.Join(second, "theme.less"), "theme.less", true},
		{"outside", filepath.Join(base, "other", "x.less"), "", false},
		{"source itself", first, "", false},
		{"sibling prefix", filepath.Join(base, "srcx", "x.less"), "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.Logical(tc.path)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.logical, got)
		})
	}
}

func TestRecompilerCompilesChangedFiles(t *testing.T) {
	src := t.TempDir()
	c := &recordingCompiler{}
	r := NewRecompiler(c, []string{src}, nil, nil)

	err := r.Handle(context.Background(), []ChangeEvent{
		{Type: EventTypeModified, Path: filepath.Join(src, "css", "a.less")},
		{Type: EventTypeCreated, Path: filepath.Join(src, "css", "b.less")},
		{Type: EventTypeDeleted, Path: filepath.Join(src, "css", "gone.less")},
		{Type: EventTypeModified, Path: filepath.Join(src, "css", "app.css")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"css/a.less", "css/b.less"}, c.calls)
}

func TestRecompilerImportChangeRebuildsTargets(t *testing.T) {
	src := t.TempDir()
	c := &recordingCompiler{}
	targets := []string{"css/main.less", "css/print.less"}
	r := NewRecompiler(c, []string{src}, targets, nil)

	err := r.Handle(context.Background(), []ChangeEvent{
		{Type: EventTypeModified, Path: filepath.Join(src, "css", "lib", "mixins.less")},
		{Type: EventTypeModified, Path: filepath.Join(src, "css", "print.less")},
	})
	require.NoError(t, err)
	assert.Equal(t, targets, c.calls, "each target compiled once")
}

func TestRecompilerReportsFailures(t *testing.T) {
	src := t.TempDir()
	c := &recordingCompiler{fail: map[string]bool{"css/bad.less": true}}
	r := NewRecompiler(c, []string{src}, nil, nil)

	err := r.Handle(context.Background(), []ChangeEvent{
		{Type: EventTypeModified, Path: filepath.Join(src, "css", "bad.less")},
		{Type: EventTypeModified, Path: filepath.Join(src, "css", "good.less")},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCompileFailure(err))
	assert.Contains(t, err.Error(), "css/bad.less")
	assert.Equal(t, []string{"css/bad.less", "css/good.less"}, c.calls)
}

func TestRecompilerKeepsFailureCategory(t *testing.T) {
	src := t.TempDir()
	c := &recordingCompiler{errors: map[string]error{
		"css/readonly.less": errors.NewWriteError("cannot write derived css", fmt.Errorf("read-only file system")),
	}}
	r := NewRecompiler(c, []string{src}, nil, nil)

	err := r.Handle(context.Background(), []ChangeEvent{
		{Type: EventTypeModified, Path: filepath.Join(src, "css", "readonly.less")},
	})
	require.Error(t, err)
	assert.True(t, errors.IsWriteFailure(err))
	assert.False(t, errors.IsCompileFailure(err))
	assert.Contains(t, err.Error(), "css/readonly.less")
}
