package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetErrorError(t *testing.T) {
	err := NewCompileError(ErrCodeCompileFailed, "lessc exited with status 1", fmt.Errorf("exit status 1")).
		WithFile("css/base.less").
		WithOutput("ParseError: Unrecognised input\n")

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_COMPILE_FAILED]")
	assert.Contains(t, msg, "css/base.less")
	assert.Contains(t, msg, "exit status 1")
	assert.Contains(t, msg, "ParseError: Unrecognised input")
}

func TestBundleNotFound(t *testing.T) {
	err := NewBundleNotFound("css", "missing")

	assert.True(t, IsManifestLookup(err))
	assert.False(t, IsCompileFailure(err))
	assert.Contains(t, err.Error(), `no css bundle named "missing"`)
	assert.Equal(t, "missing", err.Bundle)
}

func TestClassificationThroughWrapping(t *testing.T) {
	base := NewWriteError("cannot open derived output", fmt.Errorf("permission denied"))
	wrapped := fmt.Errorf("render main: %w", base)

	assert.True(t, IsWriteFailure(wrapped))
	assert.False(t, IsManifestLookup(wrapped))
	assert.False(t, IsRecoverable(wrapped))

	compile := fmt.Errorf("outer: %w", NewCompileError(ErrCodeCompileTimeout, "timed out", context.DeadlineExceeded))
	assert.True(t, IsCompileFailure(compile))
	assert.True(t, IsRecoverable(compile))
	assert.ErrorIs(t, compile, context.DeadlineExceeded)
}

func TestAssetErrorIs(t *testing.T) {
	a := NewBundleNotFound("js", "a")
	b := NewBundleNotFound("css", "b")
	c := NewCompileError(ErrCodeCompileFailed, "x", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, ErrCodeWriteFailed, "nothing"))

	inner := NewBundleNotFound("css", "main").WithContext("mode", "debug")
	ae := WrapBundle(inner, ErrCodeInternalError, "render failed", "main")
	require.NotNil(t, ae)
	assert.Equal(t, ErrorTypeManifest, ae.Type)
	assert.Equal(t, "main", ae.Bundle)
	assert.Equal(t, "debug", ae.Context["mode"])

	io := WrapIO(fmt.Errorf("disk full"), ErrCodeWriteFailed, "write artifact")
	assert.Equal(t, ErrorTypeIO, io.Type)
	assert.False(t, io.Recoverable)

	foreign := WrapBundle(fmt.Errorf("boom"), ErrCodeCompileFailed, "compiling", "app")
	assert.Equal(t, ErrCodeCompileFailed, foreign.Code)
}

func TestWrapBundleKeepsInnerCategory(t *testing.T) {
	write := WrapBundle(NewWriteError("cannot write derived css", fmt.Errorf("read-only file system")),
		ErrCodeCompileFailed, "compiling css/base.less", "main")
	assert.Equal(t, ErrCodeWriteFailed, write.Code)
	assert.Equal(t, ErrorTypeIO, write.Type)
	assert.True(t, IsWriteFailure(write))
	assert.False(t, IsCompileFailure(write))

	timeout := WrapBundle(NewCompileError(ErrCodeCompileTimeout, "timed out", context.DeadlineExceeded),
		ErrCodeCompileFailed, "compiling css/base.less", "main")
	assert.Equal(t, ErrCodeCompileTimeout, timeout.Code)
	assert.True(t, IsCompileFailure(timeout))
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
}

func TestClassificationSeesInnerErrors(t *testing.T) {
	// A broader outer category must not hide what actually failed.
	outer := Wrap(NewWriteError("cannot write derived css", nil), ErrorTypeCompile, ErrCodeCompileFailed, "recompiling")
	assert.True(t, IsWriteFailure(outer))
	assert.True(t, IsCompileFailure(outer))

	joined := stderrors.Join(fmt.Errorf("plain"), fmt.Errorf("bundle app: %w", NewBundleNotFound("js", "app")))
	assert.True(t, IsManifestLookup(joined))
	assert.False(t, IsWriteFailure(joined))
	assert.False(t, IsCompileFailure(nil))
}

func TestErrorCollector(t *testing.T) {
	collector := NewErrorCollector()
	assert.NoError(t, collector.Err())

	collector.AddError(nil)
	assert.NoError(t, collector.Err())

	collector.AddError(NewBundleNotFound("css", "main"))
	collector.AddError(WrapBundle(fmt.Errorf("boom"), ErrCodeInternalError, "minify", "app"))

	err := collector.Err()
	require.Error(t, err)
	assert.True(t, IsManifestLookup(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestErrorCollectorConcurrentAdd(t *testing.T) {
	collector := NewErrorCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			collector.AddError(fmt.Errorf("error %d", i))
		}(i)
	}
	wg.Wait()

	err := collector.Err()
	require.Error(t, err)
	assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 50)
}

type recordingLogger struct {
	errors int
	warns  int
}

func (r *recordingLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	r.errors++
}

func (r *recordingLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	r.warns++
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	h := NewErrorHandler(logger)
	ctx := context.Background()

	h.Handle(ctx, nil)
	h.Handle(ctx, NewCompileError(ErrCodeCompileFailed, "x", nil))
	h.Handle(ctx, NewBundleNotFound("css", "main"))
	h.Handle(ctx, fmt.Errorf("plain"))
	h.Handle(ctx, fmt.Errorf("bundle app: %w", NewValidationError(ErrCodeValidationFailed, "bad name")))

	assert.Equal(t, 2, logger.warns)
	assert.Equal(t, 2, logger.errors)
}
