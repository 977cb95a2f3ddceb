// Package compiler turns LESS sources into servable CSS by running an
// external lessc binary.
//
// Output is written to <source>.css next to the resolved source. The compiler
// blocks until lessc exits, reports its exit status and stderr, and never
// runs two compilations of the same output concurrently.
package compiler

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/logging"
	"github.com/conneroisu/bustle/internal/staleness"
	"github.com/conneroisu/bustle/internal/types"
	"github.com/conneroisu/bustle/internal/validation"
)

const (
	// DefaultTimeout bounds a single lessc run.
	DefaultTimeout = 30 * time.Second

	// outputMode is the permission of derived CSS files.
	outputMode os.FileMode = 0o644
)

// SourceResolver resolves logical paths and lists source files.
type SourceResolver interface {
	Resolve(logical string) string
	Files(ext string) []string
}

// Options configures a LessCompiler.
type Options struct {
	// Binary is the lessc executable, "lessc" when empty.
	Binary string
	// Timeout bounds each run; DefaultTimeout when zero, unbounded when negative.
	Timeout time.Duration
	Policy  staleness.Policy
	Logger  logging.Logger
}

// LessCompiler compiles LESS sources into derived CSS files.
type LessCompiler struct {
	resolver  SourceResolver
	evaluator *staleness.Evaluator
	binary    string
	timeout   time.Duration
	logger    logging.Logger
	group     singleflight.Group
}

// NewLessCompiler creates a compiler. The binary is validated but not looked
// up; a missing binary surfaces as a compile failure on first use.
func NewLessCompiler(resolver SourceResolver, opts Options) (*LessCompiler, error) {
	if opts.Binary == "" {
		opts.Binary = "lessc"
	}
	if err := validation.ValidateBinary(opts.Binary); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, err.Error())
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &LessCompiler{
		resolver:  resolver,
		evaluator: staleness.NewEvaluator(resolver, opts.Policy),
		binary:    opts.Binary,
		timeout:   opts.Timeout,
		logger:    opts.Logger.WithComponent("compiler"),
	}, nil
}

// Ensure compiles logical only when its derived output is stale. It returns
// the derived logical path and whether a compilation ran.
func (c *LessCompiler) Ensure(ctx context.Context, logical string) (string, bool, error) {
	derived := types.DerivedPath(logical)

	stale, err := c.evaluator.IsStale(logical)
	if err != nil {
		return "", false, err
	}
	if !stale {
		c.logger.Debug(ctx, "Derived output up to date", "source", logical)
		return derived, false, nil
	}

	if _, err := c.Compile(ctx, logical); err != nil {
		return "", false, err
	}
	return derived, true, nil
}

// Compile runs lessc for logical unconditionally and returns the derived
// logical path. Concurrent calls for the same output share one run. The
// shared run is bounded by the compiler timeout, not by any one caller's
// context; a caller that gives up stops waiting without failing the others.
func (c *LessCompiler) Compile(ctx context.Context, logical string) (string, error) {
	source := c.resolver.Resolve(logical)
	output := types.DerivedPath(source)

	ch := c.group.DoChan(output, func() (interface{}, error) {
		return nil, c.run(context.WithoutCancel(ctx), logical, source, output)
	})

	select {
	case <-ctx.Done():
		return "", errors.NewCompileError(errors.ErrCodeCompileFailed,
			"stopped waiting for "+c.binary, ctx.Err()).WithFile(logical)
	case res := <-ch:
		if res.Shared {
			c.logger.Debug(ctx, "Joined in-flight compilation", "source", logical)
		}
		if res.Err != nil {
			return "", res.Err
		}
	}
	return types.DerivedPath(logical), nil
}

func (c *LessCompiler) run(ctx context.Context, logical, source, output string) error {
	if _, err := os.Stat(source); err != nil {
		return errors.NewIOError(errors.ErrCodeSourceMissing, "source not found", err).WithFile(logical)
	}

	op := logging.StartOperation(c.logger, "lessc", "source", logical)

	tmp, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*.tmp")
	if err != nil {
		werr := errors.NewWriteError("opening derived output", err).WithFile(output)
		op.EndWithError(ctx, werr)
		return werr
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(outputMode); err != nil {
		tmp.Close()
		werr := errors.NewWriteError("opening derived output", err).WithFile(output)
		op.EndWithError(ctx, werr)
		return werr
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	dirs := c.SearchPaths(source)
	args := []string{
		"--include-path=" + strings.Join(dirs, string(os.PathListSeparator)),
		source,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdout = tmp
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()
	closeErr := tmp.Close()

	if runErr != nil {
		cerr := c.classify(ctx, runErr).WithFile(logical).WithOutput(stderr.String())
		op.EndWithError(ctx, cerr)
		return cerr
	}
	if closeErr != nil {
		werr := errors.NewWriteError("writing derived output", closeErr).WithFile(output)
		op.EndWithError(ctx, werr)
		return werr
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		werr := errors.NewWriteError("replacing derived output", err).WithFile(output)
		op.EndWithError(ctx, werr)
		return werr
	}

	op.End(ctx)
	return nil
}

func (c *LessCompiler) classify(ctx context.Context, err error) *errors.AssetError {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewCompileError(errors.ErrCodeCompileTimeout,
			fmt.Sprintf("%s timed out after %s", c.binary, c.timeout), ctx.Err())
	}

	var execErr *exec.Error
	if stderrors.As(err, &execErr) {
		return errors.NewCompileError(errors.ErrCodeCompilerMissing,
			fmt.Sprintf("cannot start %s", c.binary), err)
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return errors.NewCompileError(errors.ErrCodeCompileFailed,
			fmt.Sprintf("%s exited with status %d", c.binary, exitErr.ExitCode()), err)
	}

	return errors.NewCompileError(errors.ErrCodeCompileFailed, c.binary+" failed", err)
}

// SearchPaths computes the include directories lessc needs to compile
// target. For every LESS file in the asset sources, the file's directory is
// taken relative to the deepest directory it shares with target. The result
// is de-duplicated and keeps discovery order.
func (c *LessCompiler) SearchPaths(target string) []string {
	return SearchPaths(c.resolver.Files(types.LessExt), target)
}

// SearchPaths is the pure form of LessCompiler.SearchPaths.
func SearchPaths(files []string, target string) []string {
	targetDir := filepath.Dir(target)
	seen := make(map[string]struct{}, len(files))
	dirs := make([]string, 0, len(files))

	for _, f := range files {
		if !strings.HasSuffix(f, types.LessExt) {
			continue
		}
		dir := filepath.Dir(f)
		rel, err := filepath.Rel(commonDir(dir, targetDir), dir)
		if err != nil {
			continue
		}
		if _, ok := seen[rel]; ok {
			continue
		}
		seen[rel] = struct{}{}
		dirs = append(dirs, rel)
	}
	return dirs
}

// commonDir returns the deepest directory containing both a and b.
func commonDir(a, b string) string {
	sep := string(filepath.Separator)
	as := strings.Split(filepath.Clean(a), sep)
	bs := strings.Split(filepath.Clean(b), sep)

	n := 0
	for n < len(as) && n < len(bs) && as[n] == bs[n] {
		n++
	}

	common := strings.Join(as[:n], sep)
	if common == "" && filepath.IsAbs(a) {
		return sep
	}
	if common == "" {
		return "."
	}
	return common
}
