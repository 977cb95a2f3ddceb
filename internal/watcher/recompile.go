package watcher

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/logging"
	"github.com/conneroisu/bustle/internal/types"
)

// Compiler recompiles a LESS source by logical path.
type Compiler interface {
	Compile(ctx context.Context, logical string) (string, error)
}

// Recompiler turns change events under the asset sources into LESS
// compilations.
type Recompiler struct {
	compiler Compiler
	sources  []string
	targets  []string
	isTarget map[string]bool
	logger   logging.Logger
}

// NewRecompiler creates a recompiler for files under sources. When targets
// is non-empty, a changed file that is not itself a target is treated as an
// import and every target is recompiled.
func NewRecompiler(compiler Compiler, sources, targets []string, logger logging.Logger) *Recompiler {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Recompiler{
		compiler: compiler,
		targets:  append([]string(nil), targets...),
		isTarget: make(map[string]bool, len(targets)),
		logger:   logger.WithComponent("recompile"),
	}
	for _, s := range sources {
		if abs, err := filepath.Abs(s); err == nil {
			r.sources = append(r.sources, abs)
		}
	}
	for _, t := range targets {
		r.isTarget[t] = true
	}
	return r
}

// Logical maps an absolute path back to its logical path using the first
// source that contains it.
func (r *Recompiler) Logical(path string) (string, bool) {
	for _, src := range r.sources {
		rel, err := filepath.Rel(src, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(rel), true
	}
	return "", false
}

// Handle is a ChangeHandler.
func (r *Recompiler) Handle(ctx context.Context, events []ChangeEvent) error {
	var queue []string
	seen := map[string]bool{}
	push := func(logical string) {
		if !seen[logical] {
			seen[logical] = true
			queue = append(queue, logical)
		}
	}

	for _, ev := range events {
		if ev.Type == EventTypeDeleted || !types.IsDerivable(ev.Path) {
			continue
		}
		logical, ok := r.Logical(ev.Path)
		if !ok {
			continue
		}
		if len(r.targets) == 0 || r.isTarget[logical] {
			push(logical)
			continue
		}
		for _, t := range r.targets {
			push(t)
		}
	}

	var errs []error
	for _, logical := range queue {
		start := logging.StartOperation(r.logger, "recompile", "path", logical)
		out, err := r.compiler.Compile(ctx, logical)
		if err != nil {
			start.EndWithError(ctx, err)
			errs = append(errs, errors.WrapFile(err, errors.ErrCodeCompileFailed, "recompiling", logical))
			continue
		}
		start.End(ctx)
		r.logger.Info(ctx, "Recompiled", "path", logical, "output", out)
	}
	return stderrors.Join(errs...)
}
