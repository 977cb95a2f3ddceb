package minify

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/identity"
	"github.com/conneroisu/bustle/internal/logging"
	"github.com/conneroisu/bustle/internal/manifest"
	"github.com/conneroisu/bustle/internal/types"
	"github.com/conneroisu/bustle/internal/validation"
)

// hashBytes is how much of the BLAKE3 digest becomes the bundle hash.
const hashBytes = 8

// outputMode is the permission of minified artifacts.
const outputMode os.FileMode = 0o644

// Resolver maps a logical path to an absolute one.
type Resolver interface {
	Resolve(logical string) string
}

// Compiler compiles a LESS source and returns its derived logical path.
type Compiler interface {
	Compile(ctx context.Context, logical string) (string, error)
}

// Options configures a production Builder.
type Options struct {
	Manifest *manifest.Manifest
	Resolver Resolver
	// Compiler is required when LessEnabled is set.
	Compiler    Compiler
	LessEnabled bool
	Minifier    Minifier
	// OutputDir receives <dir>/<bundle>-min.<ext>.
	OutputDir string
	// BuildID becomes the default id of every kind; the current Unix time
	// when empty.
	BuildID string
	// Workers bounds concurrent bundles; GOMAXPROCS when zero.
	Workers int
	Logger  logging.Logger
}

// BundleResult describes one written production artifact.
type BundleResult struct {
	Kind    types.Kind
	Name    string
	Path    string
	Hash    string
	Size    int
	Sources int
}

// Result is the outcome of a production build.
type Result struct {
	Bundles  []BundleResult
	Identity *identity.Store
}

// Builder aggregates and minifies every bundle of a manifest.
type Builder struct {
	opts   Options
	logger logging.Logger
}

// NewBuilder validates options and creates a Builder.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.Manifest == nil || opts.Resolver == nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "production build needs a manifest and a resolver")
	}
	if opts.LessEnabled && opts.Compiler == nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "LESS preprocessing enabled without a compiler")
	}
	if opts.OutputDir == "" {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "production build needs an output directory")
	}
	if opts.Minifier == nil {
		opts.Minifier = ESBuildMinifier{}
	}
	if opts.BuildID == "" {
		opts.BuildID = strconv.FormatInt(time.Now().Unix(), 10)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Builder{opts: opts, logger: opts.Logger.WithComponent("minify")}, nil
}

type job struct {
	kind types.Kind
	name string
}

// Build writes every bundle and returns the identity the artifacts should be
// served with. Bundles are independent: one failing bundle does not stop the
// others, and all failures are returned together. The identity is only
// returned when every bundle succeeded.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	var jobs []job
	for _, kind := range types.Kinds {
		for _, name := range b.opts.Manifest.Names(kind) {
			jobs = append(jobs, job{kind: kind, name: name})
		}
	}

	results := make([]BundleResult, len(jobs))
	collector := errors.NewErrorCollector()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			res, err := b.buildBundle(gctx, j.kind, j.name)
			if err != nil {
				b.logger.Error(gctx, err, "Bundle build failed", "kind", j.kind, "bundle", j.name)
				collector.AddError(err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := collector.Err(); err != nil {
		return nil, err
	}

	hashes := make(map[string]string, len(results))
	for _, r := range results {
		hashes[types.HashKey(r.Kind, r.Name)] = r.Hash
	}

	store := identity.New(identity.Artifact{
		BuildIDCSS:   b.opts.BuildID,
		BuildIDJS:    b.opts.BuildID,
		BuildIDIMG:   b.opts.BuildID,
		BundleHashes: hashes,
	})

	b.logger.Info(ctx, "Production build finished", "bundles", len(results), "build_id", b.opts.BuildID)
	return &Result{Bundles: results, Identity: store}, nil
}

func (b *Builder) buildBundle(ctx context.Context, kind types.Kind, name string) (BundleResult, error) {
	if err := validation.ValidateBundleName(name); err != nil {
		return BundleResult{}, errors.NewValidationError(errors.ErrCodeValidationFailed, err.Error()).WithBundle(name)
	}

	sources, err := b.opts.Manifest.Bundle(kind, name)
	if err != nil {
		return BundleResult{}, err
	}

	parts := make([]string, 0, len(sources))
	for _, item := range sources {
		if err := ctx.Err(); err != nil {
			return BundleResult{}, err
		}

		logical := item
		if kind == types.KindCSS && types.IsDerivable(item) && b.opts.LessEnabled {
			derived, err := b.opts.Compiler.Compile(ctx, item)
			if err != nil {
				return BundleResult{}, errors.WrapBundle(err, errors.ErrCodeCompileFailed, "compiling "+item, name)
			}
			logical = derived
		}

		data, err := os.ReadFile(b.opts.Resolver.Resolve(logical))
		if err != nil {
			return BundleResult{}, errors.NewIOError(errors.ErrCodeSourceMissing, "reading bundle source", err).
				WithFile(logical).WithBundle(name)
		}
		parts = append(parts, string(data))
	}

	minified, err := b.opts.Minifier.Minify(kind, []byte(strings.Join(parts, separator(kind))))
	if err != nil {
		return BundleResult{}, errors.Wrap(err, errors.ErrorTypeCompile, errors.ErrCodeCompileFailed, "minifying").WithBundle(name)
	}

	rel := types.MinifiedPath(kind, name)
	out := filepath.Join(b.opts.OutputDir, filepath.FromSlash(rel))
	if err := writeAtomic(out, minified); err != nil {
		return BundleResult{}, errors.NewWriteError("writing minified bundle", err).WithFile(out).WithBundle(name)
	}

	sum := blake3.Sum256(minified)
	res := BundleResult{
		Kind:    kind,
		Name:    name,
		Path:    out,
		Hash:    hex.EncodeToString(sum[:hashBytes]),
		Size:    len(minified),
		Sources: len(sources),
	}
	b.logger.Debug(ctx, "Wrote bundle", "kind", kind, "bundle", name, "path", out, "hash", res.Hash, "bytes", res.Size)
	return res, nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(outputMode); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
