// Package bundle turns a bundle name into the markup that references it.
//
// In debug mode every source of the bundle is referenced individually, with
// LESS sources compiled on demand and replaced by their derived CSS. In
// production mode the manifest's file list is ignored and a single minified
// artifact is referenced, versioned with the bundle's build id.
package bundle

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/identity"
	"github.com/conneroisu/bustle/internal/logging"
	"github.com/conneroisu/bustle/internal/manifest"
	"github.com/conneroisu/bustle/internal/types"
)

const (
	scriptWrapping = `<script src="%s"></script>`
	styleWrapping  = `<link rel="stylesheet" media="%s" href="%s" />`

	productionCacheSize = 512
)

// Compiler ensures a derivable source has an up to date derived output and
// returns the derived logical path.
type Compiler interface {
	Ensure(ctx context.Context, logical string) (string, bool, error)
}

// Options configures a Builder.
type Options struct {
	Manifest  *manifest.Manifest
	Identity  *identity.Store
	Compiler  Compiler
	StaticURL string
	// LessEnabled turns on compilation of .less sources in debug mode.
	LessEnabled bool
	// Debug is the mode used when a render call does not choose one.
	Debug  bool
	Logger logging.Logger
}

// Builder produces asset references for bundles.
type Builder struct {
	manifest    *manifest.Manifest
	identity    *identity.Store
	compiler    Compiler
	staticURL   string
	lessEnabled bool
	debug       bool
	logger      logging.Logger
	production  *lru.Cache[string, string]
}

// New creates a Builder. Manifest is required; a nil Identity uses dev ids.
func New(opts Options) (*Builder, error) {
	if opts.Manifest == nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "bundle builder needs a manifest")
	}
	if opts.Identity == nil {
		opts.Identity = identity.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	cache, err := lru.New[string, string](productionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating production markup cache: %w", err)
	}

	return &Builder{
		manifest:    opts.Manifest,
		identity:    opts.Identity,
		compiler:    opts.Compiler,
		staticURL:   opts.StaticURL,
		lessEnabled: opts.LessEnabled,
		debug:       opts.Debug,
		logger:      opts.Logger.WithComponent("bundle"),
		production:  cache,
	}, nil
}

// Items returns the logical items emitted for a bundle, before the static URL
// is prepended.
func (b *Builder) Items(ctx context.Context, kind types.Kind, name string, debug bool) ([]string, error) {
	if !debug {
		if !b.manifest.Has(kind, name) {
			return nil, errors.NewBundleNotFound(kind.String(), name)
		}
		id := b.identity.Lookup(kind, name)
		return []string{fmt.Sprintf("%s?build=%s", types.MinifiedPath(kind, name), id)}, nil
	}

	sources, err := b.manifest.Bundle(kind, name)
	if err != nil {
		return nil, err
	}

	items := make([]string, 0, len(sources))
	for _, item := range sources {
		if kind == types.KindCSS && types.IsDerivable(item) && b.lessEnabled && b.compiler != nil {
			derived, compiled, err := b.compiler.Ensure(ctx, item)
			if err != nil {
				return nil, errors.WrapBundle(err, errors.ErrCodeCompileFailed, "compiling "+item, name)
			}
			if compiled {
				b.logger.Debug(ctx, "Compiled derivable source", "bundle", name, "source", item)
			}
			items = append(items, derived)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Build renders a bundle in the requested mode. media only applies to
// stylesheets.
func (b *Builder) Build(ctx context.Context, kind types.Kind, name string, debug bool, media string) (string, error) {
	wrapping, err := b.wrapping(kind, media)
	if err != nil {
		return "", err
	}

	cacheKey := kind.String() + "\x00" + name + "\x00" + media
	if !debug {
		if markup, ok := b.production.Get(cacheKey); ok {
			return markup, nil
		}
	}

	items, err := b.Items(ctx, kind, name, debug)
	if err != nil {
		b.logger.Warn(ctx, err, "Bundle render failed", "kind", kind, "bundle", name, "debug", debug)
		return "", err
	}

	markup := b.render(items, wrapping)
	if !debug {
		b.production.Add(cacheKey, markup)
	}
	return markup, nil
}

// wrapping returns the tag for one URL. media and the URL are substituted in
// a single pass so neither is ever read as a format string.
func (b *Builder) wrapping(kind types.Kind, media string) (func(url string) string, error) {
	switch kind {
	case types.KindJS:
		return func(url string) string {
			return fmt.Sprintf(scriptWrapping, url)
		}, nil
	case types.KindCSS:
		if media == "" {
			media = types.DefaultMedia
		}
		return func(url string) string {
			return fmt.Sprintf(styleWrapping, media, url)
		}, nil
	default:
		return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, "unknown asset kind "+kind.String())
	}
}

func (b *Builder) render(items []string, tag func(url string) string) string {
	tags := make([]string, len(items))
	for i, item := range items {
		tags[i] = tag(b.staticURL + item)
	}
	return strings.Join(tags, "\n")
}

// ContextIDs exposes the global build ids for templates.
func (b *Builder) ContextIDs() map[string]string {
	return b.identity.ContextIDs()
}
