package bundle

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/conneroisu/bustle/internal/types"
)

// RenderOption adjusts a single Script or Style call.
type RenderOption func(*renderOptions)

type renderOptions struct {
	debug *bool
	media string
}

// WithDebug selects debug or production mode for one call.
func WithDebug(debug bool) RenderOption {
	return func(o *renderOptions) {
		o.debug = &debug
	}
}

// WithMedia sets the stylesheet media attribute.
func WithMedia(media string) RenderOption {
	return func(o *renderOptions) {
		o.media = media
	}
}

func (b *Builder) options(opts []RenderOption) renderOptions {
	o := renderOptions{media: types.DefaultMedia}
	for _, opt := range opts {
		opt(&o)
	}
	if o.debug == nil {
		o.debug = &b.debug
	}
	return o
}

// Script renders the script tags of a JS bundle.
func (b *Builder) Script(ctx context.Context, name string, opts ...RenderOption) (string, error) {
	o := b.options(opts)
	return b.Build(ctx, types.KindJS, name, *o.debug, "")
}

// Style renders the link tags of a CSS bundle.
func (b *Builder) Style(ctx context.Context, name string, opts ...RenderOption) (string, error) {
	o := b.options(opts)
	return b.Build(ctx, types.KindCSS, name, *o.debug, o.media)
}

// ScriptComponent defers Script to render time so a templ layout can place
// the bundle's tags directly.
func (b *Builder) ScriptComponent(name string, opts ...RenderOption) templ.Component {
	return b.component(types.KindJS, name, opts)
}

// StyleComponent is the stylesheet counterpart of ScriptComponent.
func (b *Builder) StyleComponent(name string, opts ...RenderOption) templ.Component {
	return b.component(types.KindCSS, name, opts)
}

func (b *Builder) component(kind types.Kind, name string, opts []RenderOption) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := b.options(opts)
		media := o.media
		if kind == types.KindJS {
			media = ""
		}
		markup, err := b.Build(ctx, kind, name, *o.debug, media)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, markup)
		return err
	})
}
