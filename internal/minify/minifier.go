// Package minify builds the production artifacts referenced in non-debug
// mode: one minified file per bundle plus the build artifact that versions
// them.
package minify

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/bustle/internal/types"
)

// Minifier reduces the concatenated sources of one bundle.
type Minifier interface {
	Minify(kind types.Kind, source []byte) ([]byte, error)
}

// ESBuildMinifier minifies CSS and JS with esbuild's transform API.
type ESBuildMinifier struct {
	// Target is the esbuild language target, ESNext when zero.
	Target api.Target
}

// Minify implements Minifier.
func (m ESBuildMinifier) Minify(kind types.Kind, source []byte) ([]byte, error) {
	var loader api.Loader
	switch kind {
	case types.KindCSS:
		loader = api.LoaderCSS
	case types.KindJS:
		loader = api.LoaderJS
	default:
		return nil, fmt.Errorf("cannot minify %s assets", kind)
	}

	target := m.Target
	if target == api.DefaultTarget {
		target = api.ESNext
	}

	result := api.Transform(string(source), api.TransformOptions{
		Loader:            loader,
		Target:            target,
		MinifyWhitespace:  true,
		MinifyIdentifiers: kind == types.KindJS,
		MinifySyntax:      true,
		LegalComments:     api.LegalCommentsNone,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			if e.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d: %s", e.Location.Line, e.Location.Column, e.Text))
			} else {
				msgs = append(msgs, e.Text)
			}
		}
		return nil, fmt.Errorf("esbuild: %s", strings.Join(msgs, "; "))
	}
	return result.Code, nil
}

// separator joins bundle sources. JS sources get a semicolon so a file
// without a trailing one cannot merge into the next.
func separator(kind types.Kind) string {
	if kind == types.KindJS {
		return "\n;\n"
	}
	return "\n"
}
