//go:build property

package bundle

import (
	"context"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/bustle/internal/identity"
	"github.com/conneroisu/bustle/internal/manifest"
	"github.com/conneroisu/bustle/internal/types"
)

// TestBundleBuilderProperties validates the reference-building invariants
func TestBundleBuilderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234) // For reproducible results
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: debug mode keeps manifest order and multiplicity
	properties.Property("debug items mirror the manifest", prop.ForAll(
		func(paths []string) bool {
			m := manifest.New(map[types.Kind]map[string][]string{
				types.KindJS: {"b": paths},
			})
			b, err := New(Options{Manifest: m, StaticURL: "/s/"})
			if err != nil {
				return false
			}
			items, err := b.Items(context.Background(), types.KindJS, "b", true)
			if err != nil {
				return false
			}
			return len(items) == len(paths) && (len(paths) == 0 || reflect.DeepEqual(items, paths))
		},
		gen.SliceOf(gen.OneConstOf("js/a.js", "js/b.js", "js/c.js")),
	))

	// Property: production mode emits exactly one item carrying the looked-up id
	properties.Property("production emits one item with the lookup id", prop.ForAll(
		func(name string, defaultID string, override string, useOverride bool) bool {
			hashes := map[string]string{}
			if useOverride {
				hashes[types.HashKey(types.KindCSS, name)] = override
			}
			store := identity.New(identity.Artifact{BuildIDCSS: defaultID, BundleHashes: hashes})
			m := manifest.New(map[types.Kind]map[string][]string{
				types.KindCSS: {name: {"css/a.less"}},
			})
			b, err := New(Options{Manifest: m, Identity: store})
			if err != nil {
				return false
			}
			items, err := b.Items(context.Background(), types.KindCSS, name, false)
			if err != nil || len(items) != 1 {
				return false
			}
			return items[0] == types.MinifiedPath(types.KindCSS, name)+"?build="+store.Lookup(types.KindCSS, name)
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.Identifier(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
