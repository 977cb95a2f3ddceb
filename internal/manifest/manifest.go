// Package manifest holds the bundle manifest: for each asset kind, the named
// bundles and the ordered source paths they are built from.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/types"
)

// Manifest maps kind -> bundle name -> ordered logical source paths. It is
// immutable once constructed.
type Manifest struct {
	bundles map[types.Kind]map[string][]string
}

// New builds a manifest from an in-memory table. The table is copied.
func New(bundles map[types.Kind]map[string][]string) *Manifest {
	m := &Manifest{bundles: make(map[types.Kind]map[string][]string, len(bundles))}
	for kind, named := range bundles {
		dst := make(map[string][]string, len(named))
		for name, paths := range named {
			dst[name] = append([]string(nil), paths...)
		}
		m.bundles[kind] = dst
	}
	return m
}

// Parse decodes a manifest document. YAML is used for .yml/.yaml, JSON
// (comments and trailing commas allowed) for everything else.
func Parse(data []byte, format string) (*Manifest, error) {
	raw := make(map[string]map[string][]string)

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yml", "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.NewManifestError("parsing YAML manifest", err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, errors.NewManifestError("parsing JSON manifest", err)
		}
	}

	bundles := make(map[types.Kind]map[string][]string, len(raw))
	// section records which key declared each bundle, since aliases such as
	// css and style share one namespace.
	section := make(map[types.Kind]map[string]string, len(raw))
	for key, named := range raw {
		kind, err := types.ParseKind(key)
		if err != nil {
			return nil, errors.NewManifestError("unknown manifest section", err)
		}
		if bundles[kind] == nil {
			bundles[kind] = make(map[string][]string)
			section[kind] = make(map[string]string)
		}
		for name, paths := range named {
			if name == "" {
				return nil, errors.NewManifestError(fmt.Sprintf("empty bundle name in %s section", kind), nil)
			}
			for i, p := range paths {
				if strings.TrimSpace(p) == "" {
					return nil, errors.NewManifestError(fmt.Sprintf("%s bundle %q has an empty path at index %d", kind, name, i), nil)
				}
			}
			if prev, dup := section[kind][name]; dup {
				return nil, errors.NewManifestError(fmt.Sprintf("%s bundle %q is declared in both %q and %q sections",
					kind, name, prev, key), nil)
			}
			section[kind][name] = key
			bundles[kind][name] = paths
		}
	}

	return &Manifest{bundles: bundles}, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeManifestInvalid, "reading manifest "+path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Bundle returns a copy of the source list of a bundle, in declared order.
// An unknown bundle is a lookup error.
func (m *Manifest) Bundle(kind types.Kind, name string) ([]string, error) {
	paths, ok := m.bundles[kind][name]
	if !ok {
		return nil, errors.NewBundleNotFound(kind.String(), name)
	}
	return append([]string(nil), paths...), nil
}

// Has reports whether the bundle exists.
func (m *Manifest) Has(kind types.Kind, name string) bool {
	_, ok := m.bundles[kind][name]
	return ok
}

// Names returns the bundle names of a kind, sorted.
func (m *Manifest) Names(kind types.Kind) []string {
	names := make([]string, 0, len(m.bundles[kind]))
	for name := range m.bundles[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
