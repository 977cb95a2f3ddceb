// Package resolver maps logical asset paths onto the filesystem.
//
// A Resolver searches its asset sources in registration order and falls back
// to the static root when no source holds the file. The fallback may not
// exist; callers check for existence themselves.
package resolver

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Resolver resolves logical paths against an ordered list of source
// directories.
type Resolver struct {
	root    string
	sources []string
}

// New creates a resolver with the given static root and asset sources.
// Relative directories are made absolute against the working directory.
func New(root string, sources ...string) *Resolver {
	r := &Resolver{root: absDir(root)}
	for _, s := range sources {
		if s == "" {
			continue
		}
		r.sources = append(r.sources, absDir(s))
	}
	return r
}

func absDir(dir string) string {
	if dir == "" {
		return dir
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

// Root returns the canonical static root.
func (r *Resolver) Root() string {
	return r.root
}

// Sources returns the registered asset sources in search order.
func (r *Resolver) Sources() []string {
	out := make([]string, len(r.sources))
	copy(out, r.sources)
	return out
}

// Normalize cleans a logical path into slash-separated form without a
// leading slash.
func Normalize(logical string) string {
	p := path.Clean("/" + filepath.ToSlash(logical))
	return strings.TrimPrefix(p, "/")
}

// Resolve returns the first source holding logical, or root/logical when
// none does. It never fails.
func (r *Resolver) Resolve(logical string) string {
	rel := filepath.FromSlash(Normalize(logical))
	for _, src := range r.sources {
		candidate := filepath.Join(src, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return filepath.Join(r.root, rel)
}

// Files lists every file ending in ext below every source, recursively, as
// absolute paths. Sources are visited in registration order and each source
// in lexical order, so the result is deterministic. Unreadable directories
// are skipped.
func (r *Resolver) Files(ext string) []string {
	var files []string
	for _, src := range r.sources {
		var found []string
		_ = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && p != src {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ext) {
				found = append(found, p)
			}
			return nil
		})
		sort.Strings(found)
		files = append(files, found...)
	}
	return files
}
