// Package identity holds the build identity of the running process: one
// default build id per asset kind plus an optional per-bundle hash table.
//
// The store is read once at startup from the build artifact written by a
// production build. A missing or unreadable artifact is not an error; every
// id becomes "dev" and the hash table is empty. A new artifact only takes
// effect after a restart.
package identity

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/logging"
	"github.com/conneroisu/bustle/internal/types"
)

// Context keys exposed to templates.
const (
	KeyBuildIDCSS = "BUILD_ID_CSS"
	KeyBuildIDJS  = "BUILD_ID_JS"
	KeyBuildIDIMG = "BUILD_ID_IMG"
)

// artifactMode is the permission of a written build artifact.
const artifactMode os.FileMode = 0o644

// Artifact is the on-disk form of the build metadata.
type Artifact struct {
	BuildIDCSS   string            `json:"build_id_css"`
	BuildIDJS    string            `json:"build_id_js"`
	BuildIDIMG   string            `json:"build_id_img"`
	BundleHashes map[string]string `json:"bundle_hashes"`
}

// Store is an immutable build identity table.
type Store struct {
	css    string
	js     string
	img    string
	hashes map[string]string
}

// Default returns the store used when no artifact is available.
func Default() *Store {
	return New(Artifact{})
}

// New builds a store from an artifact. Empty ids become "dev".
func New(a Artifact) *Store {
	s := &Store{
		css:    orDefault(a.BuildIDCSS),
		js:     orDefault(a.BuildIDJS),
		img:    orDefault(a.BuildIDIMG),
		hashes: make(map[string]string, len(a.BundleHashes)),
	}
	for k, v := range a.BundleHashes {
		s.hashes[k] = v
	}
	return s
}

func orDefault(id string) string {
	if id == "" {
		return types.DefaultBuildID
	}
	return id
}

// Load reads the artifact at path. Absence or a malformed file yields the
// default store.
func Load(ctx context.Context, path string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug(ctx, "Build artifact not found, using dev build ids", "path", path)
		return Default()
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		logger.Warn(ctx, err, "Build artifact unreadable, using dev build ids", "path", path)
		return Default()
	}

	logger.Debug(ctx, "Loaded build artifact",
		"path", path,
		"build_id_css", a.BuildIDCSS,
		"build_id_js", a.BuildIDJS,
		"bundle_hashes", len(a.BundleHashes))
	return New(a)
}

// DefaultID returns the global build id of a kind.
func (s *Store) DefaultID(kind types.Kind) string {
	switch kind {
	case types.KindCSS:
		return s.css
	case types.KindJS:
		return s.js
	default:
		return types.DefaultBuildID
	}
}

// ImageID returns the image build id.
func (s *Store) ImageID() string {
	return s.img
}

// Lookup returns the per-bundle hash for kind:bundle if one exists, otherwise
// the kind's default build id.
func (s *Store) Lookup(kind types.Kind, bundle string) string {
	if id, ok := s.hashes[types.HashKey(kind, bundle)]; ok {
		return id
	}
	return s.DefaultID(kind)
}

// ContextIDs exposes the three global ids under their template names.
func (s *Store) ContextIDs() map[string]string {
	return map[string]string{
		KeyBuildIDCSS: s.css,
		KeyBuildIDJS:  s.js,
		KeyBuildIDIMG: s.img,
	}
}

// Artifact returns the serializable form of the store.
func (s *Store) Artifact() Artifact {
	hashes := make(map[string]string, len(s.hashes))
	for k, v := range s.hashes {
		hashes[k] = v
	}
	return Artifact{
		BuildIDCSS:   s.css,
		BuildIDJS:    s.js,
		BuildIDIMG:   s.img,
		BundleHashes: hashes,
	}
}

// Write persists the store as a build artifact. The file is replaced
// atomically so a concurrently starting process never reads half of it.
func (s *Store) Write(path string) error {
	data, err := json.MarshalIndent(s.Artifact(), "", "  ")
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "encoding build artifact")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewWriteError("creating build artifact directory", err).WithFile(path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".build-*.json")
	if err != nil {
		return errors.NewWriteError("creating build artifact", err).WithFile(path)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(artifactMode); err != nil {
		tmp.Close()
		return errors.NewWriteError("creating build artifact", err).WithFile(path)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return errors.NewWriteError("writing build artifact", err).WithFile(path)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewWriteError("writing build artifact", err).WithFile(path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.NewWriteError("replacing build artifact", err).WithFile(path)
	}
	return nil
}
