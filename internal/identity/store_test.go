package identity

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bustle/internal/logging"
	"github.com/conneroisu/bustle/internal/types"
)

func TestLoadMissingArtifactDefaultsToDev(t *testing.T) {
	s := Load(context.Background(), filepath.Join(t.TempDir(), "build.json"), logging.Discard())

	assert.Equal(t, "dev", s.Lookup(types.KindCSS, "main"))
	assert.Equal(t, "dev", s.Lookup(types.KindJS, "app"))
	assert.Equal(t, "dev", s.ImageID())
	assert.Empty(t, s.Artifact().BundleHashes)
}

func TestLoadMalformedArtifactDefaultsToDev(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := Load(context.Background(), path, nil)
	assert.Equal(t, "dev", s.DefaultID(types.KindCSS))
}

func TestLookup(t *testing.T) {
	s := New(Artifact{
		BuildIDCSS:   "42",
		BuildIDJS:    "43",
		BundleHashes: map[string]string{"css:main": "abc123"},
	})

	tests := []struct {
		name   string
		kind   types.Kind
		bundle string
		want   string
	}{
		{"override", types.KindCSS, "main", "abc123"},
		{"css default", types.KindCSS, "other", "42"},
		{"js default", types.KindJS, "main", "43"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Lookup(tt.kind, tt.bundle))
		})
	}
}

func TestEmptyIDsFallBackToDev(t *testing.T) {
	s := New(Artifact{BuildIDJS: "7"})

	assert.Equal(t, "dev", s.DefaultID(types.KindCSS))
	assert.Equal(t, "7", s.DefaultID(types.KindJS))
	assert.Equal(t, "dev", s.ImageID())
}

func TestContextIDs(t *testing.T) {
	s := New(Artifact{BuildIDCSS: "c", BuildIDJS: "j", BuildIDIMG: "i"})

	assert.Equal(t, map[string]string{
		"BUILD_ID_CSS": "c",
		"BUILD_ID_JS":  "j",
		"BUILD_ID_IMG": "i",
	}, s.ContextIDs())
}

func TestStoreIsImmutable(t *testing.T) {
	hashes := map[string]string{"js:app": "1"}
	s := New(Artifact{BundleHashes: hashes})
	hashes["js:app"] = "2"

	a := s.Artifact()
	a.BundleHashes["js:app"] = "3"

	assert.Equal(t, "1", s.Lookup(types.KindJS, "app"))
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "build.json")
	want := New(Artifact{
		BuildIDCSS:   "100",
		BuildIDJS:    "100",
		BuildIDIMG:   "100",
		BundleHashes: map[string]string{"css:main": "deadbeef", "js:app": "cafef00d"},
	})

	require.NoError(t, want.Write(path))

	got := Load(context.Background(), path, logging.Discard())
	assert.Equal(t, want.Artifact(), got.Artifact())
	assert.Equal(t, "deadbeef", got.Lookup(types.KindCSS, "main"))
}

func TestWrittenArtifactIsWorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	path := filepath.Join(t.TempDir(), "build.json")
	require.NoError(t, New(Artifact{BuildIDCSS: "1"}).Write(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
