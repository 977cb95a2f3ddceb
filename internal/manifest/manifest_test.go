package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/bustle/internal/errors"
	"github.com/conneroisu/bustle/internal/types"
)

const yamlManifest = `
style:
  main:
    - css/base.less
    - css/app.css
    - css/base.less
script:
  app:
    - js/vendor.js
    - js/app.js
`

const jsoncManifest = `{
  // stylesheets
  "css": {"main": ["css/base.less", "css/app.css"],},
  "js": {"app": ["js/app.js"]},
}`

func TestParseYAMLPreservesOrderAndDuplicates(t *testing.T) {
	m, err := Parse([]byte(yamlManifest), ".yml")
	require.NoError(t, err)

	paths, err := m.Bundle(types.KindCSS, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"css/base.less", "css/app.css", "css/base.less"}, paths)

	js, err := m.Bundle(types.KindJS, "app")
	require.NoError(t, err)
	assert.Equal(t, []string{"js/vendor.js", "js/app.js"}, js)
}

func TestParseJSONC(t *testing.T) {
	m, err := Parse([]byte(jsoncManifest), "json")
	require.NoError(t, err)

	assert.True(t, m.Has(types.KindCSS, "main"))
	assert.Equal(t, []string{"app"}, m.Names(types.KindJS))
}

func TestParseRejectsUnknownKind(t *testing.T) {
	_, err := Parse([]byte(`{"img": {"logo": ["img/logo.png"]}}`), "json")
	require.Error(t, err)
}

func TestParseRejectsEmptyPath(t *testing.T) {
	_, err := Parse([]byte("css:\n  main:\n    - \"\"\n"), "yaml")
	require.Error(t, err)
}

func TestParseRejectsBundleDeclaredUnderTwoAliases(t *testing.T) {
	doc := `
css:
  main: [css/a.css]
style:
  main: [css/b.css]
  print: [css/print.css]
`
	for i := 0; i < 10; i++ {
		_, err := Parse([]byte(doc), "yaml")
		require.Error(t, err)

		var ae *errors.AssetError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, errors.ErrCodeManifestInvalid, ae.Code)
		assert.Contains(t, err.Error(), `"main"`)
	}

	m, err := Parse([]byte("{\"css\": {\"main\": [\"a.css\"]}, \"style\": {\"print\": [\"p.css\"]}}"), "json")
	require.NoError(t, err, "aliases may share a kind when names differ")
	assert.Equal(t, []string{"main", "print"}, m.Names(types.KindCSS))
}

func TestBundleUnknownIsLookupError(t *testing.T) {
	m := New(map[types.Kind]map[string][]string{
		types.KindCSS: {"main": {"css/app.css"}},
	})

	_, err := m.Bundle(types.KindCSS, "nope")
	require.Error(t, err)
	assert.True(t, errors.IsManifestLookup(err))

	_, err = m.Bundle(types.KindJS, "main")
	assert.True(t, errors.IsManifestLookup(err))
}

func TestBundleReturnsCopy(t *testing.T) {
	src := map[types.Kind]map[string][]string{
		types.KindCSS: {"main": {"css/app.css"}},
	}
	m := New(src)
	src[types.KindCSS]["main"][0] = "mutated.css"

	paths, err := m.Bundle(types.KindCSS, "main")
	require.NoError(t, err)
	paths[0] = "also-mutated.css"

	again, err := m.Bundle(types.KindCSS, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"css/app.css"}, again)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlManifest), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, m.Names(types.KindCSS))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
