package pkgmeta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, ManifestFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	path := writeManifest(t, tempDir, `
name: nav_core
version: 1.2.0
dependencies:
  - geometry_msgs
  - tf2
`)

	manifest, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nav_core", manifest.Name)
	assert.Equal(t, "1.2.0", manifest.Version)
	assert.Equal(t, []string{"geometry_msgs", "tf2"}, manifest.Dependencies)
}

func TestLoad_MissingName(t *testing.T) {
	tempDir := t.TempDir()
	path := writeManifest(t, tempDir, "dependencies: [a, b]\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	tempDir := t.TempDir()
	path := writeManifest(t, tempDir, "name: [unclosed\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	ClearIgnoreCache()
	srcDir := t.TempDir()

	a := writeManifest(t, filepath.Join(srcDir, "pkg_a"), "name: pkg_a\n")
	b := writeManifest(t, filepath.Join(srcDir, "group", "pkg_b"), "name: pkg_b\n")
	// Build artifacts never contain packages.
	writeManifest(t, filepath.Join(srcDir, "build", "pkg_c"), "name: pkg_c\n")

	manifests, err := Discover(srcDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, manifests)
}

func TestDiscover_IgnoreFile(t *testing.T) {
	ClearIgnoreCache()
	srcDir := t.TempDir()

	kept := writeManifest(t, filepath.Join(srcDir, "pkg_a"), "name: pkg_a\n")
	writeManifest(t, filepath.Join(srcDir, "third_party", "vendor_pkg"), "name: vendor_pkg\n")
	require.NoError(t, os.WriteFile(
		filepath.Join(srcDir, ".buildscope-ignore"),
		[]byte("# vendored code is not ours to index\nthird_party/\n"),
		0644,
	))

	manifests, err := Discover(srcDir)
	require.NoError(t, err)
	assert.Equal(t, []string{kept}, manifests)
}

func TestIsIgnored(t *testing.T) {
	patterns := []string{"third_party/", "*.generated"}

	assert.True(t, IsIgnored("third_party/pkg/package.yaml", patterns))
	assert.True(t, IsIgnored("schema.generated", patterns))
	assert.False(t, IsIgnored("pkg_a/package.yaml", patterns))
}
