package registryclient

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dopamine-pm/dopamine/internal/semver"
)

func TestManifestCache_RecordAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.toml")
	c := NewManifestCache(path)

	_, ok := c.Lookup("zlib")
	assert.False(t, ok)

	c.Record("zlib", []semver.Version{semver.MustParse("1.2.13"), semver.MustParse("1.3.1")})

	got, ok := c.Lookup("zlib")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "1.2.13", got[0].String())
	assert.Equal(t, "1.3.1", got[1].String())
}

func TestManifestCache_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.toml")
	first := NewManifestCache(path)
	first.Record("openssl", []semver.Version{semver.MustParse("3.2.0")})

	second := NewManifestCache(path)
	got, ok := second.Lookup("openssl")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "3.2.0", got[0].String())
}

func TestManifestCache_EmptyPathIsInMemoryOnly(t *testing.T) {
	c := NewManifestCache("")
	c.Record("zlib", []semver.Version{semver.MustParse("1.0.0")})
	got, ok := c.Lookup("zlib")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", got[0].String())
}
