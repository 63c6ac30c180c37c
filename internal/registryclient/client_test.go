package registryclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dopamine-pm/dopamine/internal/cacherepo"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

func TestClient_AvailableVersions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"zlib","versions":["1.2.13","1.3.1"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	versions, err := c.AvailableVersions(context.Background(), "zlib")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "1.2.13", versions[0].String())
}

func TestClient_AvailableVersions_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.AvailableVersions(context.Background(), "nonexistent")
	require.Error(t, err)
	var noPkg *cacherepo.ErrNoSuchPackage
	require.ErrorAs(t, err, &noPkg)
}

func TestClient_AvailableVersions_ServerErrorFallsBackToManifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	manifestPath := filepath.Join(t.TempDir(), "manifest.toml")
	manifest := NewManifestCache(manifestPath)
	manifest.Record("zlib", []semver.Version{semver.MustParse("1.2.13")})

	c := New(srv.URL)
	c.Manifest = manifest

	versions, err := c.AvailableVersions(context.Background(), "zlib")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "1.2.13", versions[0].String())
}

func TestClient_AvailableVersions_ServerErrorNoManifestFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.AvailableVersions(context.Background(), "zlib")
	require.Error(t, err)
	var down *cacherepo.ErrServerDown
	require.ErrorAs(t, err, &down)
}

func TestClient_FetchRecipe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recipe":"name = \"zlib\"","revision":"abc123"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	content, revision, err := c.FetchRecipe(context.Background(), "zlib", semver.MustParse("1.3.1"), "")
	require.NoError(t, err)
	assert.Equal(t, "abc123", revision)
	assert.Contains(t, string(content), "zlib")
}
