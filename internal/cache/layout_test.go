package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dopamine-pm/dopamine/internal/semver"
)

func mustVersion(t *testing.T, s string) semver.Version {
	t.Helper()
	v, err := semver.Parse(s)
	if err != nil {
		t.Fatalf("semver.Parse(%q): %v", s, err)
	}
	return v
}

func TestLayout_PathComputation(t *testing.T) {
	l := New("/cache")
	v := mustVersion(t, "1.2.3")

	if got, want := l.PackageDir("zlib"), filepath.Join("/cache", "zlib"); got != want {
		t.Fatalf("PackageDir = %q, want %q", got, want)
	}
	if got, want := l.VersionDir("zlib", v), filepath.Join("/cache", "zlib", "1.2.3"); got != want {
		t.Fatalf("VersionDir = %q, want %q", got, want)
	}
	if got, want := l.RevisionDir("zlib", v, "abc123"), filepath.Join("/cache", "zlib", "1.2.3", "abc123"); got != want {
		t.Fatalf("RevisionDir = %q, want %q", got, want)
	}
	if got, want := l.LockPath("zlib", v, "abc123"), filepath.Join("/cache", "zlib", "1.2.3", "abc123.lock"); got != want {
		t.Fatalf("LockPath = %q, want %q", got, want)
	}
	if got, want := l.RecipePath("zlib", v, "abc123"), filepath.Join("/cache", "zlib", "1.2.3", "abc123", RecipeFileName); got != want {
		t.Fatalf("RecipePath = %q, want %q", got, want)
	}

	profileDir := l.ProfileDir("zlib", v, "abc123", "deadbeef01", "default-c")
	if got, want := profileDir, filepath.Join("/cache", "zlib", "1.2.3", "abc123", "deadbeef01-default-c"); got != want {
		t.Fatalf("ProfileDir = %q, want %q", got, want)
	}
	if got, want := l.BuildDir(profileDir), filepath.Join(profileDir, "build"); got != want {
		t.Fatalf("BuildDir = %q, want %q", got, want)
	}
	if got, want := l.InstallDir(profileDir), filepath.Join(profileDir, "install"); got != want {
		t.Fatalf("InstallDir = %q, want %q", got, want)
	}
}

func TestLayout_EnsureAndEnumerate(t *testing.T) {
	root := t.TempDir()
	l := New(root)
	v1 := mustVersion(t, "1.0.0")
	v2 := mustVersion(t, "2.0.0")

	for _, rev := range []struct {
		v   semver.Version
		rev string
	}{{v1, "rev-a"}, {v1, "rev-b"}, {v2, "rev-c"}} {
		if err := l.EnsureRevisionDir("zlib", rev.v, rev.rev); err != nil {
			t.Fatalf("EnsureRevisionDir: %v", err)
		}
		// RevisionExists requires an actual recipe file, not just the dir.
		if err := os.WriteFile(l.RecipePath("zlib", rev.v, rev.rev), []byte("name = \"zlib\"\n"), 0o644); err != nil {
			t.Fatalf("write recipe: %v", err)
		}
	}

	pkgs, err := l.Packages()
	if err != nil {
		t.Fatalf("Packages: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0] != "zlib" {
		t.Fatalf("Packages = %v, want [zlib]", pkgs)
	}

	versions, err := l.Versions("zlib")
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Versions = %v, want 2 entries", versions)
	}

	revisions, err := l.Revisions("zlib", v1)
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revisions) != 2 || revisions[0] != "rev-a" || revisions[1] != "rev-b" {
		t.Fatalf("Revisions = %v, want [rev-a rev-b]", revisions)
	}
}

func TestLayout_RevisionExists_RequiresRecipeFile(t *testing.T) {
	root := t.TempDir()
	l := New(root)
	v := mustVersion(t, "1.0.0")

	if err := l.EnsureRevisionDir("zlib", v, "rev-a"); err != nil {
		t.Fatalf("EnsureRevisionDir: %v", err)
	}
	if l.RevisionExists("zlib", v, "rev-a") {
		t.Fatal("expected RevisionExists false without a recipe file")
	}

	if err := os.WriteFile(l.RecipePath("zlib", v, "rev-a"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !l.RevisionExists("zlib", v, "rev-a") {
		t.Fatal("expected RevisionExists true once a recipe file is written")
	}
}

func TestLayout_EnumerateOnMissingRoot(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "does-not-exist"))

	pkgs, err := l.Packages()
	if err != nil || pkgs != nil {
		t.Fatalf("Packages on missing root = (%v, %v), want (nil, nil)", pkgs, err)
	}

	versions, err := l.Versions("zlib")
	if err != nil || versions != nil {
		t.Fatalf("Versions on missing package dir = (%v, %v), want (nil, nil)", versions, err)
	}
}
