// Package cache computes and creates paths into the local,
// content-addressed package cache, and provides the per-revision
// advisory lock that serializes concurrent writers.
//
// Layout:
//
//	<root>/<pkg>/<version>/<revision>/            recipe file(s)
//	<root>/<pkg>/<version>/<revision>.lock        advisory lock sibling
//	<root>/<pkg>/<version>/<revision>/<shorthash>-<profile-basename>/
//	    build/ install/
//	    source.flag config.flag build.flag install.flag
package cache

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/dopamine-pm/dopamine/internal/semver"
)

// RecipeFileName is the name the recipe file takes inside a revision
// directory.
const RecipeFileName = "dopamine.toml"

// Layout computes paths into a cache rooted at Root.
type Layout struct {
	Root string
}

// New returns a Layout rooted at root.
func New(root string) *Layout {
	return &Layout{Root: root}
}

// PackageDir returns <root>/<pkg>.
func (l *Layout) PackageDir(pkg string) string {
	return filepath.Join(l.Root, pkg)
}

// VersionDir returns <root>/<pkg>/<version>.
func (l *Layout) VersionDir(pkg string, v semver.Version) string {
	return filepath.Join(l.PackageDir(pkg), v.String())
}

// RevisionDir returns <root>/<pkg>/<version>/<revision>.
func (l *Layout) RevisionDir(pkg string, v semver.Version, revision string) string {
	return filepath.Join(l.VersionDir(pkg, v), revision)
}

// LockPath returns the advisory lock sibling of a revision directory:
// <root>/<pkg>/<version>/<revision>.lock.
func (l *Layout) LockPath(pkg string, v semver.Version, revision string) string {
	return filepath.Join(l.VersionDir(pkg, v), revision+".lock")
}

// RecipePath returns the path to the recipe file inside a revision
// directory.
func (l *Layout) RecipePath(pkg string, v semver.Version, revision string) string {
	return filepath.Join(l.RevisionDir(pkg, v, revision), RecipeFileName)
}

// ProfileDir returns the per-profile work directory under a revision:
// <revision>/<shorthash>-<profile-basename>.
func (l *Layout) ProfileDir(pkg string, v semver.Version, revision, shortHash, profileBasename string) string {
	return filepath.Join(l.RevisionDir(pkg, v, revision), shortHash+"-"+profileBasename)
}

// BuildDir and InstallDir are the two children of a profile directory.
func (l *Layout) BuildDir(profileDir string) string   { return filepath.Join(profileDir, "build") }
func (l *Layout) InstallDir(profileDir string) string { return filepath.Join(profileDir, "install") }

// Flag file names, relative to a profile directory.
const (
	SourceFlagName  = "source.flag"
	ConfigFlagName  = "config.flag"
	BuildFlagName   = "build.flag"
	InstallFlagName = "install.flag"
)

func (l *Layout) FlagPath(profileDir, name string) string {
	return filepath.Join(profileDir, name)
}

// RevisionExists reports whether a revision is considered to exist: it
// must contain a recipe file, not merely the directory.
func (l *Layout) RevisionExists(pkg string, v semver.Version, revision string) bool {
	info, err := os.Stat(l.RecipePath(pkg, v, revision))
	return err == nil && !info.IsDir()
}

// EnsureRevisionDir creates the revision directory (and its package and
// version parents) if absent.
func (l *Layout) EnsureRevisionDir(pkg string, v semver.Version, revision string) error {
	return os.MkdirAll(l.RevisionDir(pkg, v, revision), 0o755)
}

// EnsureProfileDirs creates the build/ and install/ children of a
// profile directory.
func (l *Layout) EnsureProfileDirs(profileDir string) error {
	if err := os.MkdirAll(l.BuildDir(profileDir), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(l.InstallDir(profileDir), 0o755)
}

// Packages enumerates the package names present on disk.
func (l *Layout) Packages() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Versions enumerates the versions present on disk for pkg, parsing
// each directory name as a semver.Version and skipping any that don't
// parse.
func (l *Layout) Versions(pkg string) ([]semver.Version, error) {
	entries, err := os.ReadDir(l.PackageDir(pkg))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var versions []semver.Version
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if v, err := semver.Parse(e.Name()); err == nil {
			versions = append(versions, v)
		}
	}
	return semver.SortUnique(versions), nil
}

// Revisions enumerates the revisions present on disk for pkg@v that
// satisfy RevisionExists.
func (l *Layout) Revisions(pkg string, v semver.Version) ([]string, error) {
	entries, err := os.ReadDir(l.VersionDir(pkg, v))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var revisions []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if l.RevisionExists(pkg, v, e.Name()) {
			revisions = append(revisions, e.Name())
		}
	}
	sort.Strings(revisions)
	return revisions, nil
}
