// Package recipe is a thin, reference-counted facade over the embedded
// recipe interpreter. It owns the recipe-revision fingerprint and
// exposes the interpreter's hook surface (source, dependencies, build,
// pack, patch_install, revision) through the tagged literal-or-callable
// values in hook.go, so static and dynamic recipes share one type.
package recipe

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

// Dependency is a declared dependency: a package name and the version
// spec it must satisfy.
type Dependency struct {
	Name string
	Spec semver.Spec
}

// Dirs bundles the directories a build/pack/patch_install hook acts
// on.
type Dirs struct {
	Source  string
	Build   string
	Install string
}

// DepInfo surfaces an already-built dependency's install directory to
// its dependents.
type DepInfo struct {
	InstallDir string
}

// Metadata is a recipe's static, read-only information.
type Metadata struct {
	Name       string
	Version    semver.Version
	License    string
	Copyright  string
	Languages  []profile.Lang
	Source     SourceValue
	Revision   RevisionValue
	Deps       DependenciesValue
	HasPack    bool
	SourceFile string // empty if the recipe has no backing file
	Content    []byte // the recipe bytes, for fingerprinting
}

// Handle is implemented by the embedded recipe interpreter, an
// external collaborator: construction, parsing, and the scripting
// runtime behind Build/Pack/PatchInstall live on the other side of
// this interface.
type Handle interface {
	Metadata() Metadata
	Build(dirs Dirs, p *profile.Profile, deps map[string]DepInfo) (installed bool, err error)
	Pack(dirs Dirs, p *profile.Profile, dest string) error
	PatchInstall(p *profile.Profile, installDir string) error
	Close() error
}

// Recipe is the shared, reference-counted facade in front of a Handle.
// It is created on parse and held until its last reference drops, at
// which point the interpreter state behind Handle is released.
type Recipe struct {
	handle Handle
	meta   Metadata

	refs int32

	revOnce sync.Once
	revVal  string
	revErr  error
}

// Open wraps h in a new Recipe facade with a reference count of 1.
func Open(h Handle) *Recipe {
	return &Recipe{handle: h, meta: h.Metadata(), refs: 1}
}

// Acquire increments the reference count and returns r for chaining.
func (r *Recipe) Acquire() *Recipe {
	atomic.AddInt32(&r.refs, 1)
	return r
}

// Release decrements the reference count, closing the underlying
// interpreter handle when it reaches zero.
func (r *Recipe) Release() error {
	if atomic.AddInt32(&r.refs, -1) == 0 {
		return r.handle.Close()
	}
	return nil
}

// Name, Version, License, Copyright, and Languages expose the
// recipe's static metadata.
func (r *Recipe) Name() string             { return r.meta.Name }
func (r *Recipe) Version() semver.Version  { return r.meta.Version }
func (r *Recipe) License() string          { return r.meta.License }
func (r *Recipe) Copyright() string        { return r.meta.Copyright }
func (r *Recipe) Languages() []profile.Lang { return r.meta.Languages }
func (r *Recipe) HasPack() bool            { return r.meta.HasPack }

// SourceFile returns the path the recipe was parsed from, or "" if it
// has none (an in-memory or synthetic recipe).
func (r *Recipe) SourceFile() string { return r.meta.SourceFile }

// InTreeSource reports whether the recipe declares an in-tree (literal
// string) source, and if so, the relative path. A literal path must be
// relative; Open's caller is expected to have validated this with
// Validate.
func (r *Recipe) InTreeSource() (string, bool) {
	if r.meta.Source.Kind == SourceLiteral {
		return r.meta.Source.Literal, true
	}
	if r.meta.Source.Kind == SourceDefault {
		return ".", true
	}
	return "", false
}

// Source resolves the recipe's source directory, invoking the fetch
// callable if the source is out-of-tree.
func (r *Recipe) Source() (string, error) {
	if dir, ok := r.meta.Source.Dir(); ok {
		return dir, nil
	}
	if r.meta.Source.Fetch == nil {
		return "", fmt.Errorf("recipe %s: out-of-tree source declared without a fetch hook", r.meta.Name)
	}
	return r.meta.Source.Fetch()
}

// Dependencies evaluates the recipe's dependency list against p. A
// static table returns a copy of the declared dependencies; a callable
// is invoked fresh on every call, with no caching across calls.
func (r *Recipe) Dependencies(p *profile.Profile) ([]Dependency, error) {
	switch r.meta.Deps.Kind {
	case DependenciesStatic:
		out := make([]Dependency, len(r.meta.Deps.Static))
		copy(out, r.meta.Deps.Static)
		return out, nil
	case DependenciesCallable:
		if r.meta.Deps.Func == nil {
			return nil, fmt.Errorf("recipe %s: dependencies callable is nil", r.meta.Name)
		}
		return r.meta.Deps.Func(p)
	default:
		return nil, nil
	}
}

// Build, Pack, and PatchInstall delegate to the interpreter handle.
func (r *Recipe) Build(dirs Dirs, p *profile.Profile, deps map[string]DepInfo) (bool, error) {
	return r.handle.Build(dirs, p, deps)
}

func (r *Recipe) Pack(dirs Dirs, p *profile.Profile, dest string) error {
	return r.handle.Pack(dirs, p, dest)
}

func (r *Recipe) PatchInstall(p *profile.Profile, installDir string) error {
	return r.handle.PatchInstall(p, installDir)
}

// Revision returns the recipe-revision id, computing and caching it on
// first access: invoke the revision hook if present; else hash the
// backing file if known; else hash the recipe content.
func (r *Recipe) Revision() (string, error) {
	r.revOnce.Do(func() {
		if r.meta.Revision.Kind == RevisionCallable {
			r.revVal, r.revErr = r.meta.Revision.Func()
			return
		}
		if r.meta.SourceFile != "" {
			r.revVal, r.revErr = FingerprintFile(r.meta.SourceFile)
			return
		}
		r.revVal = FingerprintBytes(r.meta.Content)
	})
	return r.revVal, r.revErr
}
