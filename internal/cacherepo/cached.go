package cacherepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dopamine-pm/dopamine/internal/cache"
	"github.com/dopamine-pm/dopamine/internal/recipe"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

// CachedRepo is the three-tier (memory → disk → network)
// implementation of Repo. It memoizes (name, version, revision) →
// Recipe facade and name → version list in memory, reads and writes
// the on-disk cache through internal/cache, and falls back to
// NetworkSource when permitted.
type CachedRepo struct {
	layout  *cache.Layout
	interp  recipe.Interpreter
	network NetworkSource
	offline bool

	mu           sync.Mutex
	versionsMemo map[string][]semver.Version
	recipeMemo   map[string]*recipe.Recipe
}

// NewCachedRepo constructs a CachedRepo. network may be nil, which
// behaves as if offline were always true.
func NewCachedRepo(layout *cache.Layout, interp recipe.Interpreter, network NetworkSource, offline bool) *CachedRepo {
	return &CachedRepo{
		layout:       layout,
		interp:       interp,
		network:      network,
		offline:      offline || network == nil,
		versionsMemo: make(map[string][]semver.Version),
		recipeMemo:   make(map[string]*recipe.Recipe),
	}
}

func memoKey(name string, v semver.Version, revision string) string {
	return name + "@" + v.HashKey() + "#" + revision
}

// AvailableVersions implements Repo.
func (r *CachedRepo) AvailableVersions(ctx context.Context, name string) ([]semver.Version, error) {
	r.mu.Lock()
	if vs, ok := r.versionsMemo[name]; ok {
		r.mu.Unlock()
		return vs, nil
	}
	r.mu.Unlock()

	var versions []semver.Version
	if !r.offline {
		netVersions, err := r.network.AvailableVersions(ctx, name)
		switch {
		case err == nil:
			versions = netVersions
		case isServerDown(err):
			// fall through to disk-only lookup below
		default:
			return nil, err
		}
	}

	if versions == nil {
		diskVersions, err := r.layout.Versions(name)
		if err != nil {
			return nil, err
		}
		versions = diskVersions
	}

	versions = semver.SortUnique(versions)
	if len(versions) == 0 {
		return nil, &ErrNoSuchPackage{Name: name}
	}

	r.mu.Lock()
	r.versionsMemo[name] = versions
	r.mu.Unlock()
	return versions, nil
}

// PackRecipe implements Repo.
func (r *CachedRepo) PackRecipe(ctx context.Context, name string, v semver.Version, revision string) (*recipe.Recipe, error) {
	resolved := revision
	if resolved == "" {
		if rev, ok, err := r.layout.LatestRevision(name, v); err == nil && ok {
			resolved = rev
		}
	}

	if resolved != "" {
		if rec := r.memoLookup(name, v, resolved); rec != nil {
			return rec.Acquire(), nil
		}
		if r.layout.RevisionExists(name, v, resolved) {
			data, err := os.ReadFile(r.layout.RecipePath(name, v, resolved))
			if err != nil {
				return nil, err
			}
			return r.materialize(name, v, resolved, data)
		}
	}

	if r.offline {
		return nil, &ErrNoSuchVersion{Name: name, Version: v.String()}
	}

	content, netRevision, err := r.network.FetchRecipe(ctx, name, v, revision)
	if err != nil {
		if isServerDown(err) {
			return nil, err
		}
		return nil, err
	}
	if revision != "" && netRevision != revision {
		return nil, &ErrIntegrity{Name: name, Version: v.String(), RequestRevision: revision, ResponseRevision: netRevision}
	}

	if err := r.writeToDisk(name, v, netRevision, content); err != nil {
		return nil, err
	}
	rec, err := r.materialize(name, v, netRevision, content)
	if err != nil {
		var integrity *ErrIntegrity
		if errors.As(err, &integrity) {
			_ = os.Remove(r.layout.RecipePath(name, v, netRevision))
		}
		return nil, err
	}
	return rec, nil
}

// IsCached implements Repo.
func (r *CachedRepo) IsCached(name string, v semver.Version, revision string) (bool, error) {
	if revision != "" {
		return r.layout.RevisionExists(name, v, revision), nil
	}
	revisions, err := r.layout.Revisions(name, v)
	if err != nil {
		return false, err
	}
	return len(revisions) > 0, nil
}

func (r *CachedRepo) memoLookup(name string, v semver.Version, revision string) *recipe.Recipe {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recipeMemo[memoKey(name, v, revision)]
}

// writeToDisk persists freshly fetched recipe bytes atomically under
// the revision's exclusive lock. PackRecipe compares the requested and
// returned revisions before calling it, and removes the written recipe
// file again if materialize then reports an integrity failure, so a
// bad artifact is not left on disk.
func (r *CachedRepo) writeToDisk(name string, v semver.Version, revision string, content []byte) error {
	lock, err := cache.NewRevisionLock(r.layout.LockPath(name, v, revision))
	if err != nil {
		return err
	}
	return lock.WithLock(func() error {
		if err := r.layout.EnsureRevisionDir(name, v, revision); err != nil {
			return err
		}
		path := r.layout.RecipePath(name, v, revision)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return err
		}
		return os.Rename(tmp, path)
	})
}

func (r *CachedRepo) materialize(name string, v semver.Version, revision string, content []byte) (*recipe.Recipe, error) {
	handle, err := r.interp.Parse(content, r.layout.RecipePath(name, v, revision))
	if err != nil {
		return nil, fmt.Errorf("cacherepo: parsing recipe for %s@%s: %w", name, v, err)
	}

	meta := handle.Metadata()
	if meta.Name != name || !meta.Version.Equal(v) {
		_ = handle.Close()
		return nil, &ErrIntegrity{Name: name, Version: v.String(), RequestRevision: revision, ResponseRevision: meta.Name + "@" + meta.Version.String()}
	}

	rec := recipe.Open(handle)
	if err := rec.Validate(); err != nil {
		_ = rec.Release()
		return nil, err
	}
	if gotRev, err := rec.Revision(); err == nil && revision != "" && gotRev != revision {
		_ = rec.Release()
		return nil, &ErrIntegrity{Name: name, Version: v.String(), RequestRevision: revision, ResponseRevision: gotRev}
	}

	r.mu.Lock()
	r.recipeMemo[memoKey(name, v, revision)] = rec
	r.mu.Unlock()
	return rec.Acquire(), nil
}

func isServerDown(err error) bool {
	var down *ErrServerDown
	return errors.As(err, &down)
}
