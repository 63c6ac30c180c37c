// Package cacherepo unifies the local on-disk cache (internal/cache)
// and the remote registry behind a single read/lookup surface: memory
// → disk → network, each tier populating the one above it.
package cacherepo

import (
	"context"

	"github.com/dopamine-pm/dopamine/internal/recipe"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

// Repo is the cache-repo interface consumed by the dependency resolver
// and the build orchestrator.
type Repo interface {
	// AvailableVersions returns every version known for name. An empty
	// result and a nil error never happens: no versions means
	// *ErrNoSuchPackage.
	AvailableVersions(ctx context.Context, name string) ([]semver.Version, error)

	// PackRecipe returns the recipe facade for (name, version,
	// revision). An empty revision means "whichever the cache/registry
	// considers current."
	PackRecipe(ctx context.Context, name string, v semver.Version, revision string) (*recipe.Recipe, error)

	// IsCached reports whether the given (name, version[, revision])
	// is present in the local cache. With an empty revision, it
	// reports whether any revision of the version is present.
	IsCached(name string, v semver.Version, revision string) (bool, error)
}
