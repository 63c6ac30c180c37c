package cacherepo

import (
	"context"

	"github.com/dopamine-pm/dopamine/internal/semver"
)

// NetworkSource is the registry client seam: GET /packages/:name, GET
// /packages/:name/:version/latest or .../:revision. Implemented by
// internal/registryclient.
type NetworkSource interface {
	AvailableVersions(ctx context.Context, name string) ([]semver.Version, error)
	FetchRecipe(ctx context.Context, name string, v semver.Version, revision string) (content []byte, resolvedRevision string, err error)
}
