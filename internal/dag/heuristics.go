package dag

import (
	"context"
	"fmt"

	"github.com/dopamine-pm/dopamine/internal/cacherepo"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

// Heuristic picks one version among a package's considered candidates.
// candidates is sorted ascending by precedence.
type Heuristic interface {
	Choose(ctx context.Context, repo cacherepo.Repo, pkgName string, candidates []semver.Version) (semver.Version, error)
	Name() string
}

// PickHighest always returns the last (highest-precedence) candidate.
type PickHighest struct{}

func (PickHighest) Name() string { return "pickHighest" }

func (PickHighest) Choose(_ context.Context, _ cacherepo.Repo, pkgName string, candidates []semver.Version) (semver.Version, error) {
	if len(candidates) == 0 {
		return semver.Version{}, fmt.Errorf("dag: no considered versions for %q", pkgName)
	}
	return candidates[len(candidates)-1], nil
}

// PreferCached scans candidates from highest to lowest precedence and
// returns the first one already present in the local cache, falling
// back to PickHighest's choice if none is cached.
type PreferCached struct{}

func (PreferCached) Name() string { return "preferCached" }

func (PreferCached) Choose(ctx context.Context, repo cacherepo.Repo, pkgName string, candidates []semver.Version) (semver.Version, error) {
	if len(candidates) == 0 {
		return semver.Version{}, fmt.Errorf("dag: no considered versions for %q", pkgName)
	}

	for i := len(candidates) - 1; i >= 0; i-- {
		cached, err := repo.IsCached(pkgName, candidates[i], "")
		if err != nil {
			return semver.Version{}, err
		}
		if cached {
			return candidates[i], nil
		}
	}

	return PickHighest{}.Choose(ctx, repo, pkgName, candidates)
}

// HeuristicByName resolves the lock-file's "heuristics:" directive to
// a Heuristic value.
func HeuristicByName(name string) (Heuristic, error) {
	switch name {
	case "preferCached":
		return PreferCached{}, nil
	case "pickHighest":
		return PickHighest{}, nil
	default:
		return nil, fmt.Errorf("dag: unknown heuristic %q", name)
	}
}
