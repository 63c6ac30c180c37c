package dag

import (
	"context"
	"fmt"

	"github.com/dopamine-pm/dopamine/internal/cacherepo"
	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/recipe"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

// Prepare performs the top-down construction pass. root is the
// already-open root recipe facade; Prepare does not
// release it. The returned DAG has a synthetic root package with the
// root recipe's own version as its sole member, and one Package per
// transitively discovered dependency name.
func Prepare(ctx context.Context, root *recipe.Recipe, prof *profile.Profile, repo cacherepo.Repo, h Heuristic) (*DAG, error) {
	d := New()

	rootPkg := d.EnsurePackage(root.Name())
	d.SetRoot(rootPkg)
	rootVer := d.EnsureVersion(rootPkg, root.Version())
	d.MarkConsidered(rootVer)
	d.SetVersionRevision(rootVer, mustRevision(root))

	visited := map[VersionID]bool{rootVer: true}
	if err := discover(ctx, d, rootVer, root, prof, repo, h, visited); err != nil {
		return nil, err
	}
	return d, nil
}

func mustRevision(r *recipe.Recipe) string {
	rev, err := r.Revision()
	if err != nil {
		return ""
	}
	return rev
}

// discover recurses from the version at upVID, whose recipe facade is
// upRec, discovering its declared dependencies one package at a time.
func discover(ctx context.Context, d *DAG, upVID VersionID, upRec *recipe.Recipe, prof *profile.Profile, repo cacherepo.Repo, h Heuristic, visited map[VersionID]bool) error {
	deps, err := upRec.Dependencies(prof)
	if err != nil {
		return fmt.Errorf("dag: evaluating dependencies of %s@%s: %w", upRec.Name(), upRec.Version(), err)
	}

	for _, dep := range deps {
		pkgID := d.EnsurePackage(dep.Name)

		avail, err := repo.AvailableVersions(ctx, dep.Name)
		if err != nil {
			return fmt.Errorf("dag: listing versions of %q: %w", dep.Name, err)
		}

		matched := matchVersions(avail, dep.Spec)
		if len(matched) == 0 {
			return fmt.Errorf("dag: no version of %q satisfies %s (required by %s@%s)",
				dep.Name, dep.Spec, upRec.Name(), upRec.Version())
		}
		for _, v := range matched {
			vid := d.EnsureVersion(pkgID, v)
			d.MarkConsidered(vid)
		}

		d.AddEdge(upVID, pkgID, dep.Spec)

		candidates := semver.SortUnique(d.AllVersions(pkgID))
		chosen, err := h.Choose(ctx, repo, dep.Name, candidates)
		if err != nil {
			return err
		}
		chosenVID := d.EnsureVersion(pkgID, chosen)

		if visited[chosenVID] {
			continue
		}
		visited[chosenVID] = true

		chosenRecipe, err := repo.PackRecipe(ctx, dep.Name, chosen, "")
		if err != nil {
			return fmt.Errorf("dag: fetching recipe for %s@%s: %w", dep.Name, chosen, err)
		}
		d.SetVersionRevision(chosenVID, mustRevision(chosenRecipe))

		err = discover(ctx, d, chosenVID, chosenRecipe, prof, repo, h, visited)
		releaseErr := chosenRecipe.Release()
		if err != nil {
			return err
		}
		if releaseErr != nil {
			return releaseErr
		}
	}

	return nil
}

func matchVersions(versions []semver.Version, spec semver.Spec) []semver.Version {
	var out []semver.Version
	for _, v := range versions {
		if spec.Matches(v) {
			out = append(out, v)
		}
	}
	return semver.SortUnique(out)
}
