package dag

import (
	"context"
	"fmt"

	"github.com/dopamine-pm/dopamine/internal/cacherepo"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

// Resolve performs the top-down resolve pass. Filter must have already
// run. The root's sole version is pinned first; from
// there, each resolved version's down-edges are walked, pinning each
// not-yet-resolved down-package to chooseVersion(heuristics, repo,
// name, consideredVersions) before recursing from that pin.
func Resolve(ctx context.Context, d *DAG, repo cacherepo.Repo, h Heuristic) error {
	rootPkg := d.Root()
	rootConsidered := d.ConsideredVersions(rootPkg)
	if len(rootConsidered) != 1 {
		return fmt.Errorf("dag: root package must have exactly one version, found %d", len(rootConsidered))
	}
	rootVID := rootConsidered[0]
	d.SetResolved(rootPkg, rootVID)

	visited := map[PackageID]bool{rootPkg: true}
	if err := resolveFrom(ctx, d, rootVID, repo, h, visited); err != nil {
		return err
	}

	if !IsResolved(d) {
		return fmt.Errorf("dag: resolution incomplete: not every reachable package has a pinned version")
	}
	return nil
}

func resolveFrom(ctx context.Context, d *DAG, vid VersionID, repo cacherepo.Repo, h Heuristic, visited map[PackageID]bool) error {
	for _, eid := range d.DownEdges(vid) {
		down := d.Edge(eid).Down
		if visited[down] {
			continue
		}

		considered := d.ConsideredVersions(down)
		if len(considered) == 0 {
			return fmt.Errorf("dag: %q has no considered versions left after filter", d.PackageName(down))
		}

		versions := make([]semver.Version, len(considered))
		for i, cv := range considered {
			_, versions[i] = d.Version(cv)
		}
		versions = semver.SortUnique(versions)

		chosen, err := h.Choose(ctx, repo, d.PackageName(down), versions)
		if err != nil {
			return err
		}

		chosenVID := d.EnsureVersion(down, chosen)
		d.SetResolved(down, chosenVID)
		visited[down] = true

		if err := resolveFrom(ctx, d, chosenVID, repo, h, visited); err != nil {
			return err
		}
	}
	return nil
}

// IsResolved reports whether every package in d has a pinned resolved
// version.
func IsResolved(d *DAG) bool {
	for i := range d.packages {
		if d.packages[i].resolved == noVersion {
			return false
		}
	}
	return true
}
