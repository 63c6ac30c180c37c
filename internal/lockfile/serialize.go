package lockfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dopamine-pm/dopamine/internal/dag"
	"github.com/dopamine-pm/dopamine/internal/profile"
)

const header = "# dop lock-file v1"

// Serialize renders d as lock-file text, recording heuristicName as
// the "heuristics:" directive. When emitAllVersions is false, only
// versions that are resolved or considered are written; versions
// merely known to exist (pruned by Filter) are dropped from the
// document, while considered versions that were not chosen are kept.
//
// Blocks are emitted root first, then every other package in
// name-sorted order — never by internal creation index. Parse
// discovers a shared dependency's package the moment it first sees a
// "dependency:" line naming it, which can predate that package's own
// block and so assign it a different creation index than the DAG that
// produced the text had; sorting by name keeps Serialize's output
// independent of that index and the textual round-trip stable.
func Serialize(d *dag.DAG, heuristicName string, emitAllVersions bool) string {
	var b strings.Builder

	fmt.Fprintln(&b, header)
	fmt.Fprintf(&b, "heuristics: %s\n", heuristicName)

	for _, pkg := range orderedPackages(d) {
		versions := d.AllVersions(pkg)
		if len(versions) == 0 {
			continue
		}

		resolvedVID, hasResolved := d.ResolvedVersion(pkg)

		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "package: %s\n", d.PackageName(pkg))

		for _, v := range versions {
			vid, ok := d.LookupVersion(pkg, v)
			if !ok {
				continue
			}

			resolved := hasResolved && vid == resolvedVID
			considered := d.IsConsidered(vid)
			if !emitAllVersions && !resolved && !considered {
				continue
			}

			switch {
			case resolved:
				fmt.Fprintf(&b, "  version: %s [resolved]\n", v.String())
			case considered:
				fmt.Fprintf(&b, "  version: %s [considered]\n", v.String())
			default:
				fmt.Fprintf(&b, "  version: %s\n", v.String())
			}

			if rev := d.VersionRevision(vid); rev != "" {
				fmt.Fprintf(&b, "    revision: %s\n", rev)
			}

			if resolved {
				if langs := profile.SortLangs(d.VersionLanguages(vid)); len(langs) > 0 {
					names := make([]string, len(langs))
					for j, l := range langs {
						names[j] = string(l)
					}
					fmt.Fprintf(&b, "    langs: %s\n", strings.Join(names, ", "))
				}
			}

			for _, eid := range d.DownEdges(vid) {
				e := d.Edge(eid)
				fmt.Fprintf(&b, "    dependency: %s %s\n", d.PackageName(e.Down), e.Spec.String())
			}
		}
	}

	return b.String()
}

// orderedPackages returns d's packages with the root first and every
// other package following in name-sorted order.
func orderedPackages(d *dag.DAG) []dag.PackageID {
	root := d.Root()
	rest := make([]dag.PackageID, 0, d.PackageCount())
	for i := 0; i < d.PackageCount(); i++ {
		pkg := dag.PackageID(i)
		if pkg != root {
			rest = append(rest, pkg)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		return d.PackageName(rest[i]) < d.PackageName(rest[j])
	})
	return append([]dag.PackageID{root}, rest...)
}
