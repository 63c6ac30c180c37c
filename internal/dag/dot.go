package dag

import (
	"fmt"

	"github.com/emicklei/dot"
)

// ToDot renders d's considered graph as a directed graphviz graph: one
// node per (package, considered version) pair, filled when that
// version is the package's resolved pin, and one edge per (up version,
// down version) pair where the up version's dependency spec matches
// the down version. This mirrors exactly the membership filterPackage
// tests, so the node and edge counts of the rendered graph are a
// faithful structural image of the DAG's considered/resolved state.
func ToDot(d *DAG) *dot.Graph {
	g := dot.NewGraph(dot.Directed)

	nodes := make(map[VersionID]dot.Node, d.VersionCount())
	for i := 0; i < d.PackageCount(); i++ {
		pkg := PackageID(i)
		resolved, hasResolved := d.ResolvedVersion(pkg)
		for _, vid := range d.ConsideredVersions(pkg) {
			_, v := d.Version(vid)
			n := g.Node(fmt.Sprintf("%s@%s", d.PackageName(pkg), v.String()))
			if hasResolved && vid == resolved {
				n = n.Attr("style", "filled")
			}
			nodes[vid] = n
		}
	}

	for _, e := range d.edges {
		upNode, ok := nodes[e.Up]
		if !ok {
			continue
		}
		for _, downVID := range d.ConsideredVersions(e.Down) {
			_, v := d.Version(downVID)
			if !e.Spec.Matches(v) {
				continue
			}
			downNode, ok := nodes[downVID]
			if !ok {
				continue
			}
			g.Edge(upNode, downNode, e.Spec.String())
		}
	}

	return g
}
