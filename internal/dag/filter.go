package dag

// Filter runs the bottom-up fixed-point pass: for every non-root
// package, group its in-edges by the upstream package
// that owns each edge's Up version; a considered version survives iff,
// for every such group, at least one edge in that group matches it.
// The pass repeats until a full sweep removes nothing, which must
// terminate because each removal strictly shrinks the total considered
// count.
func Filter(d *DAG) {
	for {
		changed := false
		for i := range d.packages {
			pkg := PackageID(i)
			if pkg == d.root {
				continue
			}
			if filterPackage(d, pkg) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func filterPackage(d *DAG, pkg PackageID) bool {
	upEdges := d.UpEdges(pkg)
	if len(upEdges) == 0 {
		return false
	}

	groups := make(map[PackageID][]Edge)
	for _, eid := range upEdges {
		e := d.Edge(eid)
		upPkg, _ := d.Version(e.Up)
		groups[upPkg] = append(groups[upPkg], e)
	}

	changed := false
	for _, vid := range d.ConsideredVersions(pkg) {
		_, v := d.Version(vid)

		survives := true
		for _, edges := range groups {
			matchedAny := false
			for _, e := range edges {
				if e.Spec.Matches(v) {
					matchedAny = true
					break
				}
			}
			if !matchedAny {
				survives = false
				break
			}
		}

		if !survives {
			d.dropVersion(vid)
			changed = true
		}
	}
	return changed
}

// dropVersion removes v from its package's considered set and
// disconnects its down-edges, so downstream packages no longer count
// it as an in-edge source.
func (d *DAG) dropVersion(v VersionID) {
	d.RemoveConsidered(v)
	for _, eid := range d.versions[v].downEdges {
		e := d.edges[eid]
		d.removeUpEdge(e.Down, eid)
	}
	d.versions[v].downEdges = nil
}
