package dag

// TraverseDown performs a depth-first walk starting at the root,
// following each visited version's resolved down-edges, and calls
// visit once per Package the first time it is reached. Packages not
// yet resolved are not descended into. Resolve need not have run to
// completion for this to be useful against a partially pinned DAG.
func TraverseDown(d *DAG, visit func(PackageID)) {
	visited := make(map[PackageID]bool)
	var walk func(PackageID)
	walk = func(pkg PackageID) {
		if visited[pkg] {
			return
		}
		visited[pkg] = true
		visit(pkg)

		vid, ok := d.ResolvedVersion(pkg)
		if !ok {
			return
		}
		for _, eid := range d.DownEdges(vid) {
			walk(d.Edge(eid).Down)
		}
	}
	walk(d.Root())
}

// TraverseConsidered is TraverseDown's pre-resolve counterpart: it
// descends through every considered version's down-edges rather than
// only the resolved one, so it sees the whole candidate graph that
// Prepare built and Filter pruned.
func TraverseConsidered(d *DAG, visit func(PackageID)) {
	visited := make(map[PackageID]bool)
	var walk func(PackageID)
	walk = func(pkg PackageID) {
		if visited[pkg] {
			return
		}
		visited[pkg] = true
		visit(pkg)

		for _, vid := range d.ConsideredVersions(pkg) {
			for _, eid := range d.DownEdges(vid) {
				walk(d.Edge(eid).Down)
			}
		}
	}
	walk(d.Root())
}

// PostOrderResolved returns every resolved, reachable Version in
// bottom-up (post-order) order: a version always appears after every
// version reachable from its down-edges, so by the time a caller sees
// v every dependency v declares has already appeared. The root's
// version is last. A diamond-shared version appears exactly once, at
// the position of its first completion.
func PostOrderResolved(d *DAG) []VersionID {
	visited := make(map[VersionID]bool)
	var order []VersionID
	var walk func(VersionID)
	walk = func(vid VersionID) {
		if visited[vid] {
			return
		}
		visited[vid] = true
		for _, eid := range d.DownEdges(vid) {
			downVID, ok := d.ResolvedVersion(d.Edge(eid).Down)
			if !ok {
				continue
			}
			walk(downVID)
		}
		order = append(order, vid)
	}
	if rootVID, ok := d.ResolvedVersion(d.Root()); ok {
		walk(rootVID)
	}
	return order
}

// TraverseUp performs a depth-first walk of pkg's dependents: the
// packages whose resolved (or, pre-resolve, considered) versions hold
// an edge down into pkg, and transitively their own dependents.
func TraverseUp(d *DAG, pkg PackageID, visit func(PackageID)) {
	visited := make(map[PackageID]bool)
	var walk func(PackageID)
	walk = func(p PackageID) {
		if visited[p] {
			return
		}
		visited[p] = true
		visit(p)

		for _, eid := range d.UpEdges(p) {
			upPkg, _ := d.Version(d.Edge(eid).Up)
			walk(upPkg)
		}
	}
	walk(pkg)
}
