// Package dag builds, filters, and resolves the dependency DAG: a
// three-pass top-down/bottom-up/top-down construction over Package and
// Version nodes connected by spec-constrained edges.
//
// Nodes live in a flat arena indexed by stable integer ids rather than
// as a graph of mutually-owning pointers, so cross-references
// (up-edges, down-edges) are plain index lists and cannot form
// reference cycles even though the graph itself is acyclic only by
// construction discipline, not by the type system.
package dag

import (
	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

// PackageID, VersionID, and EdgeID are stable indices into a DAG's
// arenas.
type (
	PackageID int
	VersionID int
	EdgeID    int
)

const noVersion VersionID = -1

// Edge is a (up Version, down Package, spec) constraint: the version
// at Up declares a dependency on Down matching Spec.
type Edge struct {
	Up   VersionID
	Down PackageID
	Spec semver.Spec
}

// versionNode is one (package, version) pair. It belongs to exactly
// one Package.
type versionNode struct {
	pkg       PackageID
	version   semver.Version
	downEdges []EdgeID
	languages []profile.Lang
	revision  string
}

// packageNode is a named sequence of versions considered during
// resolution.
type packageNode struct {
	name          string
	allVersions   []semver.Version   // sorted unique
	versionByKey  map[string]VersionID
	considered    map[VersionID]bool
	resolved      VersionID
	upEdges       []EdgeID
}

// DAG is the resolver's working graph. The zero value is not usable;
// construct with New.
type DAG struct {
	packages     []packageNode
	versions     []versionNode
	edges        []Edge
	packageByName map[string]PackageID
	root         PackageID
}

// New returns an empty DAG.
func New() *DAG {
	return &DAG{
		packageByName: make(map[string]PackageID),
	}
}

// Root returns the synthetic root package's id.
func (d *DAG) Root() PackageID { return d.root }

// PackageByName looks up a package by name.
func (d *DAG) PackageByName(name string) (PackageID, bool) {
	id, ok := d.packageByName[name]
	return id, ok
}

// PackageCount and VersionCount report arena sizes, used to iterate
// every package or version by index.
func (d *DAG) PackageCount() int { return len(d.packages) }
func (d *DAG) VersionCount() int { return len(d.versions) }

// PackageName returns a package's name.
func (d *DAG) PackageName(id PackageID) string { return d.packages[id].name }

// AllVersions returns a package's full, sort-unique candidate version
// list (pre-filter).
func (d *DAG) AllVersions(id PackageID) []semver.Version {
	out := make([]semver.Version, len(d.packages[id].allVersions))
	copy(out, d.packages[id].allVersions)
	return out
}

// ConsideredVersions returns the versions of id that survived filter
// (or, before filter has run, every version added as considered during
// prepare).
func (d *DAG) ConsideredVersions(id PackageID) []VersionID {
	pkg := &d.packages[id]
	out := make([]VersionID, 0, len(pkg.considered))
	for vid, ok := range pkg.considered {
		if ok {
			out = append(out, vid)
		}
	}
	return out
}

// ResolvedVersion returns the pinned version node for id, if resolved.
func (d *DAG) ResolvedVersion(id PackageID) (VersionID, bool) {
	v := d.packages[id].resolved
	if v == noVersion {
		return 0, false
	}
	return v, true
}

// UpEdges returns the edges whose Down is id.
func (d *DAG) UpEdges(id PackageID) []EdgeID {
	return append([]EdgeID(nil), d.packages[id].upEdges...)
}

// Version returns a version node's (package, semver.Version).
func (d *DAG) Version(id VersionID) (PackageID, semver.Version) {
	n := &d.versions[id]
	return n.pkg, n.version
}

// VersionLanguages returns a version's collected language set.
func (d *DAG) VersionLanguages(id VersionID) []profile.Lang {
	return append([]profile.Lang(nil), d.versions[id].languages...)
}

// SetVersionLanguages replaces a version's collected language set.
func (d *DAG) SetVersionLanguages(id VersionID, langs []profile.Lang) {
	d.versions[id].languages = langs
}

// VersionRevision returns the revision recorded for a version node
// (set by Prepare for the versions it fetches a recipe for, or by the
// lock-file parser), or "" if none was recorded.
func (d *DAG) VersionRevision(id VersionID) string { return d.versions[id].revision }

func (d *DAG) SetVersionRevision(id VersionID, revision string) {
	d.versions[id].revision = revision
}

// DownEdges returns the edges whose Up is id.
func (d *DAG) DownEdges(id VersionID) []EdgeID {
	return append([]EdgeID(nil), d.versions[id].downEdges...)
}

// Edge returns an edge by id.
func (d *DAG) Edge(id EdgeID) Edge { return d.edges[id] }

// EnsurePackage returns the id of the package named name, creating it
// if absent.
func (d *DAG) EnsurePackage(name string) PackageID {
	if id, ok := d.packageByName[name]; ok {
		return id
	}
	id := PackageID(len(d.packages))
	d.packages = append(d.packages, packageNode{
		name:         name,
		versionByKey: make(map[string]VersionID),
		considered:   make(map[VersionID]bool),
		resolved:     noVersion,
	})
	d.packageByName[name] = id
	return id
}

// EnsureVersion returns the id of the version node (pkg, v), creating
// it if absent. A package's version node is unique per distinct
// semver.Version (ignoring build metadata, per Version.Equal).
func (d *DAG) EnsureVersion(pkg PackageID, v semver.Version) VersionID {
	key := v.HashKey()
	p := &d.packages[pkg]
	if id, ok := p.versionByKey[key]; ok {
		return id
	}

	id := VersionID(len(d.versions))
	d.versions = append(d.versions, versionNode{pkg: pkg, version: v})
	p.versionByKey[key] = id
	p.allVersions = semver.SortUnique(append(p.allVersions, v))
	return id
}

// LookupVersion returns the id of the version node (pkg, v) without
// creating it, used by the lock-file codec to resolve a version it
// already knows exists via AllVersions.
func (d *DAG) LookupVersion(pkg PackageID, v semver.Version) (VersionID, bool) {
	id, ok := d.packages[pkg].versionByKey[v.HashKey()]
	return id, ok
}

// MarkConsidered adds v to its package's considered set.
func (d *DAG) MarkConsidered(v VersionID) {
	pkg := d.versions[v].pkg
	d.packages[pkg].considered[v] = true
}

// IsConsidered reports whether v is in its package's considered set.
func (d *DAG) IsConsidered(v VersionID) bool {
	pkg := d.versions[v].pkg
	return d.packages[pkg].considered[v]
}

// RemoveConsidered drops v from its package's considered set, used by
// filter.go when v no longer survives.
func (d *DAG) RemoveConsidered(v VersionID) {
	pkg := d.versions[v].pkg
	delete(d.packages[pkg].considered, v)
}

// SetResolved pins pkg's resolved node to v.
func (d *DAG) SetResolved(pkg PackageID, v VersionID) {
	d.packages[pkg].resolved = v
}

// AddEdge creates an edge from up to down constrained by spec, and
// records it on both endpoints.
func (d *DAG) AddEdge(up VersionID, down PackageID, spec semver.Spec) EdgeID {
	id := EdgeID(len(d.edges))
	d.edges = append(d.edges, Edge{Up: up, Down: down, Spec: spec})
	d.versions[up].downEdges = append(d.versions[up].downEdges, id)
	d.packages[down].upEdges = append(d.packages[down].upEdges, id)
	return id
}

// removeDownEdge drops edge from version v's down-edge list;
// removeUpEdge is its counterpart for a package's up-edge list.
func (d *DAG) removeDownEdge(v VersionID, edge EdgeID) {
	edges := d.versions[v].downEdges
	for i, e := range edges {
		if e == edge {
			d.versions[v].downEdges = append(edges[:i], edges[i+1:]...)
			return
		}
	}
}

func (d *DAG) removeUpEdge(pkg PackageID, edge EdgeID) {
	edges := d.packages[pkg].upEdges
	for i, e := range edges {
		if e == edge {
			d.packages[pkg].upEdges = append(edges[:i], edges[i+1:]...)
			return
		}
	}
}

// SetRoot marks pkg as the DAG's synthetic root package.
func (d *DAG) SetRoot(pkg PackageID) { d.root = pkg }
