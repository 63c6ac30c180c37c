package dag

import "github.com/dopamine-pm/dopamine/internal/profile"

// CollectLanguages walks the resolved DAG bottom-up from the root,
// setting each resolved version's language set to the sort-unique
// union of its own recipe-declared languages (looked up through
// declared) and its resolved down-edges' collected sets. Resolve must
// have run first. declared is consulted at most once per version;
// diamonds share the memoized result between branches.
func CollectLanguages(d *DAG, declared func(VersionID) []profile.Lang) {
	rootVID, ok := d.ResolvedVersion(d.Root())
	if !ok {
		return
	}
	collectFrom(d, rootVID, declared, make(map[VersionID]bool))
}

func collectFrom(d *DAG, vid VersionID, declared func(VersionID) []profile.Lang, done map[VersionID]bool) []profile.Lang {
	if done[vid] {
		return d.VersionLanguages(vid)
	}
	done[vid] = true

	langs := append([]profile.Lang(nil), declared(vid)...)
	for _, eid := range d.DownEdges(vid) {
		down := d.Edge(eid).Down
		downVID, ok := d.ResolvedVersion(down)
		if !ok {
			continue
		}
		langs = append(langs, collectFrom(d, downVID, declared, done)...)
	}

	langs = profile.SortLangs(langs)
	d.SetVersionLanguages(vid, langs)
	return langs
}
