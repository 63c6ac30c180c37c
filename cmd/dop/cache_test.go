package main

import (
	"testing"

	"github.com/dopamine-pm/dopamine/internal/dag"
	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

func TestReferencedRevisions(t *testing.T) {
	d := dag.New()
	pkg := d.EnsurePackage("zlib")
	d.SetRoot(pkg)
	vid := d.EnsureVersion(pkg, semver.MustParse("1.3.1"))
	d.MarkConsidered(vid)
	d.SetVersionRevision(vid, "rev-abc")
	d.SetVersionLanguages(vid, []profile.Lang{profile.LangC})

	keep := referencedRevisions(d)
	if !keep["zlib@1.3.1#rev-abc"] {
		t.Fatalf("expected zlib@1.3.1#rev-abc to be referenced, got %v", keep)
	}
	if len(keep) != 1 {
		t.Fatalf("expected exactly one referenced revision, got %v", keep)
	}
}
