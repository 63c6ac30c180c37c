package recipe

import (
	"testing"

	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

func TestRecipe_AcquireReleaseRefCounts(t *testing.T) {
	closed := 0
	h := NewStaticHandle(Metadata{Name: "zlib", Version: semver.MustParse("1.0.0")})
	h.CloseFunc = func() error { closed++; return nil }

	r := Open(h)
	r2 := r.Acquire()
	if r2 != r {
		t.Fatal("Acquire should return the same facade for chaining")
	}

	if err := r.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if closed != 0 {
		t.Fatalf("closed = %d after first Release, want 0 (still one reference held)", closed)
	}

	if err := r.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if closed != 1 {
		t.Fatalf("closed = %d after second Release, want 1", closed)
	}
}

func TestRecipe_InTreeSource(t *testing.T) {
	defaultSrc := Open(NewStaticHandle(Metadata{Name: "a", Version: semver.MustParse("1.0.0"), Source: SourceValue{Kind: SourceDefault}}))
	defer defaultSrc.Release()
	if dir, ok := defaultSrc.InTreeSource(); !ok || dir != "." {
		t.Fatalf("default source = (%q, %v), want (\".\", true)", dir, ok)
	}

	literal := Open(NewStaticHandle(Metadata{Name: "a", Version: semver.MustParse("1.0.0"), Source: SourceValue{Kind: SourceLiteral, Literal: "vendor/a"}}))
	defer literal.Release()
	if dir, ok := literal.InTreeSource(); !ok || dir != "vendor/a" {
		t.Fatalf("literal source = (%q, %v), want (\"vendor/a\", true)", dir, ok)
	}

	callable := Open(NewStaticHandle(Metadata{Name: "a", Version: semver.MustParse("1.0.0"), Source: SourceValue{Kind: SourceCallable, Fetch: func() (string, error) { return "/tmp/a", nil }}}))
	defer callable.Release()
	if _, ok := callable.InTreeSource(); ok {
		t.Fatal("an out-of-tree callable source should not report InTreeSource")
	}
	dir, err := callable.Source()
	if err != nil || dir != "/tmp/a" {
		t.Fatalf("Source() = (%q, %v), want (\"/tmp/a\", nil)", dir, err)
	}
}

func TestRecipe_Source_MissingFetchHookErrors(t *testing.T) {
	r := Open(NewStaticHandle(Metadata{Name: "a", Version: semver.MustParse("1.0.0"), Source: SourceValue{Kind: SourceCallable}}))
	defer r.Release()
	if _, err := r.Source(); err == nil {
		t.Fatal("expected an error when an out-of-tree source has no fetch hook")
	}
}

func TestRecipe_Dependencies_StaticCopiesSlice(t *testing.T) {
	spec := semver.MustParseSpec(">=1.0.0")
	r := Open(NewStaticHandle(Metadata{
		Name:    "app",
		Version: semver.MustParse("1.0.0"),
		Deps:    DependenciesValue{Kind: DependenciesStatic, Static: []Dependency{{Name: "zlib", Spec: spec}}},
	}))
	defer r.Release()

	deps, err := r.Dependencies(nil)
	if err != nil {
		t.Fatalf("Dependencies: %v", err)
	}
	deps[0].Name = "mutated"

	deps2, err := r.Dependencies(nil)
	if err != nil {
		t.Fatalf("second Dependencies: %v", err)
	}
	if deps2[0].Name != "zlib" {
		t.Fatal("mutating a returned Dependencies slice must not affect the facade's own state")
	}
}

func TestRecipe_Dependencies_CallableInvokedFresh(t *testing.T) {
	calls := 0
	r := Open(NewStaticHandle(Metadata{
		Name:    "app",
		Version: semver.MustParse("1.0.0"),
		Deps: DependenciesValue{Kind: DependenciesCallable, Func: func(p *profile.Profile) ([]Dependency, error) {
			calls++
			return nil, nil
		}},
	}))
	defer r.Release()
	_, _ = r.Dependencies(nil)
	_, _ = r.Dependencies(nil)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2 (a callable dependency table must be invoked fresh each time)", calls)
	}
}

func TestRecipe_Revision_CallableTakesPriority(t *testing.T) {
	r := Open(NewStaticHandle(Metadata{
		Name:    "app",
		Version: semver.MustParse("1.0.0"),
		Content: []byte("irrelevant"),
		Revision: RevisionValue{Kind: RevisionCallable, Func: func() (string, error) { return "custom-rev", nil }},
	}))
	defer r.Release()

	rev, err := r.Revision()
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if rev != "custom-rev" {
		t.Fatalf("Revision() = %q, want %q", rev, "custom-rev")
	}
}

func TestRecipe_Revision_FallsBackToContentHash(t *testing.T) {
	content := []byte("app@1.0.0")
	r := Open(NewStaticHandle(Metadata{Name: "app", Version: semver.MustParse("1.0.0"), Content: content}))
	defer r.Release()

	rev, err := r.Revision()
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if rev != FingerprintBytes(content) {
		t.Fatalf("Revision() = %q, want content fingerprint %q", rev, FingerprintBytes(content))
	}
}

func TestRecipe_Revision_CachedAcrossCalls(t *testing.T) {
	calls := 0
	r := Open(NewStaticHandle(Metadata{
		Name:    "app",
		Version: semver.MustParse("1.0.0"),
		Revision: RevisionValue{Kind: RevisionCallable, Func: func() (string, error) { calls++; return "rev", nil }},
	}))
	defer r.Release()

	_, _ = r.Revision()
	_, _ = r.Revision()
	if calls != 1 {
		t.Fatalf("revision callable invoked %d times, want 1 (cached after first access)", calls)
	}
}

func TestValidate_RejectsMissingName(t *testing.T) {
	r := Open(NewStaticHandle(Metadata{Version: semver.MustParse("1.0.0")}))
	defer r.Release()
	if err := r.Validate(); err == nil {
		t.Fatal("expected an error for a recipe with no name")
	}
}

func TestValidate_RejectsAbsoluteInTreeSource(t *testing.T) {
	r := Open(NewStaticHandle(Metadata{
		Name:    "app",
		Version: semver.MustParse("1.0.0"),
		Source:  SourceValue{Kind: SourceLiteral, Literal: "/abs/path"},
	}))
	defer r.Release()
	if err := r.Validate(); err == nil {
		t.Fatal("expected an error for an absolute in-tree source path")
	}
}

func TestValidate_AcceptsWellFormedRecipe(t *testing.T) {
	r := Open(NewStaticHandle(Metadata{
		Name:    "app",
		Version: semver.MustParse("1.0.0"),
		Source:  SourceValue{Kind: SourceLiteral, Literal: "vendor/app"},
	}))
	defer r.Release()
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
