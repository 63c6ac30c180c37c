package buildstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/recipe"
	"github.com/dopamine-pm/dopamine/internal/semver"
)

func staticRecipe(t *testing.T, buildCalls *int, packCalls *int) *recipe.Recipe {
	t.Helper()
	v, err := semver.Parse("1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	h := recipe.NewStaticHandle(recipe.Metadata{
		Name:    "zlib",
		Version: v,
		Source:  recipe.SourceValue{Kind: recipe.SourceDefault},
		HasPack: packCalls != nil,
	})
	h.BuildFunc = func(dirs recipe.Dirs, p *profile.Profile, deps map[string]recipe.DepInfo) (bool, error) {
		if buildCalls != nil {
			*buildCalls++
		}
		return true, os.MkdirAll(dirs.Install, 0o755)
	}
	if packCalls != nil {
		h.PackFunc = func(dirs recipe.Dirs, p *profile.Profile, dest string) error {
			*packCalls++
			return os.WriteFile(dest, []byte("archive"), 0o644)
		}
	}
	return recipe.Open(h)
}

func newTestContext(t *testing.T, r *recipe.Recipe) *Context {
	t.Helper()
	dir := t.TempDir()
	p, err := profile.New("default", profile.Host{Arch: profile.ArchX86_64, OS: profile.OSLinux}, profile.BuildTypeRelease, nil)
	if err != nil {
		t.Fatal(err)
	}
	return &Context{
		Recipe:      r,
		Profile:     p,
		FlagDir:     filepath.Join(dir, "work"),
		BuildDir:    filepath.Join(dir, "work", "build"),
		InstallDir:  filepath.Join(dir, "work", "install"),
		ArchivePath: filepath.Join(dir, "archive.tar.gz"),
	}
}

func TestBuildStageChain_ReachesInstall(t *testing.T) {
	var buildCalls int
	r := staticRecipe(t, &buildCalls, nil)
	defer r.Release()
	ctx := newTestContext(t, r)

	source := &SourceStage{Ctx: ctx}
	config := &ConfigStage{Ctx: ctx, Source: source}
	build := &BuildStage{Ctx: ctx, Config: config}
	install := &InstallStage{Ctx: ctx, Build: build}

	if err := Reach(install); err != nil {
		t.Fatalf("Reach(install): %v", err)
	}
	if buildCalls != 1 {
		t.Fatalf("buildCalls = %d, want 1", buildCalls)
	}

	ok, err := Exists(ctx.InstallDir)
	if err != nil || !ok {
		t.Fatalf("install dir should exist: ok=%v err=%v", ok, err)
	}

	installFlag, ok, err := ReadFlag(ctx.flag(flagNameInstall))
	if err != nil {
		t.Fatalf("ReadFlag(install.flag): %v", err)
	}
	if !ok || installFlag != ctx.InstallDir {
		t.Fatalf("install.flag = (%q, %v), want (%q, true)", installFlag, ok, ctx.InstallDir)
	}
}

func TestBuildStageChain_IdempotentOnReplay(t *testing.T) {
	var buildCalls int
	r := staticRecipe(t, &buildCalls, nil)
	defer r.Release()
	ctx := newTestContext(t, r)

	source := &SourceStage{Ctx: ctx}
	config := &ConfigStage{Ctx: ctx, Source: source}
	build := &BuildStage{Ctx: ctx, Config: config}
	install := &InstallStage{Ctx: ctx, Build: build}

	if err := Reach(install); err != nil {
		t.Fatalf("first Reach: %v", err)
	}
	if err := Reach(install); err != nil {
		t.Fatalf("second Reach: %v", err)
	}
	if buildCalls != 1 {
		t.Fatalf("buildCalls after replay = %d, want 1 (build hook must not rerun)", buildCalls)
	}
}

func TestBuildStage_FallsBackToPackWhenBuildDoesNotInstall(t *testing.T) {
	var buildCalls, packCalls int
	h := recipe.NewStaticHandle(recipe.Metadata{
		Name:    "zlib",
		Version: semver.MustParse("1.0.0"),
		Source:  recipe.SourceValue{Kind: recipe.SourceDefault},
		HasPack: true,
	})
	h.BuildFunc = func(dirs recipe.Dirs, p *profile.Profile, deps map[string]recipe.DepInfo) (bool, error) {
		buildCalls++
		return false, nil
	}
	h.PackFunc = func(dirs recipe.Dirs, p *profile.Profile, dest string) error {
		packCalls++
		return os.MkdirAll(dest, 0o755)
	}
	r := recipe.Open(h)
	defer r.Release()
	ctx := newTestContext(t, r)

	source := &SourceStage{Ctx: ctx}
	config := &ConfigStage{Ctx: ctx, Source: source}
	build := &BuildStage{Ctx: ctx, Config: config}

	if err := Reach(build); err != nil {
		t.Fatalf("Reach(build): %v", err)
	}
	if buildCalls != 1 || packCalls != 1 {
		t.Fatalf("buildCalls=%d packCalls=%d, want 1 and 1", buildCalls, packCalls)
	}
	if ok, err := Exists(ctx.InstallDir); err != nil || !ok {
		t.Fatalf("install dir should exist via pack fallback: ok=%v err=%v", ok, err)
	}
}

func TestArchiveStage_PacksAfterInstall(t *testing.T) {
	var buildCalls, packCalls int
	r := staticRecipe(t, &buildCalls, &packCalls)
	defer r.Release()
	ctx := newTestContext(t, r)

	source := &SourceStage{Ctx: ctx}
	config := &ConfigStage{Ctx: ctx, Source: source}
	build := &BuildStage{Ctx: ctx, Config: config}
	install := &InstallStage{Ctx: ctx, Build: build}
	archive := &ArchiveStage{Ctx: ctx, Install: install}

	if err := Reach(archive); err != nil {
		t.Fatalf("Reach(archive): %v", err)
	}
	if packCalls != 1 {
		t.Fatalf("packCalls = %d, want 1", packCalls)
	}

	ok, err := Exists(ctx.ArchivePath)
	if err != nil || !ok {
		t.Fatalf("archive should exist: ok=%v err=%v", ok, err)
	}
}

func TestProfileStage_PrefersSupplied(t *testing.T) {
	p, err := profile.New("default", profile.Host{Arch: profile.ArchX86_64, OS: profile.OSLinux}, profile.BuildTypeRelease, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := &ProfileStage{PkgDir: t.TempDir(), Supplied: p}

	if err := Reach(s); err != nil {
		t.Fatalf("Reach: %v", err)
	}
	if s.Profile() != p {
		t.Fatal("expected ProfileStage to use the supplied profile directly")
	}
}

func TestProfileStage_FailsWithoutSuppliedOrOnDisk(t *testing.T) {
	s := &ProfileStage{PkgDir: t.TempDir()}
	if err := Reach(s); err == nil {
		t.Fatal("expected an error when no profile is supplied or found on disk")
	}
}

const flagNameInstall = "install.flag"
