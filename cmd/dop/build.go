package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dopamine-pm/dopamine/internal/buildstate"
	"github.com/dopamine-pm/dopamine/internal/cache"
	"github.com/dopamine-pm/dopamine/internal/cacherepo"
	"github.com/dopamine-pm/dopamine/internal/dag"
	"github.com/dopamine-pm/dopamine/internal/depbuild"
	"github.com/dopamine-pm/dopamine/internal/lockfile"
	"github.com/dopamine-pm/dopamine/internal/log"
	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/recipe"
)

var (
	buildLockfilePath string
	buildProfilePath  string
	buildHeuristic    string
)

var buildCmd = &cobra.Command{
	Use:   "build <recipe-file>",
	Short: "Build every dependency of a recipe's resolved graph into the cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildLockfilePath, "lockfile", "", "Build from this lock-file instead of resolving fresh")
	buildCmd.Flags().StringVar(&buildProfilePath, "profile", "", "Path to a saved profile INI; autodetects when omitted")
	buildCmd.Flags().StringVar(&buildHeuristic, "heuristic", "pickHighest", "Version-choice heuristic when resolving fresh")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := globalCtx

	cfg, err := loadConfig()
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}
	repo := buildRepo(cfg)

	root, err := openRootRecipe(args[0])
	if err != nil {
		exitWithCode(ExitUsage)
		return err
	}
	defer root.Release()

	prof, err := loadOrDetectProfile(buildProfilePath, root.Name())
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}

	d, err := resolvedGraph(ctx, root, prof, repo)
	if err != nil {
		exitWithCode(ExitResolveFailed)
		return err
	}

	orch := &depbuild.Orchestrator{Repo: repo, Layout: cache.New(cfg.CacheDir), Log: log.Default()}
	deps, err := orch.Build(ctx, d, prof)
	if err != nil {
		exitWithCode(ExitBuildFailed)
		return err
	}

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s -> %s\n", name, deps[name].InstallDir)
	}

	installDir, archivePath, err := buildRoot(root, prof, args[0], deps)
	if err != nil {
		exitWithCode(ExitBuildFailed)
		return err
	}
	fmt.Printf("%s -> %s\n", root.Name(), installDir)
	if archivePath != "" {
		fmt.Printf("%s archived to %s\n", root.Name(), archivePath)
	}
	return nil
}

// buildRoot drives the root recipe itself through the full
// source/config/build/install/archive chain, the same way
// depbuild.Orchestrator drives each dependency, but rooted at
// <recipeDir>/.dop instead of the version-addressed cache (the root
// recipe is a local checkout, not a fetched revision). deps is the
// dependency map depbuild.Orchestrator.Build already produced for the
// root's own down-edges.
func buildRoot(root *recipe.Recipe, rootProfile *profile.Profile, recipePath string, deps map[string]recipe.DepInfo) (installDir, archivePath string, err error) {
	pkgDir := filepath.Dir(recipePath)

	profStage := &buildstate.ProfileStage{PkgDir: pkgDir, Supplied: rootProfile}
	if err := buildstate.Reach(profStage); err != nil {
		return "", "", err
	}
	subProfile, err := profStage.Profile().Subset(root.Languages())
	if err != nil {
		return "", "", err
	}

	flagDir := filepath.Join(pkgDir, ".dop")
	buildDir := filepath.Join(flagDir, "build")
	installDir = filepath.Join(flagDir, "install")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return "", "", err
	}

	if root.HasPack() {
		archivePath = filepath.Join(flagDir, fmt.Sprintf("%s-%s.tar.xz", root.Name(), root.Version()))
	}

	bsCtx := &buildstate.Context{
		Recipe:      root,
		Profile:     subProfile,
		FlagDir:     flagDir,
		RecipeFile:  root.SourceFile(),
		BuildDir:    buildDir,
		InstallDir:  installDir,
		ArchivePath: archivePath,
		Deps:        deps,
	}

	source := &buildstate.SourceStage{Ctx: bsCtx}
	config := &buildstate.ConfigStage{Ctx: bsCtx, Source: source}
	build := &buildstate.BuildStage{Ctx: bsCtx, Config: config}
	install := &buildstate.InstallStage{Ctx: bsCtx, Build: build}

	var final buildstate.Stage = install
	if archivePath != "" {
		final = &buildstate.ArchiveStage{Ctx: bsCtx, Install: install}
	}

	if err := buildstate.Reach(final); err != nil {
		return "", "", err
	}
	return installDir, archivePath, nil
}

// resolvedGraph loads a pre-resolved DAG from --lockfile, or resolves
// one fresh from root's own dependency declarations when no lock-file
// was given.
func resolvedGraph(ctx context.Context, root *recipe.Recipe, prof *profile.Profile, repo cacherepo.Repo) (*dag.DAG, error) {
	if buildLockfilePath != "" {
		data, err := os.ReadFile(buildLockfilePath)
		if err != nil {
			return nil, fmt.Errorf("dop: reading %s: %w", buildLockfilePath, err)
		}
		d, _, err := lockfile.Parse(data, buildLockfilePath)
		return d, err
	}

	h, err := dag.HeuristicByName(buildHeuristic)
	if err != nil {
		return nil, err
	}

	d, err := dag.Prepare(ctx, root, prof, repo, h)
	if err != nil {
		return nil, err
	}
	dag.Filter(d)
	if err := dag.Resolve(ctx, d, repo, h); err != nil {
		return nil, err
	}
	dag.CollectLanguages(d, declaredLanguages(ctx, d, root, repo))
	return d, nil
}
