package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dopamine-pm/dopamine/internal/cacherepo"
	"github.com/dopamine-pm/dopamine/internal/dag"
	"github.com/dopamine-pm/dopamine/internal/lockfile"
	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/recipe"
)

var (
	resolveProfilePath string
	resolveHeuristic   string
	resolveOutput      string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <recipe-file>",
	Short: "Resolve a recipe's transitive dependencies and write a lock-file",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveProfilePath, "profile", "", "Path to a saved profile INI; autodetects when omitted")
	resolveCmd.Flags().StringVar(&resolveHeuristic, "heuristic", "pickHighest", "Version-choice heuristic: pickHighest or preferCached")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "Write the lock-file here instead of stdout")
}

func runResolve(cmd *cobra.Command, args []string) error {
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

	prof, err := loadOrDetectProfile(resolveProfilePath, root.Name())
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}

	h, err := dag.HeuristicByName(resolveHeuristic)
	if err != nil {
		exitWithCode(ExitUsage)
		return err
	}

	d, err := dag.Prepare(ctx, root, prof, repo, h)
	if err != nil {
		exitWithCode(ExitResolveFailed)
		return err
	}

	dag.Filter(d)

	if err := dag.Resolve(ctx, d, repo, h); err != nil {
		exitWithCode(ExitResolveFailed)
		return err
	}

	dag.CollectLanguages(d, declaredLanguages(ctx, d, root, repo))

	text := lockfile.Serialize(d, h.Name(), false)

	if resolveOutput == "" {
		fmt.Print(text)
		return nil
	}
	return os.WriteFile(resolveOutput, []byte(text), 0o644)
}

// declaredLanguages returns CollectLanguages' per-version callback: the
// root version's languages come from the already-open root recipe;
// every other version is looked up fresh through repo, matching how
// depbuild.Orchestrator fetches recipes during the build walk.
func declaredLanguages(ctx context.Context, d *dag.DAG, root *recipe.Recipe, repo cacherepo.Repo) func(dag.VersionID) []profile.Lang {
	return func(vid dag.VersionID) []profile.Lang {
		pkg, v := d.Version(vid)
		if pkg == d.Root() {
			return root.Languages()
		}
		name := d.PackageName(pkg)
		revision := d.VersionRevision(vid)
		rec, err := repo.PackRecipe(ctx, name, v, revision)
		if err != nil {
			return nil
		}
		defer rec.Release()
		return rec.Languages()
	}
}
