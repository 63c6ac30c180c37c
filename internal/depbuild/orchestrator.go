// Package depbuild walks a resolved dependency DAG bottom-up, bringing
// every non-root package version to an installed state in the cache
// and surfacing each as a DepInfo to its dependents. It is the
// counterpart to internal/buildstate: where buildstate models a single
// package's source/config/build/install/archive prerequisite graph as
// reusable Stage objects, depbuild drives that same freshness model
// directly across an entire resolved graph, threading each version's
// installed dependencies into the next.
package depbuild

import (
	"context"
	"fmt"

	"github.com/dopamine-pm/dopamine/internal/buildstate"
	"github.com/dopamine-pm/dopamine/internal/cache"
	"github.com/dopamine-pm/dopamine/internal/cacherepo"
	"github.com/dopamine-pm/dopamine/internal/dag"
	"github.com/dopamine-pm/dopamine/internal/log"
	"github.com/dopamine-pm/dopamine/internal/profile"
	"github.com/dopamine-pm/dopamine/internal/recipe"
)

// Orchestrator builds every non-root version of a resolved DAG into
// the cache addressed by Layout, fetching recipes through Repo.
type Orchestrator struct {
	Repo   cacherepo.Repo
	Layout *cache.Layout
	Log    log.Logger
}

// New returns an Orchestrator with a noop logger; set Log to change
// that.
func New(repo cacherepo.Repo, layout *cache.Layout) *Orchestrator {
	return &Orchestrator{Repo: repo, Layout: layout, Log: log.NewNoop()}
}

func (o *Orchestrator) logger() log.Logger {
	if o.Log == nil {
		return log.NewNoop()
	}
	return o.Log
}

// Build walks d's resolved versions bottom-up, excluding the root,
// bringing each to an installed state under rootProfile's language
// subset. It returns the root's dependency map: the root's direct
// resolved down-edges, each surfaced as a name → DepInfo(installDir)
// entry, ready to thread into the top-level package's own build.
func (o *Orchestrator) Build(ctx context.Context, d *dag.DAG, rootProfile *profile.Profile) (map[string]recipe.DepInfo, error) {
	rootVID, ok := d.ResolvedVersion(d.Root())
	if !ok {
		return nil, fmt.Errorf("depbuild: root package is not resolved")
	}

	installDirs := make(map[dag.VersionID]string)
	for _, vid := range dag.PostOrderResolved(d) {
		if vid == rootVID {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		installDir, err := o.buildOne(ctx, d, vid, rootProfile, installDirs)
		if err != nil {
			return nil, err
		}
		installDirs[vid] = installDir
	}

	return depInfosFor(d, rootVID, installDirs), nil
}

// buildOne brings a single resolved version to an installed state,
// returning its install directory. installed is already populated for
// every version vid's down-edges point to, because the caller walks
// in post-order.
func (o *Orchestrator) buildOne(ctx context.Context, d *dag.DAG, vid dag.VersionID, rootProfile *profile.Profile, installed map[dag.VersionID]string) (string, error) {
	pkg, v := d.Version(vid)
	name := d.PackageName(pkg)
	revision := d.VersionRevision(vid)

	rec, err := o.Repo.PackRecipe(ctx, name, v, revision)
	if err != nil {
		return "", err
	}
	defer rec.Release()

	subProfile, err := rootProfile.Subset(rec.Languages())
	if err != nil {
		return "", &BuildError{Package: name, Version: v.String(), Reason: err.Error()}
	}

	recID, err := rec.Revision()
	if err != nil {
		return "", err
	}
	if err := o.Layout.EnsureRevisionDir(name, v, recID); err != nil {
		return "", err
	}

	digest := subProfile.Compute()
	profileDir := o.Layout.ProfileDir(name, v, recID, digest.ShortHash(), subProfile.Name())
	if err := o.Layout.EnsureProfileDirs(profileDir); err != nil {
		return "", err
	}
	buildDir := o.Layout.BuildDir(profileDir)
	installDir := o.Layout.InstallDir(profileDir)

	depInfos := depInfosFor(d, vid, installed)

	lock, err := cache.NewRevisionLock(o.Layout.LockPath(name, v, recID))
	if err != nil {
		return "", err
	}
	err = lock.WithLock(func() error {
		return o.reach(ctx, rec, subProfile, profileDir, buildDir, installDir, depInfos)
	})
	if err != nil {
		return "", err
	}

	return installDir, nil
}

// reach runs the source/build/install portion of the freshness chain
// for one (revision, profile) pair, under the caller's per-revision
// lock. It is idempotent: a second call against unchanged inputs
// observes every flag already fresh and invokes no recipe hook.
func (o *Orchestrator) reach(ctx context.Context, rec *recipe.Recipe, p *profile.Profile, profileDir, buildDir, installDir string, deps map[string]recipe.DepInfo) error {
	name, version := rec.Name(), rec.Version().String()
	recipeFile := rec.SourceFile()
	sourceFlag := o.Layout.FlagPath(profileDir, cache.SourceFlagName)
	buildFlag := o.Layout.FlagPath(profileDir, cache.BuildFlagName)
	installFlag := o.Layout.FlagPath(profileDir, cache.InstallFlagName)

	sourceDir, ready, err := o.sourceReady(rec, sourceFlag, recipeFile)
	if err != nil {
		return err
	}
	if !ready {
		src, err := rec.Source()
		if err != nil {
			return err
		}
		if err := buildstate.WriteFlag(sourceFlag, src); err != nil {
			return err
		}
		sourceDir = src
		o.logger().Info("source ready", "package", name, "version", version)
	}

	buildReady, err := buildstate.NewerThanAll(buildFlag, sourceFlag, recipeFile)
	if err != nil {
		return err
	}
	if !buildReady {
		dirs := recipe.Dirs{Source: sourceDir, Build: buildDir, Install: installDir}
		installedDirectly, err := rec.Build(dirs, p, deps)
		if err != nil {
			return err
		}
		if installedDirectly {
			if ok, err := buildstate.Exists(installDir); err != nil {
				return err
			} else if !ok {
				return &BuildError{Package: name, Version: version, Reason: fmt.Sprintf("build reported success but %s does not exist", installDir)}
			}
		} else {
			if !rec.HasPack() {
				return &BuildError{Package: name, Version: version, Reason: "build did not install and recipe has no pack hook"}
			}
			if err := rec.Pack(dirs, p, installDir); err != nil {
				return err
			}
			if ok, err := buildstate.Exists(installDir); err != nil {
				return err
			} else if !ok {
				return &BuildError{Package: name, Version: version, Reason: fmt.Sprintf("pack reported success but %s does not exist", installDir)}
			}
		}
		if err := buildstate.WriteFlag(buildFlag, installDir); err != nil {
			return err
		}
		o.logger().Info("build ready", "package", name, "version", version)
	}

	installReady, err := buildstate.NewerThanAll(installFlag, buildFlag, recipeFile)
	if err != nil {
		return err
	}
	if !installReady {
		if err := rec.PatchInstall(p, installDir); err != nil {
			return err
		}
		if err := buildstate.WriteFlag(installFlag, installDir); err != nil {
			return err
		}
		o.logger().Info("install ready", "package", name, "version", version)
	}

	return nil
}

// sourceReady reports whether src is already available, and its
// directory when so. An in-tree source is always ready; otherwise
// source.flag must name an existing directory and postdate the recipe
// file.
func (o *Orchestrator) sourceReady(rec *recipe.Recipe, sourceFlag, recipeFile string) (string, bool, error) {
	if src, ok := rec.InTreeSource(); ok {
		return src, true, nil
	}

	body, ok, err := buildstate.ReadFlag(sourceFlag)
	if err != nil || !ok {
		return "", false, err
	}
	if ok, err := buildstate.Exists(body); err != nil || !ok {
		return "", false, err
	}
	fresh, err := buildstate.NewerThanAll(sourceFlag, recipeFile)
	if err != nil || !fresh {
		return "", false, err
	}
	return body, true, nil
}

// depInfosFor builds the name → DepInfo map for vid's direct resolved
// down-edges, reading each dependency's install directory out of
// installed (already populated for every version post-order visits
// before vid).
func depInfosFor(d *dag.DAG, vid dag.VersionID, installed map[dag.VersionID]string) map[string]recipe.DepInfo {
	deps := make(map[string]recipe.DepInfo)
	for _, eid := range d.DownEdges(vid) {
		edge := d.Edge(eid)
		downVID, ok := d.ResolvedVersion(edge.Down)
		if !ok {
			continue
		}
		dir, ok := installed[downVID]
		if !ok {
			continue
		}
		deps[d.PackageName(edge.Down)] = recipe.DepInfo{InstallDir: dir}
	}
	return deps
}
