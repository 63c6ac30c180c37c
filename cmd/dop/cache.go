package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dopamine-pm/dopamine/internal/cache"
	"github.com/dopamine-pm/dopamine/internal/dag"
	"github.com/dopamine-pm/dopamine/internal/lockfile"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the local package cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every package/version/revision present in the cache",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cacheGCLockfile string

var cacheGCDryRunCmd = &cobra.Command{
	Use:   "gc-dry-run",
	Short: "Report cache revisions not referenced by a lock-file, without deleting anything",
	Args:  cobra.NoArgs,
	RunE:  runCacheGCDryRun,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheGCDryRunCmd)
	cacheGCDryRunCmd.Flags().StringVar(&cacheGCLockfile, "lockfile", "", "Lock-file naming the revisions to keep")
	cacheGCDryRunCmd.MarkFlagRequired("lockfile")
}

func runCacheList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}
	layout := cache.New(cfg.CacheDir)

	pkgs, err := layout.Packages()
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}
	for _, pkg := range pkgs {
		versions, err := layout.Versions(pkg)
		if err != nil {
			exitWithCode(ExitGeneral)
			return err
		}
		for _, v := range versions {
			revisions, err := layout.Revisions(pkg, v)
			if err != nil {
				exitWithCode(ExitGeneral)
				return err
			}
			for _, rev := range revisions {
				fmt.Printf("%s %s %s\n", pkg, v.String(), rev)
			}
		}
	}
	return nil
}

// runCacheGCDryRun reports every on-disk (package, version, revision)
// not named by the lock-file's "revision:" entries. It never deletes;
// actual reclamation is left to an external clean tool per §3's
// cache-entry lifecycle.
func runCacheGCDryRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}
	layout := cache.New(cfg.CacheDir)

	data, err := os.ReadFile(cacheGCLockfile)
	if err != nil {
		exitWithCode(ExitUsage)
		return err
	}
	d, _, err := lockfile.Parse(data, cacheGCLockfile)
	if err != nil {
		exitWithCode(ExitLockInvalid)
		return err
	}

	keep := referencedRevisions(d)

	pkgs, err := layout.Packages()
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}
	for _, pkg := range pkgs {
		versions, err := layout.Versions(pkg)
		if err != nil {
			exitWithCode(ExitGeneral)
			return err
		}
		for _, v := range versions {
			revisions, err := layout.Revisions(pkg, v)
			if err != nil {
				exitWithCode(ExitGeneral)
				return err
			}
			for _, rev := range revisions {
				if !keep[pkg+"@"+v.String()+"#"+rev] {
					fmt.Printf("unreferenced: %s %s %s\n", pkg, v.String(), rev)
				}
			}
		}
	}
	return nil
}

func referencedRevisions(d *dag.DAG) map[string]bool {
	keep := make(map[string]bool)
	for i := 0; i < d.PackageCount(); i++ {
		pkg := dag.PackageID(i)
		name := d.PackageName(pkg)
		for _, vid := range d.ConsideredVersions(pkg) {
			_, v := d.Version(vid)
			rev := d.VersionRevision(vid)
			keep[name+"@"+v.String()+"#"+rev] = true
		}
	}
	return keep
}
