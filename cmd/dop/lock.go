package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dopamine-pm/dopamine/internal/dag"
	"github.com/dopamine-pm/dopamine/internal/lockfile"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect and verify lock-files",
}

var lockVerifyCmd = &cobra.Command{
	Use:   "verify <lock-file>",
	Short: "Parse a lock-file and report its packages and heuristic",
	Args:  cobra.ExactArgs(1),
	RunE:  runLockVerify,
}

func init() {
	lockCmd.AddCommand(lockVerifyCmd)
}

func runLockVerify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitWithCode(ExitUsage)
		return err
	}

	d, heuristicName, err := lockfile.Parse(data, args[0])
	if err != nil {
		exitWithCode(ExitLockInvalid)
		return err
	}

	fmt.Printf("heuristic: %s\n", heuristicName)
	for i := 0; i < d.PackageCount(); i++ {
		pkg := dag.PackageID(i)
		name := d.PackageName(pkg)
		resolved, hasResolved := d.ResolvedVersion(pkg)
		for _, vid := range d.ConsideredVersions(pkg) {
			_, v := d.Version(vid)
			mark := ""
			if hasResolved && resolved == vid {
				mark = " [resolved]"
			}
			fmt.Printf("  %s %s%s\n", name, v.String(), mark)
		}
	}
	return nil
}
