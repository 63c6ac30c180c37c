package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dopamine-pm/dopamine/internal/profile"
)

var (
	profileDetectBasename string
	profileDetectSave     string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Detect and manipulate build profiles",
}

var profileDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Autodetect the host and available compilers",
	Args:  cobra.NoArgs,
	RunE:  runProfileDetect,
}

var profileSubsetCmd = &cobra.Command{
	Use:   "subset <profile-ini> <lang>...",
	Short: "Print the subset of a saved profile restricted to the given languages",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runProfileSubset,
}

func init() {
	profileDetectCmd.Flags().StringVar(&profileDetectBasename, "basename", "default", "Basename for the detected profile")
	profileDetectCmd.Flags().StringVar(&profileDetectSave, "save", "", "Write the detected profile as INI to this path")

	profileCmd.AddCommand(profileDetectCmd)
	profileCmd.AddCommand(profileSubsetCmd)
}

func runProfileDetect(cmd *cobra.Command, args []string) error {
	p, err := detectProfile(profileDetectBasename)
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}

	fmt.Printf("name: %s\n", p.Name())
	fmt.Printf("digest: %s\n", p.Compute().String())
	for _, c := range p.Compilers {
		fmt.Printf("  %s: %s %s (%s)\n", c.Lang, c.Name, c.Version, c.Path)
	}

	if profileDetectSave == "" {
		return nil
	}
	data, err := p.SaveINI()
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}
	return os.WriteFile(profileDetectSave, data, 0o644)
}

func runProfileSubset(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		exitWithCode(ExitUsage)
		return err
	}
	p, err := profile.LoadINI(data)
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}

	langs := make([]profile.Lang, 0, len(args)-1)
	for _, s := range args[1:] {
		l, err := profile.ParseLang(strings.TrimSpace(s))
		if err != nil {
			exitWithCode(ExitUsage)
			return err
		}
		langs = append(langs, l)
	}

	sub, err := p.Subset(langs)
	if err != nil {
		exitWithCode(ExitGeneral)
		return err
	}

	fmt.Printf("name: %s\n", sub.Name())
	fmt.Printf("digest: %s\n", sub.Compute().String())
	return nil
}
