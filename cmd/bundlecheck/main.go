package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bundlecheck/bundlecheck/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "bundlecheck",
		Short: "Verify re-signed application bundles against vendor builds",
		Long: `bundlecheck proves that a code-signed copy of a binary distribution is
semantically identical to the unsigned vendor build: it compares the two
bundle trees file by file and, for executable images, hashes only the
code and data sections that signing leaves untouched.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(cli.NewVerifyCommand())
	rootCmd.AddCommand(cli.NewDiffCommand())
	rootCmd.AddCommand(cli.NewConfigCommand())

	return rootCmd.Execute()
}
