package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set by the release process; it stays "dev" for local builds.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information and exit.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("git-perf", Version)
		return nil
	},
}
