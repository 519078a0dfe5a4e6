package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Merge local write shards into the canonical ref and push it.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !quiet {
			fmt.Fprint(os.Stderr, "pushing measurements...\r")
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		err = s.Push()
		if !quiet {
			fmt.Fprint(os.Stderr, "\033[2K\r")
		}
		return err
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch the canonical measurements ref from the remote.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !quiet {
			fmt.Fprint(os.Stderr, "pulling measurements...\r")
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		err = s.Pull()
		if !quiet {
			fmt.Fprint(os.Stderr, "\033[2K\r")
		}
		return err
	},
}
