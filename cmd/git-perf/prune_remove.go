package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop measurements attached to commits no longer reachable from any ref.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.Prune()
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d unreachable commit(s)\n", n)
		return nil
	},
}

var removeOlderThan string

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Drop measurements attached to commits older than a cutoff.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if removeOlderThan == "" {
			return errors.Wrap(errUsage, "--older-than DURATION is required")
		}
		d, err := time.ParseDuration(removeOlderThan)
		if err != nil {
			return errors.Wrapf(errUsage, "--older-than: %v", err)
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.RemoveOlderThan(time.Now().Add(-d))
		if err != nil {
			return err
		}
		fmt.Printf("removed measurements on %d commit(s) older than %s\n", n, removeOlderThan)
		return nil
	},
}

func init() {
	removeCmd.Flags().StringVar(&removeOlderThan, "older-than", "", "duration, e.g. 720h (30 days)")
}
