package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCommitsCmd = &cobra.Command{
	Use:   "list-commits",
	Short: "List commit hashes carrying at least one measurement.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		hashes, err := s.ListCommitsWithMeasurements()
		if err != nil {
			return err
		}
		for _, h := range hashes {
			fmt.Println(h)
		}
		return nil
	},
}
