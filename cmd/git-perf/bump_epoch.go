package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var bumpEpochName string

var bumpEpochCmd = &cobra.Command{
	Use:   "bump-epoch",
	Short: "Start a new generation for a measurement, excluding prior history from audits.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bumpEpochName == "" {
			return errors.Wrap(errUsage, "-m NAME is required")
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		next, err := s.BumpEpoch(bumpEpochName)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now at epoch %d\n", bumpEpochName, next)
		return nil
	},
}

func init() {
	bumpEpochCmd.Flags().StringVarP(&bumpEpochName, "measurement", "m", "", "measurement name")
}
