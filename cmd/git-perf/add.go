package main

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kaihowl/git-perf/internal/record"
)

var (
	addName   string
	addKV     []string
	addCommit string
)

var addCmd = &cobra.Command{
	Use:   "add VALUE",
	Short: "Record a single externally-computed measurement value.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addName == "" {
			return errors.Wrap(errUsage, "-m NAME is required")
		}
		value, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return errors.Wrapf(errUsage, "VALUE must be a number: %v", err)
		}
		kvs, err := parseKeyValues(addKV)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		epoch, err := s.CurrentEpoch(addName)
		if err != nil {
			return err
		}
		return s.Append(addCommit, []record.Record{{
			Name:      addName,
			Value:     value,
			Timestamp: float64(time.Now().Unix()),
			Epoch:     epoch,
			KeyValues: kvs,
		}})
	},
}

func init() {
	addCmd.Flags().StringVarP(&addName, "measurement", "m", "", "measurement name")
	addCmd.Flags().StringArrayVarP(&addKV, "key-value", "k", nil, "metadata key=value (repeatable)")
	addCmd.Flags().StringVar(&addCommit, "commit", "", "target committish (default HEAD)")
}
