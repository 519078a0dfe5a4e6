package main

import (
	"io"
	"os"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kaihowl/git-perf/internal/importers"
	"github.com/kaihowl/git-perf/internal/record"
)

var (
	importMetadata []string
	importPrefix   string
	importFilter   string
	importDryRun   bool
	importCommit   string
)

var importCmd = &cobra.Command{
	Use:   "import FORMAT [FILE|-]",
	Short: "Import measurements from a JUnit XML report or a Criterion JSON log.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]
		var in io.Reader = os.Stdin
		if len(args) == 2 && args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return errors.Wrap(err, "opening import file")
			}
			defer f.Close()
			in = f
		}

		kvs, err := parseKeyValues(importMetadata)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}
		now := func() float64 { return float64(time.Now().Unix()) }

		var records []record.Record
		switch format {
		case "junit":
			records, err = importers.ParseJUnit(in, importPrefix, kvs, now)
		case "criterion-json":
			records, err = importers.ParseCriterion(in, importPrefix, kvs, now)
		default:
			return errors.Wrapf(errUsage, "unknown import format %q (want junit or criterion-json)", format)
		}
		if err != nil {
			return err
		}

		if importFilter != "" {
			re, err := regexp.Compile(importFilter)
			if err != nil {
				return errors.Wrap(errUsage, err.Error())
			}
			filtered := records[:0]
			for _, r := range records {
				if re.MatchString(r.Name) {
					filtered = append(filtered, r)
				}
			}
			records = filtered
		}

		if importDryRun || verbosity > 0 {
			enc := yaml.NewEncoder(os.Stdout)
			if err := enc.Encode(records); err != nil {
				enc.Close()
				return err
			}
			enc.Close()
			if importDryRun {
				return nil
			}
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		epochs := map[string]uint32{}
		for i := range records {
			epoch, ok := epochs[records[i].Name]
			if !ok {
				epoch, err = s.CurrentEpoch(records[i].Name)
				if err != nil {
					return err
				}
				epochs[records[i].Name] = epoch
			}
			records[i].Epoch = epoch
		}
		return s.Append(importCommit, records)
	},
}

func init() {
	importCmd.Flags().StringArrayVar(&importMetadata, "metadata", nil, "metadata key=value (repeatable)")
	importCmd.Flags().StringVar(&importPrefix, "prefix", "", "prefix prepended to every measurement name")
	importCmd.Flags().StringVar(&importFilter, "filter", "", "only import records whose name matches this regex")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "print what would be imported without writing it")
	importCmd.Flags().StringVar(&importCommit, "commit", "", "target committish (default HEAD)")
}
