package main

import (
	"os"
	"regexp"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	progress "gopkg.in/cheggaaa/pb.v1"
	"gopkg.in/yaml.v3"

	"github.com/kaihowl/git-perf/internal/audit"
	"github.com/kaihowl/git-perf/internal/config"
	"github.com/kaihowl/git-perf/internal/pb"
	"github.com/kaihowl/git-perf/internal/selector"
	"github.com/kaihowl/git-perf/internal/walk"
)

var (
	auditName      string
	auditMax       int
	auditMetadata  []string
	auditMinMeas   int
	auditAggregate string
	auditSigma     float64
	auditDispersion dispersionValue
	auditFilter    string
	auditFormat    string
)

var auditCmd = &cobra.Command{
	Use:   "audit [COMMITTISH]",
	Short: "Compare the head measurement for a name against its ancestor tail.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditName == "" {
			return errors.Wrap(errUsage, "-m NAME is required")
		}
		committish := ""
		if len(args) == 1 {
			committish = args[0]
		}

		metadata, err := parseMetadata(auditMetadata)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}
		reducer, err := parseReducer(auditAggregate)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}

		filters := []string{"^" + regexp.QuoteMeta(auditName) + "$"}
		if auditFilter != "" {
			filters = append(filters, auditFilter)
		}
		sel, err := selector.New(filters, metadata, nil, reducer)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}

		s, err := openStore()
		if err != nil {
			return err
		}

		cliOverride := config.Tunables{}
		if cmd.Flags().Changed("sigma") {
			cliOverride.Sigma = &auditSigma
		}
		if cmd.Flags().Changed("min-measurements") {
			cliOverride.MinMeasurements = &auditMinMeas
		}
		if cmd.Flags().Changed("dispersion-method") {
			d := auditDispersion.v
			cliOverride.Dispersion = &d
		}

		root, err := repoConfigRoot()
		if err != nil {
			return err
		}
		global, user, err := config.DefaultPaths(root)
		if err != nil {
			return err
		}
		globalCfg, err := config.LoadFile(global)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}
		userCfg, err := config.LoadFile(user)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}
		tunables, err := config.Resolve(auditName, cliOverride, globalCfg, userCfg)
		if err != nil {
			return err
		}

		commits, err := walk.Collect(s, committish, auditMax+1, nil)
		if err != nil {
			return err
		}
		if len(commits) == 0 {
			return errors.Wrap(audit.ErrMissingHead, auditName)
		}

		headValues, err := sel.Apply(commits[0].Records)
		if err != nil {
			return err
		}
		if len(headValues) == 0 {
			return errors.Wrapf(audit.ErrMissingHead, "%s at %s", auditName, commits[0].Hash)
		}
		headValue := headValues[0].Scalar
		headEpoch := headValues[0].Group.Epoch

		var bar *progress.ProgressBar
		if !quiet && len(commits) > 1 {
			bar = progress.New(len(commits) - 1)
			bar.Callback = func(msg string) { os.Stderr.WriteString("\033[2K\r" + msg) }
			bar.NotPrint = true
			bar.ShowPercent = false
			bar.ShowSpeed = false
			bar.SetMaxWidth(80).Start()
			defer bar.Finish()
		}

		var tail []audit.Point
		for i, c := range commits[1:] {
			values, err := sel.Apply(c.Records)
			if err != nil {
				return err
			}
			for _, v := range values {
				tail = append(tail, audit.Point{Value: v.Scalar, Epoch: v.Group.Epoch})
			}
			if bar != nil {
				bar.Set(i + 1)
			}
		}

		result, err := audit.Run(headValue, headEpoch, tail, tunables)
		if err != nil {
			return err
		}

		if !quiet {
			printVerdict(result.Verdict)
		}
		if err := printAuditResult(result); err != nil {
			return err
		}

		if result.Verdict == audit.Regression {
			return errors.Wrapf(errRegression, "%s: head %.4g vs tail center %.4g (z=%.2f)", auditName, result.HeadValue, result.Center, result.Z)
		}
		return nil
	},
}

func printVerdict(v audit.Verdict) {
	switch v {
	case audit.Pass:
		color.New(color.FgGreen).Fprintln(os.Stderr, v)
	case audit.Regression:
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, v)
	default:
		color.New(color.FgYellow).Fprintln(os.Stderr, v)
	}
}

func printAuditResult(result audit.Result) error {
	if auditFormat == "pb" {
		data, err := pb.MarshalAuditResult(&pb.AuditResult{
			Verdict:              string(result.Verdict),
			HeadValue:            result.HeadValue,
			Center:               result.Center,
			Dispersion:           result.Dispersion,
			Z:                    result.Z,
			RelativeDeviationPct: result.RelativeDeviationPct,
			DispersionMethod:     string(result.DispersionMethod),
			TailSize:             int32(result.TailSize),
			TailMedian:           result.TailMedian,
			TailMin:              result.TailMin,
			TailMax:              result.TailMax,
			Sparkline:            result.Sparkline,
		})
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(result)
}

func parseReducer(s string) (selector.Reducer, error) {
	switch selector.Reducer(s) {
	case selector.Min, selector.Max, selector.Median, selector.Mean:
		return selector.Reducer(s), nil
	default:
		return "", errors.Errorf("unknown aggregate %q (want min, max, median or mean)", s)
	}
}

func parseMetadata(kvs []string) (map[string]string, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		parts, err := parseKeyValues([]string{kv})
		if err != nil {
			return nil, err
		}
		out[parts[0].Key] = parts[0].Value
	}
	return out, nil
}

func init() {
	auditCmd.Flags().StringVarP(&auditName, "measurement", "m", "", "measurement name")
	auditCmd.Flags().IntVarP(&auditMax, "max", "n", 40, "maximum number of ancestor commits to compare against")
	auditCmd.Flags().StringArrayVarP(&auditMetadata, "select", "s", nil, "metadata key=value a record must carry (repeatable)")
	auditCmd.Flags().IntVar(&auditMinMeas, "min-measurements", 0, "minimum tail size required for a verdict (overrides config)")
	auditCmd.Flags().StringVarP(&auditAggregate, "aggregate", "a", "min", "per-commit reducer: min, max, median or mean")
	auditCmd.Flags().Float64VarP(&auditSigma, "sigma", "d", 0, "z-score threshold (overrides config)")
	auditCmd.Flags().VarP(&auditDispersion, "dispersion-method", "D", "stddev or mad (overrides config)")
	auditCmd.Flags().StringVarP(&auditFilter, "filter", "f", "", "additional regex a record's name must also match")
	auditCmd.Flags().StringVar(&auditFormat, "format", "", "output format: empty for YAML, pb for protobuf")
}
