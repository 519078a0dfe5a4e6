package main

import (
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	progress "gopkg.in/cheggaaa/pb.v1"

	"github.com/kaihowl/git-perf/internal/changepoint"
	"github.com/kaihowl/git-perf/internal/pb"
	"github.com/kaihowl/git-perf/internal/render"
	"github.com/kaihowl/git-perf/internal/selector"
	"github.com/kaihowl/git-perf/internal/walk"
)

var (
	reportOutput        string
	reportMax           int
	reportNames         []string
	reportMetadata      []string
	reportSeparateBy    []string
	reportAggregate     string
	reportFilter        string
	reportTemplate      string
	reportCustomCSS     string
	reportShowEpochs    bool
	reportDetectChanges bool
	reportFormat        string
)

var reportCmd = &cobra.Command{
	Use:   "report [COMMITTISH]",
	Short: "Render the measurement history as a time series report.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		committish := ""
		if len(args) == 1 {
			committish = args[0]
		}

		metadata, err := parseMetadata(reportMetadata)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}
		reducer, err := parseReducer(reportAggregate)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}

		var filters []string
		for _, name := range reportNames {
			filters = append(filters, "^"+regexp.QuoteMeta(name)+"$")
		}
		if reportFilter != "" {
			filters = append(filters, reportFilter)
		}
		sel, err := selector.New(filters, metadata, reportSeparateBy, reducer)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		commits, err := walk.Collect(s, committish, reportMax, nil)
		if err != nil {
			return err
		}

		type seriesBuild struct {
			name   string
			points []render.Point
		}
		byKey := map[string]*seriesBuild{}
		var order []string

		var bar *progress.ProgressBar
		if !quiet && len(commits) > 1 {
			bar = progress.New(len(commits))
			bar.Callback = func(msg string) { os.Stderr.WriteString("\033[2K\r" + msg) }
			bar.NotPrint = true
			bar.ShowPercent = false
			bar.ShowSpeed = false
			bar.SetMaxWidth(80).Start()
			defer bar.Finish()
		}

		// commits is head-first; walk it in reverse so each series is
		// built oldest-to-newest, the order a chart reads left to right.
		for i := len(commits) - 1; i >= 0; i-- {
			c := commits[i]
			values, err := sel.Apply(c.Records)
			if err != nil {
				return err
			}
			if bar != nil {
				bar.Increment()
			}
			for _, v := range values {
				key := v.Group.Name
				if len(v.Group.Separator) > 0 {
					key += " [" + strings.Join(v.Group.Separator, ",") + "]"
				}
				b, ok := byKey[key]
				if !ok {
					b = &seriesBuild{name: key}
					byKey[key] = b
					order = append(order, key)
				}
				b.points = append(b.points, render.Point{
					CommitHash:  c.Hash,
					CommitTitle: c.Title,
					Time:        c.Time.Unix(),
					Value:       v.Scalar,
					Epoch:       v.Group.Epoch,
				})
			}
		}
		sort.Strings(order)

		series := make([]render.Series, 0, len(order))
		for _, key := range order {
			b := byKey[key]
			if reportDetectChanges {
				markChangePoints(b.points)
			}
			series = append(series, render.Series{Name: b.name, Points: b.points})
		}

		var out io.Writer = os.Stdout
		if reportOutput != "" {
			f, err := os.Create(reportOutput)
			if err != nil {
				return errors.Wrapf(err, "creating %s", reportOutput)
			}
			defer f.Close()
			out = f
		}

		if reportFormat == "pb" {
			return writePBReport(out, series)
		}

		data := render.ReportData{
			Title:      "git-perf report",
			CustomCSS:  reportCustomCSS,
			ShowEpochs: reportShowEpochs,
			Series:     series,
		}
		return render.Render(out, data, reportTemplate)
	},
}

// markChangePoints runs the change-point detector over a series' values
// in place, flagging the commit where each detected shift starts.
// changepoint.Detect itself enforces the minimum-series-length gate, so
// short series simply come back with no flagged points.
func markChangePoints(points []render.Point) {
	if len(points) == 0 {
		return
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	for _, idx := range changepoint.Detect(values, changepoint.DefaultPenalty(values)) {
		if idx < len(points) {
			points[idx].ChangePoint = true
		}
	}
}

func writePBReport(w io.Writer, series []render.Series) error {
	report := &pb.Report{}
	for _, s := range series {
		ps := &pb.Series{Name: s.Name}
		for _, p := range s.Points {
			ps.Points = append(ps.Points, &pb.Point{
				CommitHash: p.CommitHash,
				Time:       p.Time,
				Value:      p.Value,
				Epoch:      p.Epoch,
			})
		}
		report.Series = append(report.Series, ps)
	}
	data, err := pb.MarshalReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func init() {
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the report to this path instead of stdout")
	reportCmd.Flags().IntVarP(&reportMax, "max", "n", 40, "maximum number of ancestor commits to include")
	reportCmd.Flags().StringArrayVarP(&reportNames, "measurement", "m", nil, "measurement name to include (repeatable; default all)")
	reportCmd.Flags().StringArrayVarP(&reportMetadata, "key-value", "k", nil, "metadata key=value a record must carry (repeatable)")
	reportCmd.Flags().StringArrayVarP(&reportSeparateBy, "separate-by", "s", nil, "metadata key that splits a measurement into its own series (repeatable)")
	reportCmd.Flags().StringVarP(&reportAggregate, "aggregate", "a", "min", "per-commit reducer: min, max, median or mean")
	reportCmd.Flags().StringVarP(&reportFilter, "filter", "f", "", "additional regex a record's name must also match")
	reportCmd.Flags().StringVar(&reportTemplate, "template", "", "custom text/template file (default: built-in placeholder)")
	reportCmd.Flags().StringVar(&reportCustomCSS, "custom-css", "", "stylesheet URL to link from the rendered report")
	reportCmd.Flags().BoolVar(&reportShowEpochs, "show-epochs", false, "annotate each point with its epoch")
	reportCmd.Flags().BoolVar(&reportDetectChanges, "detect-changes", false, "flag detected change points in each series")
	reportCmd.Flags().StringVar(&reportFormat, "format", "", "output format: empty for the template, pb for protobuf")
}
