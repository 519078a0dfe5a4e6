package main

import (
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	progress "gopkg.in/cheggaaa/pb.v1"

	"github.com/kaihowl/git-perf/internal/record"
)

var (
	measureName     string
	measureReps     int
	measureKV       []string
	measureCommit   string
)

var measureCmd = &cobra.Command{
	Use:   "measure -- CMD [ARGS...]",
	Short: "Run a command and record its wall-clock time as a measurement.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if measureName == "" {
			return errors.Wrap(errUsage, "-m NAME is required")
		}
		if measureReps < 1 {
			return errors.Wrap(errUsage, "-n must be >= 1")
		}
		kvs, err := parseKeyValues(measureKV)
		if err != nil {
			return errors.Wrap(errUsage, err.Error())
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		epoch, err := s.CurrentEpoch(measureName)
		if err != nil {
			return err
		}

		var bar *progress.ProgressBar
		if !quiet && measureReps > 1 {
			bar = progress.New(measureReps)
			bar.Callback = func(msg string) { os.Stderr.WriteString("\033[2K\r" + msg) }
			bar.NotPrint = true
			bar.ShowPercent = false
			bar.ShowSpeed = false
			bar.SetMaxWidth(80).Start()
			defer bar.Finish()
		}

		var records []record.Record
		for i := 0; i < measureReps; i++ {
			start := time.Now()
			c := exec.Command(args[0], args[1:]...)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			c.Stdin = os.Stdin
			if err := c.Run(); err != nil {
				return errors.Wrapf(err, "running %s", strings.Join(args, " "))
			}
			elapsed := time.Since(start).Seconds()
			records = append(records, record.Record{
				Name:      measureName,
				Value:     elapsed,
				Timestamp: float64(time.Now().Unix()),
				Epoch:     epoch,
				KeyValues: kvs,
			})
			if bar != nil {
				bar.Set(i + 1).Postfix(" [" + measureName + "] ")
			}
		}
		return s.Append(measureCommit, records)
	},
}

func init() {
	measureCmd.Flags().StringVarP(&measureName, "measurement", "m", "", "measurement name")
	measureCmd.Flags().IntVarP(&measureReps, "repetitions", "n", 1, "number of times to run CMD")
	measureCmd.Flags().StringArrayVarP(&measureKV, "key-value", "k", nil, "metadata key=value (repeatable)")
	measureCmd.Flags().StringVar(&measureCommit, "commit", "", "target committish (default HEAD)")
}

// parseKeyValues turns a slice of "k=v" flag values into KeyValues,
// failing loudly (an exit-2 usage error, not a silently-skipped malformed
// record) since these come directly from the invoking user's command line.
func parseKeyValues(kvs []string) ([]record.KeyValue, error) {
	out := make([]record.KeyValue, 0, len(kvs))
	for _, kv := range kvs {
		idx := strings.IndexByte(kv, '=')
		if idx < 0 {
			return nil, errors.Errorf("invalid key=value pair %q", kv)
		}
		out = append(out, record.KeyValue{Key: kv[:idx], Value: kv[idx+1:]})
	}
	return out, nil
}
