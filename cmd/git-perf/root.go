// Package main implements the git-perf CLI shell (spec §6): a single
// dispatchable entry point with one subcommand per operation, built on
// cobra/pflag the same way the teacher's cmd/hercules root command is.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/kaihowl/git-perf/internal/logging"
	"github.com/kaihowl/git-perf/internal/store"
)

var (
	verbosity int
	repoPath  string
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "git-perf",
	Short: "Track per-commit performance measurements and audit for regressions.",
	Long: `git-perf records performance measurements as attachments on git commits,
using a write-shard-and-merge protocol that lets concurrent CI runners append
results without a lock, and audits head commits for statistically significant
regressions against their ancestry.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", ".", "path to the git repository")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", !terminal.IsTerminal(int(os.Stdout.Fd())), "suppress progress output")

	rootCmd.AddCommand(
		measureCmd,
		addCmd,
		importCmd,
		pushCmd,
		pullCmd,
		auditCmd,
		reportCmd,
		bumpEpochCmd,
		removeCmd,
		pruneCmd,
		listCommitsCmd,
		versionCmd,
	)
}

func newLogger() logging.Logger {
	return logging.New(verbosity)
}

func openStore() (*store.Store, error) {
	return store.Open(repoPath, newLogger())
}

// repoConfigRoot resolves the working tree root the tracked global config
// file (internal/config.GlobalConfigFile) is read from and written to.
func repoConfigRoot() (string, error) {
	s, err := openStore()
	if err != nil {
		return "", err
	}
	return s.RootPath()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "git-perf:", err)
		os.Exit(exitCodeFor(err))
	}
}
