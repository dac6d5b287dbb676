// Package cli implements the helix command line: compiling Snakemake DAG
// exports into workflow graphs, inspecting DAGs, registering compiled
// workflows, and browsing the local compile cache.
package cli

import (
	"log/slog"

	"github.com/helixbio/helix/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the helix CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "helix",
		Short: "helix is a Snakemake workflow compiler",
		Long: "helix compiles Snakemake DAG exports into executable workflow graphs\n" +
			"and registers them on the orchestration platform.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(flagLogLevel, flagLogFormat)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newCompileCmd(),
		newRegisterCmd(),
		newDAGCmd(),
		newCacheCmd(),
	)

	return root
}
