package main

import (
	"snapshot-keeper/internal/config"
	"snapshot-keeper/pkg/logging"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "snapshot",
		Short: "Run the market snapshot pipeline from the command line",
		Long: `Fetch the market snapshot, persist the raw and derived documents, or
rank a local snapshot file without touching the store.

Examples:
  snapshot run
  snapshot run --force
  snapshot filter --file raw.json --capacity 16`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(config.LoggingFromEnv())
		},
	}
	root.AddCommand(newRunCmd(), newFilterCmd())
	return root
}

var loadConfigFunc = config.Load
