// Package cli handles the command-line interface logic
// using the Cobra library.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tap-appmetrica",
		Short: "Singer tap for the AppMetrica Logs API",
		Long: `tap-appmetrica extracts raw analytics logs from the AppMetrica Logs API
and emits them as a Singer message stream (SCHEMA/RECORD/STATE) on stdout.
Syncs are incremental: each stream checkpoints a bookmark on its
replication key and resumes from it on the next run.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewSyncCmd())
	rootCmd.AddCommand(NewDiscoverCmd())

	return rootCmd
}
