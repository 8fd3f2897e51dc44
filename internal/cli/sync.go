package cli

import (
	"github.com/spf13/cobra"
)

type SyncOptions struct {
	ConfigFile  string
	StateFile   string
	CatalogFile string
	Streams     []string
}

func NewSyncCmd() *cobra.Command {
	opts := &SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run an incremental sync and emit Singer messages on stdout",
		RunE: func(c *cobra.Command, args []string) error {
			return runSync(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to the tap config.json")
	cmd.Flags().StringVarP(&opts.StateFile, "state", "s", "", "Path to an initial state.json")
	cmd.Flags().StringVar(&opts.CatalogFile, "catalog", "", "Path to a catalog.json limiting the synced streams")
	cmd.Flags().StringSliceVar(&opts.Streams, "streams", nil, "Stream names to sync (default: all)")

	return cmd
}

func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the stream catalog as JSON",
		RunE: func(c *cobra.Command, args []string) error {
			return runDiscover()
		},
	}
	return cmd
}
