package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "walletsync",
		Short: "Sync local wallet transactions to a remote budgeting ledger",
		Long: "walletsync pulls transactions and balances from the local wallet feed,\n" +
			"reconciles them into a local store and pushes them to the remote\n" +
			"budgeting service, deduplicated by external id.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "walletsync.yaml", "path to the configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newSyncCmd(),
		newDaemonCmd(),
		newStatusCmd(),
		newAccountsCmd(),
		newCategoriesCmd(),
		newHistoryCmd(),
		newRequeueCmd(),
		newPurgeCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
