package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvloznov/wallet-sync/internal/sync"
)

func newSyncCmd() *cobra.Command {
	var noPush bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle now",
		Long: "Fetches wallet accounts and transactions, reconciles them into the\n" +
			"local store and pushes pending records to the remote ledger.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			progress := func(u sync.ProgressUpdate) {
				fmt.Printf("  %-12s %s (%s)\n", u.Status, u.Payee, u.TransactionID)
			}

			pending, err := a.orch.RunCycle(a.ctx(), sync.CycleRequest{
				Tag:         "cli",
				AutoPush:    !noPush,
				Categorize:  a.cfg.Sync.CategorizeIncoming,
				Interactive: true,
				Progress:    progress,
			})
			if err != nil {
				return err
			}

			if pending == 0 {
				fmt.Println("Sync complete, nothing left pending.")
			} else {
				fmt.Printf("Sync complete, %d transaction(s) still pending.\n", pending)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noPush, "no-push", false, "reconcile only, leave records pending instead of pushing")
	return cmd
}
