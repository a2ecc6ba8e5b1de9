package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/wallet-sync/internal/domain"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync state and verify the remote credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.ctx()

			if a.cfg.Remote.Token == "" {
				fmt.Println("Remote: no credential configured")
			} else if user, err := a.remote.GetUser(ctx); err != nil {
				fmt.Printf("Remote: credential check failed: %v\n", err)
			} else {
				fmt.Printf("Remote: %s (budget %q)\n", user.UserName, user.BudgetName)
			}

			pending, err := a.store.CountTransactionsByState(ctx, domain.SyncStatePending)
			if err != nil {
				return err
			}
			failed, err := a.store.CountTransactionsByState(ctx, domain.SyncStateNever)
			if err != nil {
				return err
			}
			complete, err := a.store.CountTransactionsByState(ctx, domain.SyncStateComplete)
			if err != nil {
				return err
			}
			uncategorized, err := a.store.CountUnmappedCategories(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\nTransactions: %d synced, %d pending, %d failed\n", complete, pending, failed)
			fmt.Printf("Categories:   %d code(s) awaiting mapping\n", uncategorized)

			trail, err := a.store.ListCycleLog(ctx, 10)
			if err != nil {
				return err
			}
			if len(trail) > 0 {
				fmt.Println("\nRecent cycles:")
				for _, e := range trail {
					fmt.Printf("  %s [%s] %s\n", e.At.Format(time.RFC3339), e.Tag, e.Message)
				}
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <transaction-id>",
		Short: "Show the change history of one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.ctx()

			tx, err := a.store.GetTransaction(ctx, args[0])
			if err != nil {
				return err
			}
			if tx == nil {
				return fmt.Errorf("unknown transaction %q", args[0])
			}

			fmt.Printf("%s  %s  %s  [%s]\n", tx.Date.Format("2006-01-02"), tx.Payee,
				domain.FormatAmountDisplay(tx.Amount), tx.SyncState)
			if tx.RemoteID != "" {
				fmt.Printf("Remote id: %s (asset %s)\n", tx.RemoteID, tx.RemoteAccountRef)
			}

			entries, err := a.store.ListChanges(ctx, tx.ID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No history recorded.")
				return nil
			}
			fmt.Println()
			for _, e := range entries {
				fmt.Printf("  %s [%s] %s\n", e.At.Format(time.RFC3339), e.Source, e.Note)
			}
			return nil
		},
	}
}

func newRequeueCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "requeue",
		Short: "Put failed transactions back in the push queue",
		Long: "Moves transactions stuck in the failed state back to pending so the\n" +
			"next sync cycle retries them. With --id, only that transaction.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.ctx()

			var failed []domain.Transaction
			if id != "" {
				tx, err := a.store.GetTransaction(ctx, id)
				if err != nil {
					return err
				}
				if tx == nil {
					return fmt.Errorf("unknown transaction %q", id)
				}
				if tx.SyncState != domain.SyncStateNever {
					return fmt.Errorf("transaction %s is %s, not failed", id, tx.SyncState)
				}
				failed = []domain.Transaction{*tx}
			} else {
				failed, err = a.store.ListTransactionsByState(ctx, domain.SyncStateNever)
				if err != nil {
					return err
				}
			}

			for i := range failed {
				tx := failed[i]
				tx.SyncState = domain.SyncStatePending
				if err := a.store.SaveTransaction(ctx, &tx); err != nil {
					return err
				}
				entry := &domain.ChangeEntry{
					TransactionID: tx.ID,
					At:            time.Now(),
					Note:          "Requeued for sync",
					Source:        "cli",
				}
				if err := a.store.AppendChange(ctx, entry); err != nil {
					a.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to record requeue")
				}
			}

			fmt.Printf("Requeued %d transaction(s).\n", len(failed))
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "requeue a single transaction by id")
	return cmd
}

func newPurgeCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove old synced and failed transactions from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			retention := days
			if retention == 0 {
				retention = a.cfg.Store.RetentionDays
			}
			if retention <= 0 {
				return fmt.Errorf("no retention configured, set store.retention_days or pass --days")
			}

			cutoff := time.Now().AddDate(0, 0, -retention)
			removed, err := a.store.PurgeSyncedBefore(a.ctx(), cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d transaction(s) older than %s.\n", removed, cutoff.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "retention in days, overriding the configured value")
	return cmd
}
