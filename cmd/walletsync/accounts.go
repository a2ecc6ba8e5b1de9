package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dvloznov/wallet-sync/internal/domain"
	"github.com/dvloznov/wallet-sync/internal/lunchmoney"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and pair wallet accounts",
	}
	cmd.AddCommand(
		newAccountsListCmd(),
		newAccountsEnableCmd(),
		newAccountsDisableCmd(),
		newAccountsLinkCmd(),
	)
	return cmd
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known wallet accounts and their pairing state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			accounts, err := a.store.ListAccounts(a.ctx())
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Println("No accounts discovered yet. Run 'walletsync sync' first.")
				return nil
			}

			fmt.Printf("%-12s %-24s %-8s %-12s %-10s %s\n", "ID", "NAME", "SYNC", "MODE", "ASSET", "BALANCE")
			for _, acc := range accounts {
				enabled := "off"
				if acc.SyncEnabled {
					enabled = "on"
				}
				mode := "full"
				if acc.SyncBalanceOnly {
					mode = "balance-only"
				}
				asset := acc.RemoteAssetID
				if asset == "" {
					asset = "-"
				}
				fmt.Printf("%-12s %-24s %-8s %-12s %-10s %s\n",
					acc.ID, acc.Name, enabled, mode, asset, domain.FormatAmountDisplay(acc.Balance))
			}
			return nil
		},
	}
}

func newAccountsEnableCmd() *cobra.Command {
	var balanceOnly bool

	cmd := &cobra.Command{
		Use:   "enable <account-id>",
		Short: "Enable syncing for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return mutateAccount(a, args[0], func(acc *domain.Account) {
				acc.SyncEnabled = true
				acc.SyncBalanceOnly = balanceOnly
			})
		},
	}

	cmd.Flags().BoolVar(&balanceOnly, "balance-only", false, "sync the balance but not individual transactions")
	return cmd
}

func newAccountsDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <account-id>",
		Short: "Disable syncing for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			return mutateAccount(a, args[0], func(acc *domain.Account) {
				acc.SyncEnabled = false
			})
		},
	}
}

func newAccountsLinkCmd() *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "link <account-id> [asset-id]",
		Short: "Link an account to a remote asset",
		Long: "Links a wallet account to a remote asset so its transactions and\n" +
			"balance land in the right place. With --create, a new remote asset\n" +
			"named after the account is created instead of linking an existing one.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.ctx()

			acc, err := a.store.GetAccount(ctx, args[0])
			if err != nil {
				return err
			}
			if acc == nil {
				return fmt.Errorf("unknown account %q", args[0])
			}

			var assetID string
			switch {
			case create:
				id, err := a.remote.CreateAsset(ctx, lunchmoney.Asset{
					TypeName: "cash",
					Name:     acc.Name,
					Balance:  domain.FormatAmount(acc.Balance),
					Currency: "usd",
				})
				if err != nil {
					return fmt.Errorf("creating remote asset: %w", err)
				}
				assetID = fmt.Sprintf("%d", id)
				fmt.Printf("Created remote asset %s for %s.\n", assetID, acc.Name)
			case len(args) == 2:
				assetID = args[1]
				// Verify the asset exists before persisting the link.
				assets, err := a.remote.ListAssets(ctx)
				if err != nil {
					return fmt.Errorf("listing remote assets: %w", err)
				}
				found := false
				for _, asset := range assets {
					if fmt.Sprintf("%d", asset.ID) == assetID {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("remote asset %s not found", assetID)
				}
			default:
				return fmt.Errorf("provide an asset id or --create")
			}

			acc.RemoteAssetID = assetID
			acc.SyncEnabled = true
			acc.LastUpdated = time.Now()
			if err := a.store.UpsertAccount(ctx, acc); err != nil {
				return err
			}
			fmt.Printf("Linked %s to remote asset %s.\n", acc.ID, assetID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "create a new remote asset named after the account")
	return cmd
}

func mutateAccount(a *app, id string, mutate func(*domain.Account)) error {
	ctx := a.ctx()
	acc, err := a.store.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("unknown account %q", id)
	}
	mutate(acc)
	acc.LastUpdated = time.Now()
	if err := a.store.UpsertAccount(ctx, acc); err != nil {
		return err
	}
	fmt.Printf("Updated account %s.\n", acc.ID)
	return nil
}
