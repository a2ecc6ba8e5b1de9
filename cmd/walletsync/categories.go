package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dvloznov/wallet-sync/internal/domain"
)

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List and map wallet classification codes to remote categories",
	}
	cmd.AddCommand(
		newCategoriesListCmd(),
		newCategoriesMapCmd(),
		newCategoriesSkipCmd(),
	)
	return cmd
}

func newCategoriesListCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known classification codes and their mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.ctx()

			if remote {
				categories, err := a.remote.ListCategories(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("%-10s %s\n", "ID", "NAME")
				for _, c := range categories {
					fmt.Printf("%-10d %s\n", c.ID, c.Name)
				}
				return nil
			}

			mappings, err := a.store.ListCategoryMappings(ctx)
			if err != nil {
				return err
			}
			if len(mappings) == 0 {
				fmt.Println("No classification codes seen yet. Run 'walletsync sync' first.")
				return nil
			}

			fmt.Printf("%-10s %-24s %s\n", "CODE", "LOCAL NAME", "REMOTE CATEGORY")
			for _, m := range mappings {
				target := "(unmapped)"
				switch {
				case m.IsSkip():
					target = "(skipped)"
				case m.IsMapped():
					target = fmt.Sprintf("%s (%s)", m.RemoteCategoryName, m.RemoteCategoryID)
				}
				fmt.Printf("%-10s %-24s %s\n", m.Code, m.LocalName, target)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "list the remote service's categories instead")
	return cmd
}

func newCategoriesMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <code> <remote-category-id>",
		Short: "Map a classification code to a remote category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.ctx()

			code, remoteID := args[0], args[1]
			if remoteID == domain.CategorySkipSentinel {
				return fmt.Errorf("%q is reserved, use 'categories skip %s' instead", remoteID, code)
			}
			if _, err := strconv.ParseInt(remoteID, 10, 64); err != nil {
				return fmt.Errorf("remote category id %q is not numeric", remoteID)
			}

			mapping, err := a.store.GetCategoryMapping(ctx, code)
			if err != nil {
				return err
			}
			if mapping == nil {
				return fmt.Errorf("unknown classification code %q", code)
			}

			// Resolve the remote name so listings stay readable.
			categories, err := a.remote.ListCategories(ctx)
			if err != nil {
				return fmt.Errorf("listing remote categories: %w", err)
			}
			remoteName := ""
			for _, c := range categories {
				if strconv.FormatInt(c.ID, 10) == remoteID {
					remoteName = c.Name
					break
				}
			}
			if remoteName == "" {
				return fmt.Errorf("remote category %s not found", remoteID)
			}

			mapping.RemoteCategoryID = remoteID
			mapping.RemoteCategoryName = remoteName
			if err := a.store.SaveCategoryMapping(ctx, mapping); err != nil {
				return err
			}
			fmt.Printf("Mapped %s (%s) to %s.\n", code, mapping.LocalName, remoteName)
			return nil
		},
	}
}

func newCategoriesSkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip <code>",
		Short: "Exclude a classification code from categorization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := a.ctx()

			mapping, err := a.store.GetCategoryMapping(ctx, args[0])
			if err != nil {
				return err
			}
			if mapping == nil {
				return fmt.Errorf("unknown classification code %q", args[0])
			}

			mapping.RemoteCategoryID = domain.CategorySkipSentinel
			mapping.RemoteCategoryName = ""
			if err := a.store.SaveCategoryMapping(ctx, mapping); err != nil {
				return err
			}
			fmt.Printf("Classification code %s will stay uncategorized.\n", args[0])
			return nil
		},
	}
}
