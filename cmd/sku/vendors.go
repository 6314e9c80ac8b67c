package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/cli"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/spf13/cobra"
)

func vendorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Manage quoting vendors",
	}

	cmd.AddCommand(vendorsAddCmd())
	cmd.AddCommand(vendorsListCmd())

	return cmd
}

func vendorsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <id> <name...>",
		Short:   "Add or rename a vendor",
		Example: `  sku vendors add acme "Acme Pipes & Fittings"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			vendor := &model.Vendor{
				ID:   strings.TrimSpace(args[0]),
				Name: strings.Join(args[1:], " "),
			}
			if err := store.SaveVendor(ctx, vendor); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved vendor %s (%s)",
				cli.InfoStyle.Render(vendor.ID), vendor.Name)))
			return nil
		},
	}
}

func vendorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all vendors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			vendors, err := store.ListVendors(ctx)
			if err != nil {
				return err
			}
			if len(vendors) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No vendors yet."))
				return nil
			}

			rows := make([][]string, 0, len(vendors))
			for _, v := range vendors {
				rows = append(rows, []string{
					cli.InfoStyle.Render(v.ID),
					v.Name,
					formatRelativeTime(v.CreatedAt),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "NAME", "ADDED"}, rows))
			return nil
		},
	}
}
