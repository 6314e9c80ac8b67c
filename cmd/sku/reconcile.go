package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/sku-resolver/internal/cli"
	"github.com/Veraticus/sku-resolver/internal/reconcile"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var noCheckpoint bool

	cmd := &cobra.Command{
		Use:   "reconcile <alias-id> <master-id>",
		Short: "Merge a duplicate or ambiguous entry into its master",
		Long: `Repoint every price quote of the alias entry to the master entry and
retire the alias. Quotes that would collide with an existing master quote
keep the newer price. The alias is never deleted.`,
		Example: `  sku catalog suggest 3f1c0d4e-...
  sku reconcile 3f1c0d4e-... elbow-90-half-inch`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			interrupts.SetOperation("Reconcile")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var opts []reconcile.Option
			if !noCheckpoint {
				opts = append(opts, reconcile.WithCheckpoint(func(ctx context.Context, reason string) error {
					return autoCheckpoint(ctx, store, reason)
				}))
			}

			moved, err := reconcile.New(store, opts...).Merge(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Merged %s into %s (%d quotes moved)",
				cli.InfoStyle.Render(args[0]), cli.InfoStyle.Render(args[1]), moved)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false, "Skip the automatic checkpoint before merging")

	return cmd
}
