package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/cli"
	"github.com/Veraticus/sku-resolver/internal/storage"
	"github.com/spf13/cobra"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage catalog checkpoints",
		Long: `Create, list, restore, and delete catalog database checkpoints.

Imports, backfills and merges take an automatic checkpoint first; the five
newest automatic checkpoints are kept.`,
		Example: `  # Checkpoint before hand-editing the catalog
  sku checkpoint create --tag before-cleanup

  # Restore from a checkpoint
  sku checkpoint restore before-cleanup`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(restoreCheckpointCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

func createCheckpointCmd() *cobra.Command {
	var tag string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager, err := store.NewCheckpointManager()
			if err != nil {
				return fmt.Errorf("failed to create checkpoint manager: %w", err)
			}

			info, err := manager.Create(ctx, tag, description)
			if err != nil {
				return fmt.Errorf("failed to create checkpoint: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created checkpoint %s (%s)",
				cli.InfoStyle.Render(info.ID), formatFileSize(info.FileSize))))
			if info.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  Description: %s\n", info.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Checkpoint tag/name (auto-generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description of the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all checkpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager, err := store.NewCheckpointManager()
			if err != nil {
				return fmt.Errorf("failed to create checkpoint manager: %w", err)
			}

			checkpoints, err := manager.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list checkpoints: %w", err)
			}
			if len(checkpoints) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No checkpoints found."))
				return nil
			}

			rows := make([][]string, 0, len(checkpoints))
			for _, cp := range checkpoints {
				typeLabel := "manual"
				if cp.IsAuto {
					typeLabel = "auto"
				}
				rows = append(rows, []string{
					cli.InfoStyle.Render(cp.ID),
					formatRelativeTime(cp.CreatedAt),
					formatFileSize(cp.FileSize),
					strconv.Itoa(cp.Entries),
					strconv.Itoa(cp.Quotes),
					strconv.Itoa(cp.Vendors),
					cli.SubtitleStyle.Render(typeLabel),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(
				[]string{"NAME", "CREATED", "SIZE", "ENTRIES", "QUOTES", "VENDORS", "TYPE"}, rows))
			return nil
		},
	}
}

func restoreCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <checkpoint-id>",
		Short: "Restore the catalog from a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			checkpointID := args[0]

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			// Restore closes the database handle itself.
			manager, err := store.NewCheckpointManager()
			if err != nil {
				_ = store.Close()
				return fmt.Errorf("failed to create checkpoint manager: %w", err)
			}

			info, err := manager.Get(ctx, checkpointID)
			if err != nil {
				_ = store.Close()
				return fmt.Errorf("failed to get checkpoint info: %w", err)
			}

			if !force {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf(
					"This will replace your current catalog with checkpoint %s.", cli.InfoStyle.Render(checkpointID))))
				describeCheckpoint(out, info)
				if !confirm(cmd.InOrStdin(), out) {
					fmt.Fprintln(out, cli.SubtitleStyle.Render("Restore cancelled."))
					_ = store.Close()
					return nil
				}
			}

			if err := manager.Restore(ctx, checkpointID); err != nil {
				return fmt.Errorf("failed to restore checkpoint: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				"Restored from checkpoint "+cli.InfoStyle.Render(checkpointID)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func deleteCheckpointCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <checkpoint-id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			checkpointID := args[0]

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			manager, err := store.NewCheckpointManager()
			if err != nil {
				return fmt.Errorf("failed to create checkpoint manager: %w", err)
			}

			info, err := manager.Get(ctx, checkpointID)
			if err != nil {
				return fmt.Errorf("failed to get checkpoint info: %w", err)
			}

			if !force {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf(
					"This will permanently delete checkpoint %s.", cli.InfoStyle.Render(checkpointID))))
				describeCheckpoint(out, info)
				if !confirm(cmd.InOrStdin(), out) {
					fmt.Fprintln(out, cli.SubtitleStyle.Render("Deletion cancelled."))
					return nil
				}
			}

			if err := manager.Delete(ctx, checkpointID); err != nil {
				return fmt.Errorf("failed to delete checkpoint: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				"Deleted checkpoint "+cli.InfoStyle.Render(checkpointID)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func describeCheckpoint(w io.Writer, info *storage.CheckpointInfo) {
	fmt.Fprintf(w, "  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
	if info.Description != "" {
		fmt.Fprintf(w, "  Description: %s\n", info.Description)
	}
	fmt.Fprintf(w, "  Contents: %d entries, %d quotes, %d vendors (%s)\n",
		info.Entries, info.Quotes, info.Vendors, formatFileSize(info.FileSize))
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "\nContinue? (y/N) ")
	response, _ := bufio.NewReader(in).ReadString('\n')
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "y")
}
