package main

import (
	"fmt"

	"github.com/Veraticus/sku-resolver/internal/cli"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/spf13/cobra"
)

func requestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Manage procurement request lines",
	}

	cmd.AddCommand(requestsImportCmd())

	return cmd
}

func requestsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import procurement request lines",
		Long: `Store a copy of procurement request lines so vendor quotes can be resolved
against their material name, sub-type and dimension.

The file is a JSON array of objects with request_id, line_id,
material_name, sub_type, dimension, dimension_unit and quantity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var lines []model.RequestLineItem
			if err := readJSONFile(args[0], &lines); err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveRequestLines(ctx, lines); err != nil {
				return err
			}

			requests := make(map[string]struct{})
			for _, l := range lines {
				requests[l.RequestID] = struct{}{}
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Imported %d lines across %d requests", len(lines), len(requests))))
			return nil
		},
	}
}
