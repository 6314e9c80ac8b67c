package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/cli"
	"github.com/Veraticus/sku-resolver/internal/ingest"
	"github.com/Veraticus/sku-resolver/internal/matcher"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/normalize"
	"github.com/Veraticus/sku-resolver/internal/reconcile"
	"github.com/spf13/cobra"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Import, search and maintain the SKU catalog",
	}

	cmd.AddCommand(catalogImportCmd())
	cmd.AddCommand(catalogSearchCmd())
	cmd.AddCommand(catalogMatchCmd())
	cmd.AddCommand(catalogSuggestCmd())
	cmd.AddCommand(catalogBackfillCmd())

	return cmd
}

func catalogImportCmd() *cobra.Command {
	var noCheckpoint bool

	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import catalog entries from a spreadsheet",
		Long: `Import catalog rows from an Excel workbook (first sheet) or a CSV file.

Headers are matched case-insensitively: brand, category, unit, type are
required; pack_qty, pack_unit, description, material, variant, size,
size_unit, canonical_key, status and id are optional. Rows that derive to an
existing canonical key update that entry instead of creating a duplicate.`,
		Example: `  sku catalog import fittings.xlsx
  sku catalog import pipes.csv --no-checkpoint`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			interrupts.SetOperation("Catalog import")

			rows, err := ingest.ReadFile(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := newEngine(store)
			if err != nil {
				return err
			}

			if !noCheckpoint {
				if err := autoCheckpoint(ctx, store, "before catalog import"); err != nil {
					return err
				}
			}

			importer := ingest.NewImporter(store, eng.projector)
			progress := cli.NewProgress(os.Stderr, len(rows), "Importing catalog...")
			importer.SetProgress(progress.Update)

			result, err := importer.Import(ctx, rows)
			if result != nil {
				summary := fmt.Sprintf("  • Rows read: %d\n", len(rows)) +
					fmt.Sprintf("  • Created: %d\n", result.Created) +
					fmt.Sprintf("  • Updated: %d\n", result.Updated) +
					fmt.Sprintf("  • Without canonical key: %d\n", result.Keyless) +
					fmt.Sprintf("  • Skipped: %d", result.Skipped())
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Catalog Import", summary))

				for i, rowErr := range result.Invalid {
					if i == 10 {
						fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render(
							fmt.Sprintf("  … and %d more", len(result.Invalid)-10)))
						break
					}
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(rowErr.Error()))
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&noCheckpoint, "no-checkpoint", false, "Skip the automatic checkpoint before importing")

	return cmd
}

func catalogSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Keyword search over the catalog",
		Long: `Rank active entries by keyword hits on ID, canonical key, brand, category
and description. This is the human-facing search; quote resolution uses the
gated matcher instead (see "sku catalog match").`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			results, err := matcher.NewSearcher(store).Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No matching entries."))
				return nil
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					cli.InfoStyle.Render(r.Entry.ID),
					entryKey(r.Entry),
					r.Entry.Brand,
					r.Display,
					strconv.Itoa(r.Score),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(
				[]string{"ID", "CANONICAL KEY", "BRAND", "SIZE", "SCORE"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Maximum number of results")

	return cmd
}

func catalogMatchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "match <query>",
		Short: "Show how a query would be resolved",
		Long: `Parse a free-text query the way quote resolution does and list the gated,
scored candidates with the confidence each would carry.`,
		Example: `  sku catalog match "uPVC elbow 90 1/2 inch"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := newEngine(store)
			if err != nil {
				return err
			}

			desc := eng.parser.Parse(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), describe(desc))

			candidates, err := eng.matcher.Match(ctx, desc, limit)
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No candidates pass the gates."))
				return nil
			}

			ctrl := eng.controller(store)
			rows := make([][]string, 0, len(candidates))
			for _, c := range candidates {
				rows = append(rows, []string{
					cli.InfoStyle.Render(c.Entry.ID),
					entryKey(c.Entry),
					fmt.Sprintf("%.2f", c.TypeSimilarity),
					fmt.Sprintf("%.2f", c.DeltaMM),
					fmt.Sprintf("%.0f", c.Score),
					fmt.Sprintf("%.2f", ctrl.Confidence(c.Score)),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(
				[]string{"ID", "CANONICAL KEY", "TYPE SIM", "Δ MM", "SCORE", "CONFIDENCE"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of candidates (default from config)")

	return cmd
}

func catalogSuggestCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <entry-id>",
		Short: "Suggest master entries for an ambiguous entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := newEngine(store)
			if err != nil {
				return err
			}

			r := reconcile.New(store, reconcile.WithSuggestions(eng.parser, eng.matcher))
			suggestions, err := r.Suggest(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No suggestions."))
				return nil
			}

			rows := make([][]string, 0, len(suggestions))
			for _, s := range suggestions {
				rows = append(rows, []string{
					cli.InfoStyle.Render(s.Entry.ID),
					entryKey(s.Entry),
					s.Entry.Description,
					fmt.Sprintf("%.0f", s.Score),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderTable(
				[]string{"ID", "CANONICAL KEY", "DESCRIPTION", "SCORE"}, rows))
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(
				fmt.Sprintf("Merge with: sku reconcile %s <master-id>", args[0])))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Maximum number of suggestions")

	return cmd
}

func catalogBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Recompute derived attributes and canonical keys",
		Long: `Recompute canonical type, material, variant, sizes and canonical keys of
every entry from its free-text attributes. Use after changing the
vocabulary in config.yaml.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			interrupts.SetOperation("Backfill")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng, err := newEngine(store)
			if err != nil {
				return err
			}

			if err := autoCheckpoint(ctx, store, "before backfill"); err != nil {
				return err
			}

			var progress *cli.Progress
			b := ingest.NewBackfiller(store, eng.projector)
			b.SetProgress(func(done, total int) {
				if progress == nil {
					progress = cli.NewProgress(os.Stderr, total, "Backfilling...")
				}
				progress.Update(done, total)
			})

			result, err := b.Run(ctx)
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("  • Scanned: %d\n", result.Scanned) +
				fmt.Sprintf("  • Updated: %d\n", result.Updated) +
				fmt.Sprintf("  • Keys assigned: %d\n", result.KeysAssigned) +
				fmt.Sprintf("  • Key conflicts: %d", len(result.Conflicts))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Backfill", summary))

			for _, id := range result.Conflicts {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning(
					fmt.Sprintf("%s duplicates an existing key; see: sku catalog suggest %s", id, id)))
			}
			return nil
		},
	}
}

func entryKey(e model.CatalogEntry) string {
	if e.Ambiguous {
		return cli.WarningStyle.Render("(ambiguous)")
	}
	if e.CanonicalKey == "" {
		return cli.SubtleStyle.Render("-")
	}
	return e.CanonicalKey
}

func describe(d model.Descriptor) string {
	parts := []string{"type=" + orDash(d.Type), "material=" + orDash(d.Material), "variant=" + orDash(d.Variant)}
	switch d.DimensionCount() {
	case 1:
		parts = append(parts, "size="+normalize.FormatMM(*d.PrimaryMM))
	case 2:
		parts = append(parts, "size="+normalize.FormatMM(*d.PrimaryMM)+" x "+normalize.FormatMM(*d.SecondaryMM))
	}
	parts = append(parts, fmt.Sprintf("tolerance=%.2fmm", d.ToleranceMM))
	if d.Ambiguous {
		parts = append(parts, cli.WarningStyle.Render("ambiguous"))
	}
	return cli.SubtleStyle.Render(strings.Join(parts, "  "))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
