package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/sku-resolver/internal/cli"
	"github.com/Veraticus/sku-resolver/internal/model"
	"github.com/Veraticus/sku-resolver/internal/resolver"
	"github.com/spf13/cobra"
)

func quotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Submit and inspect vendor price quotes",
	}

	cmd.AddCommand(quotesSubmitCmd())
	cmd.AddCommand(quotesListCmd())

	return cmd
}

func quotesSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <file.json>",
		Short: "Resolve a vendor price submission against the catalog",
		Long: `Resolve every quoted line of a vendor submission to catalog entries and
record normalized prices. Lines are resolved independently; resubmitting the
same file updates prices in place.

The file is a JSON object with request_id, vendor_id, currency and a lines
array of {line_id, price, price_unit, lead_time_days, comment}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			interrupts.SetOperation("Quote submission")

			var sub model.PriceSubmission
			if err := readJSONFile(args[0], &sub); err != nil {
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

			report, err := eng.controller(store).Submit(ctx, sub)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(report.Outcomes))
			for _, o := range report.Outcomes {
				rows = append(rows, outcomeRow(o))
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, cli.RenderTable([]string{"LINE", "TIER", "CONFIDENCE", "ENTRIES", "QUERY"}, rows))

			summary := fmt.Sprintf("  • Auto-resolved: %d\n", report.Count(resolver.TierAutoResolved)) +
				fmt.Sprintf("  • Candidates: %d\n", report.Count(resolver.TierCandidates)) +
				fmt.Sprintf("  • Ambiguous: %d\n", report.Count(resolver.TierAmbiguous)) +
				fmt.Sprintf("  • Failed: %d", report.Count(resolver.TierFailed))
			fmt.Fprintln(out, cli.RenderBox(fmt.Sprintf("Submission %s / %s", report.RequestID, report.VendorID), summary))
			return nil
		},
	}
}

func outcomeRow(o resolver.Outcome) []string {
	tier := string(o.Tier)
	switch o.Tier {
	case resolver.TierAutoResolved:
		tier = cli.SuccessStyle.Render(tier)
	case resolver.TierCandidates:
		tier = cli.InfoStyle.Render(tier)
	case resolver.TierAmbiguous:
		tier = cli.WarningStyle.Render(tier)
	case resolver.TierFailed:
		tier = cli.ErrorStyle.Render(tier)
	}

	entries := strings.Join(o.EntryIDs(), ", ")
	if o.MintedEntry != "" {
		entries += cli.SubtleStyle.Render(" (new)")
	}
	if o.Err != nil {
		entries = cli.ErrorStyle.Render(o.Err.Error())
	}

	query := o.Query
	if o.UsedFallback {
		query += cli.SubtleStyle.Render(" (comment)")
	}

	return []string{o.LineID, tier, fmt.Sprintf("%.2f", o.Confidence), entries, query}
}

func quotesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <entry-id>",
		Short: "List the price quotes recorded against an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entry, err := store.GetEntry(ctx, args[0])
			if err != nil {
				return err
			}
			quotes, err := store.GetQuotesByEntry(ctx, entry.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s (per %s)", entry.Description, entry.Unit)))
			if len(quotes) == 0 {
				fmt.Fprintln(out, cli.SubtitleStyle.Render("No quotes recorded."))
				return nil
			}

			rows := make([][]string, 0, len(quotes))
			for _, q := range quotes {
				resolved := cli.SubtleStyle.Render("no")
				if q.Resolved {
					resolved = cli.SuccessStyle.Render("yes")
				}
				rows = append(rows, []string{
					cli.InfoStyle.Render(q.VendorID),
					q.Price.StringFixed(2) + " " + q.Currency,
					strconv.Itoa(q.LeadTimeDays),
					string(q.Source),
					resolved,
					q.QuoteRef,
					formatRelativeTime(q.UpdatedAt),
				})
			}
			fmt.Fprint(out, cli.RenderTable(
				[]string{"VENDOR", "PRICE", "LEAD DAYS", "SOURCE", "RESOLVED", "REF", "UPDATED"}, rows))
			return nil
		},
	}
}
