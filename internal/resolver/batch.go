package resolver

import (
	"context"
	"fmt"

	"github.com/Veraticus/sku-resolver/internal/common"
	"github.com/Veraticus/sku-resolver/internal/model"
	"golang.org/x/sync/errgroup"
)

// Submit resolves every line of a submission concurrently. A failing line
// never stops the others: its error is recorded on its outcome. Submission
// level problems, such as an unknown vendor, fail the whole call before any
// line is touched.
func (c *Controller) Submit(ctx context.Context, sub model.PriceSubmission) (*SubmissionReport, error) {
	if sub.RequestID == "" {
		return nil, common.NewValidationError("request_id", "is required")
	}
	if sub.VendorID == "" {
		return nil, common.NewValidationError("vendor_id", "is required")
	}
	if _, err := c.store.GetVendor(ctx, sub.VendorID); err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}

	report := &SubmissionReport{
		RequestID: sub.RequestID,
		VendorID:  sub.VendorID,
		Outcomes:  make([]Outcome, len(sub.Lines)),
	}

	g, gctx := errgroup.WithContext(ctx)
	workers := c.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, line := range sub.Lines {
		g.Go(func() error {
			outcome, err := c.ResolveLine(gctx, sub, line)
			if err != nil {
				common.LogError(err, "Failed to resolve quoted line", common.Fields{
					"request": sub.RequestID,
					"vendor":  sub.VendorID,
					"line":    line.LineID,
				})
				report.Outcomes[i] = Outcome{LineID: line.LineID, Tier: TierFailed, Err: err}
				return nil
			}
			report.Outcomes[i] = *outcome
			return nil
		})
	}

	// Workers never return errors, so Wait only synchronizes.
	_ = g.Wait()

	return report, nil
}
