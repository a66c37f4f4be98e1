package pipelineobs

import (
	"context"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/types"
)

type observableCycle struct {
	cycle interfaces.Cycle
}

var _ interfaces.Cycle = (*observableCycle)(nil)

// Wrap wraps a cycle with observability middleware
func Wrap(cycle interfaces.Cycle) interfaces.Cycle {
	return &observableCycle{cycle: cycle}
}

func (oc *observableCycle) RunCycle(ctx context.Context) (*types.CycleReport, error) {
	timer := logger.StartOperation(ctx, "pipeline.RunCycle")
	ctx = timer.GetContext()

	logger.InfoSkip(ctx, 1, "Starting cycle")

	report, err := oc.cycle.RunCycle(ctx)
	if err != nil {
		if report != nil {
			timer.EndWithError(err, "cycle_id", report.ID)
		} else {
			timer.EndWithError(err)
		}
		return report, err
	}

	sent := 0
	for _, a := range report.Alerts {
		if !a.Suppressed {
			sent++
		}
	}
	fields := []any{
		"cycle_id", report.ID,
		"tickers", report.Ingest.Tickers,
		"inserted", report.Ingest.Inserted,
		"duplicates", report.Ingest.Duplicates,
		"failed_tickers", len(report.Ingest.FailedTickers),
		"classified", report.Classify.Classified,
		"skipped", report.Classify.Skipped,
		"alerts_sent", sent,
		"alerts_suppressed", len(report.Alerts)-sent,
	}
	if len(report.Ingest.FailedTickers) > 0 {
		logger.WarnSkip(ctx, 1, "Cycle completed with failed tickers",
			append(fields, "failed", report.Ingest.FailedTickers)...)
	} else {
		logger.InfoSkip(ctx, 1, "Cycle completed", fields...)
	}
	timer.End(fields...)
	return report, nil
}
