package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sentiment-lens/internal/filter"
	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/types"
)

type Config struct {
	PageSize int
	Alerts   AlertConfig
}

// Pipeline runs ingest, classification and alerting strictly in sequence.
type Pipeline struct {
	ingestor *Ingestor
	runner   *Runner
	alerts   *AlertEngine
	now      func() time.Time
}

var _ interfaces.Cycle = (*Pipeline)(nil)

func New(
	store interfaces.Store,
	source interfaces.NewsSource,
	c interfaces.Classifier,
	notifier interfaces.Notifier,
	noise *filter.NoiseFilter,
	cfg Config,
) *Pipeline {
	return &Pipeline{
		ingestor: NewIngestor(store, source, cfg.PageSize),
		runner:   NewRunner(store, c, noise),
		alerts:   NewAlertEngine(store, notifier, cfg.Alerts),
		now:      time.Now,
	}
}

// SetClock replaces the time source of the pipeline and its alert window.
func (p *Pipeline) SetClock(now func() time.Time) {
	p.now = now
	p.alerts.now = now
}

// RunCycle performs one full pass. Ingestion problems never stop the cycle;
// classification and alert-scan failures abort it and are returned alongside
// the partial report.
func (p *Pipeline) RunCycle(ctx context.Context) (*types.CycleReport, error) {
	report := &types.CycleReport{ID: uuid.NewString(), StartedAt: p.now()}
	finish := func(err error) (*types.CycleReport, error) {
		report.FinishedAt = p.now()
		if err != nil {
			report.Error = err.Error()
		}
		return report, err
	}

	ingest, err := p.ingestor.Run(ctx)
	report.Ingest = ingest
	if err != nil {
		if ctx.Err() != nil {
			return finish(ctx.Err())
		}
		logger.ErrorWithErr(ctx, "Ingestion failed, continuing with classification", err, "cycle_id", report.ID)
	}

	classify, err := p.runner.Run(ctx)
	report.Classify = classify
	if err != nil {
		return finish(err)
	}

	alerts, err := p.alerts.Run(ctx)
	report.Alerts = alerts
	if err != nil {
		return finish(err)
	}

	return finish(nil)
}
