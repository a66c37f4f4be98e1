package pipeline

import (
	"context"
	"fmt"
	"time"

	"sentiment-lens/internal/config"
	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/types"
)

type AlertConfig struct {
	Threshold int64
	Window    time.Duration
	// Policy is config.PolicyEveryCycle or config.PolicyCooldown.
	Policy   string
	Cooldown time.Duration
}

func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		Threshold: 3,
		Window:    24 * time.Hour,
		Policy:    config.PolicyCooldown,
		Cooldown:  24 * time.Hour,
	}
}

// AlertEngine notifies about tickers whose negative article count within the
// rolling window reaches the threshold.
type AlertEngine struct {
	store    interfaces.Store
	notifier interfaces.Notifier
	cfg      AlertConfig
	now      func() time.Time
}

func NewAlertEngine(store interfaces.Store, notifier interfaces.Notifier, cfg AlertConfig) *AlertEngine {
	if cfg.Threshold < 1 {
		cfg.Threshold = 1
	}
	return &AlertEngine{store: store, notifier: notifier, cfg: cfg, now: time.Now}
}

// Run scans the window once. Under the cooldown policy an alert is
// suppressed while the previous one for the same ticker is younger than the
// cooldown.
func (e *AlertEngine) Run(ctx context.Context) ([]types.Alert, error) {
	now := e.now()
	counts, err := e.store.NegativeCountsSince(ctx, now.Add(-e.cfg.Window), e.cfg.Threshold)
	if err != nil {
		return nil, err
	}

	alerts := make([]types.Alert, 0, len(counts))
	for _, c := range counts {
		subject, body := FormatAlert(c.Symbol, c.Count, e.cfg.Window)
		alert := types.Alert{Symbol: c.Symbol, NegativeCount: c.Count, Subject: subject, Body: body}

		if e.cfg.Policy == config.PolicyCooldown && e.inCooldown(ctx, c.TickerID, now) {
			alert.Suppressed = true
			logger.Info(ctx, "Alert suppressed during cooldown",
				"symbol", c.Symbol,
				"negative_count", c.Count,
				"cooldown", e.cfg.Cooldown.String(),
			)
			alerts = append(alerts, alert)
			continue
		}

		e.notifier.SendAlert(ctx, subject, body)

		if e.cfg.Policy == config.PolicyCooldown {
			if err := e.store.RecordAlert(ctx, &types.AlertLog{
				TickerID:      c.TickerID,
				Symbol:        c.Symbol,
				NegativeCount: c.Count,
				Subject:       subject,
				SentAt:        now,
			}); err != nil {
				logger.ErrorWithErr(ctx, "Failed to record alert", err, "symbol", c.Symbol)
			}
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// inCooldown fails open: an unreadable alert log never blocks an alert.
func (e *AlertEngine) inCooldown(ctx context.Context, tickerID uint, now time.Time) bool {
	last, ok, err := e.store.LastAlertAt(ctx, tickerID)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to read alert log", err, "ticker_id", tickerID)
		return false
	}
	return ok && now.Sub(last) < e.cfg.Cooldown
}

// FormatAlert renders the alert subject and body.
func FormatAlert(symbol string, count int64, window time.Duration) (subject, body string) {
	subject = "Sentiment Alert for " + symbol
	body = fmt.Sprintf(
		"SentimentLens has detected %d negative articles for %s in the last %s. You may want to review this ticker.",
		count, symbol, windowPhrase(window),
	)
	return subject, body
}

func windowPhrase(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "hour"
	case d > 0 && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int64(d/time.Hour))
	case d > 0 && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int64(d/time.Minute))
	}
	return d.String()
}
