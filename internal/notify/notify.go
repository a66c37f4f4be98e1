// Package notify delivers sentiment alerts. Every alert is emitted through
// the structured logger first; configured channels are best effort.
package notify

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/trace"
)

// Channel is one delivery mechanism such as e-mail or Telegram.
type Channel interface {
	Name() string
	Send(ctx context.Context, subject, body string) error
}

// Dispatcher fans an alert out to every configured channel.
type Dispatcher struct {
	channels []Channel
}

var _ interfaces.Notifier = (*Dispatcher)(nil)

func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Channels returns the names of the configured delivery channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, c := range d.channels {
		names = append(names, c.Name())
	}
	return names
}

// SendAlert never fails: delivery errors are logged with the subject.
func (d *Dispatcher) SendAlert(ctx context.Context, subject, body string) {
	logger.Alert(ctx, subject, body, "channels", d.Channels())

	for _, c := range d.channels {
		err := c.Send(ctx, subject, body)
		trace.AddEvent(ctx, "alert_delivery",
			attribute.String("channel", c.Name()),
			attribute.Bool("delivered", err == nil),
		)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to deliver alert", err,
				"channel", c.Name(),
				"subject", subject,
			)
			continue
		}
		logger.Info(ctx, "Alert delivered", "channel", c.Name(), "subject", subject)
	}
}
