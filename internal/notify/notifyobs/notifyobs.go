package notifyobs

import (
	"context"

	"sentiment-lens/internal/interfaces"
	"sentiment-lens/internal/logger"
)

type observableNotifier struct {
	notifier interfaces.Notifier
}

var _ interfaces.Notifier = (*observableNotifier)(nil)

// Wrap wraps a notifier with observability middleware
func Wrap(notifier interfaces.Notifier) interfaces.Notifier {
	return &observableNotifier{notifier: notifier}
}

func (on *observableNotifier) SendAlert(ctx context.Context, subject, body string) {
	timer := logger.StartOperation(ctx, "notify.SendAlert", "subject", subject)
	on.notifier.SendAlert(timer.GetContext(), subject, body)
	timer.End()
}
