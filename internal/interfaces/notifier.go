package interfaces

import "context"

// Notifier delivers an alert. Delivery failures are handled inside the
// implementation and never surface to the caller.
type Notifier interface {
	SendAlert(ctx context.Context, subject, body string)
}
