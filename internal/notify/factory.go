package notify

import (
	"context"

	"sentiment-lens/internal/config"
	"sentiment-lens/internal/logger"
)

// New builds a dispatcher with every channel whose credentials are complete.
// Without any channel, alerts are only emitted to the log.
func New(ctx context.Context, secrets config.Secrets) *Dispatcher {
	var channels []Channel

	if secrets.SMTP.Complete() {
		channels = append(channels, NewEmail(secrets.SMTP))
	} else {
		logger.Warn(ctx, "SMTP configuration incomplete, e-mail alerts disabled")
	}

	switch {
	case secrets.TelegramToken != "" && secrets.TelegramChatID != 0:
		tg, err := NewTelegram(secrets.TelegramToken, secrets.TelegramChatID)
		if err != nil {
			logger.ErrorWithErr(ctx, "Telegram alerts disabled", err)
		} else {
			channels = append(channels, tg)
		}
	case secrets.TelegramToken != "" || secrets.TelegramChatID != 0:
		logger.Warn(ctx, "Telegram configuration incomplete, telegram alerts disabled")
	}

	if len(channels) == 0 {
		logger.Warn(ctx, "No alert delivery channel configured, alerts will only be logged")
	}
	return NewDispatcher(channels...)
}
