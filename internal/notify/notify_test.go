package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-lens/internal/config"
)

type recordingChannel struct {
	name     string
	err      error
	subjects []string
}

func (r *recordingChannel) Name() string { return r.name }

func (r *recordingChannel) Send(_ context.Context, subject, _ string) error {
	r.subjects = append(r.subjects, subject)
	return r.err
}

func TestDispatcherContinuesAfterChannelFailure(t *testing.T) {
	failing := &recordingChannel{name: "failing", err: errors.New("smtp down")}
	ok := &recordingChannel{name: "ok"}

	d := NewDispatcher(failing, ok)
	assert.NotPanics(t, func() {
		d.SendAlert(context.Background(), "Sentiment Alert for AAPL", "body")
	})

	assert.Equal(t, []string{"Sentiment Alert for AAPL"}, failing.subjects)
	assert.Equal(t, []string{"Sentiment Alert for AAPL"}, ok.subjects)
	assert.Equal(t, []string{"failing", "ok"}, d.Channels())
}

func TestDispatcherWithoutChannels(t *testing.T) {
	d := New(context.Background(), config.Secrets{})
	assert.Empty(t, d.Channels())
	assert.NotPanics(t, func() { d.SendAlert(context.Background(), "s", "b") })
}

func TestEmailSend(t *testing.T) {
	cfg := config.SMTP{Server: "smtp.example.com", Port: 587, User: "lens@example.com", Password: "pw", Recipient: "ops@example.com"}
	e := NewEmail(cfg)
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	e.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, e.Send(context.Background(), "Sentiment Alert for AAPL", "3 negative articles"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "lens@example.com", gotFrom)
	assert.Equal(t, []string{"ops@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: Sentiment Alert for AAPL\r\n")
	assert.Contains(t, msg, "To: ops@example.com\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n3 negative articles\r\n"))
}

func TestEmailSendError(t *testing.T) {
	e := NewEmail(config.SMTP{Server: "s", Port: 25, User: "u", Password: "p", Recipient: "r"})
	e.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("auth failed") }
	assert.Error(t, e.Send(context.Background(), "s", "b"))
}

type fakeBot struct {
	sent []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramSend(t *testing.T) {
	bot := &fakeBot{}
	tg := &Telegram{api: bot, chatID: 42}

	require.NoError(t, tg.Send(context.Background(), "Sentiment Alert for AAPL", "body"))
	require.Len(t, bot.sent, 1)

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "Sentiment Alert for AAPL\n\nbody", msg.Text)
}
