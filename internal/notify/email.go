package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"time"

	"sentiment-lens/internal/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email sends alerts over SMTP. smtp.SendMail upgrades the connection with
// STARTTLS when the server offers it, which PLAIN auth requires for
// non-local hosts.
type Email struct {
	cfg      config.SMTP
	sendMail sendMailFunc
	now      func() time.Time
}

func NewEmail(cfg config.SMTP) *Email {
	return &Email{cfg: cfg, sendMail: smtp.SendMail, now: time.Now}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	auth := smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Server)
	msg := e.message(subject, body)
	if err := e.sendMail(e.cfg.Addr(), auth, e.cfg.User, []string{e.cfg.Recipient}, msg); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", e.cfg.Recipient, err)
	}
	return nil
}

func (e *Email) message(subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.User)
	fmt.Fprintf(&b, "To: %s\r\n", e.cfg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", e.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return b.Bytes()
}
