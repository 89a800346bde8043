package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"
)

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	Logger   *slog.Logger
}

// Handle processes TaskTypeSendEmail tasks.
func (m *Mailer) Handle(ctx context.Context, t *asynq.Task) error {
	if m == nil {
		return errors.New("mailer: not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}
	if err := m.send(payload); err != nil {
		m.logger().Error("send email", slog.Any("error", err), slog.String("to", payload.To))
		return err
	}
	m.logger().Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

func (m *Mailer) send(payload SendEmailPayload) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", payload.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", payload.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(payload.Body)

	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	return smtp.SendMail(addr, auth, m.From, []string{payload.To}, []byte(msg.String()))
}

func (m *Mailer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger.With(slog.String("job", TaskTypeSendEmail))
	}
	return slog.Default().With(slog.String("job", TaskTypeSendEmail))
}
