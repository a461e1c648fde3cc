package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/sony/gobreaker"

	"github.com/tasktrackhq/tasktrack-api/internal/config"
)

// sendFunc matches smtp.SendMail so delivery can be stubbed in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers messages over SMTP. A circuit breaker sits in
// front of the server: after repeated consecutive failures the breaker
// opens and sends fail fast until the cool-down passes, so a dead mail
// server cannot pile up hanging connections.
type SMTPMailer struct {
	addr     string
	from     string
	auth     smtp.Auth
	breaker  *gobreaker.CircuitBreaker
	sendMail sendFunc
	logger   *slog.Logger
}

// NewSMTPMailer creates a mailer for the given SMTP settings.
// If logger is nil, a default logger will be used.
func NewSMTPMailer(cfg config.SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "smtp_mailer"))

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:     cfg.From,
		auth:     auth,
		breaker:  breaker,
		sendMail: smtp.SendMail,
		logger:   log,
	}
}

// Ensure SMTPMailer implements the Mailer interface
var _ Mailer = (*SMTPMailer)(nil)

// Send implements Mailer.Send
// Transport errors, including an open breaker, come back to the caller
// so the notification layer can decide whether to retry.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	body, err := buildMIME(m.from, msg)
	if err != nil {
		return err
	}

	_, err = m.breaker.Execute(func() (interface{}, error) {
		return nil, m.sendMail(m.addr, m.auth, m.from, []string{msg.To}, body)
	})
	if err != nil {
		m.logger.Warn("failed to send email",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject))
	return nil
}

// LogMailer writes messages to the log instead of sending them. It
// serves development and test environments where SMTP is disabled.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that only logs.
// If logger is nil, a default logger will be used.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{
		logger: logger.With(slog.String("component", "log_mailer")),
	}
}

// Ensure LogMailer implements the Mailer interface
var _ Mailer = (*LogMailer)(nil)

// Send implements Mailer.Send
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	m.logger.Info("email delivery skipped, smtp disabled",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("text_bytes", len(msg.TextBody)),
		slog.Int("html_bytes", len(msg.HTMLBody)))
	return nil
}
