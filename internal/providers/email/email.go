// Package email delivers outbound mail for invoice and account events.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/hydrosuite/aquabill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Provider sends a single plain-text message.
type Provider interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Module provides the configured email provider.
var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

// NewFromConfig returns the SMTP provider when a host is configured,
// otherwise a no-op that only logs.
func NewFromConfig(p Params) Provider {
	if p.Config.SMTP.Host == "" {
		return &noopProvider{log: p.Log.Named("email.noop")}
	}
	return &smtpProvider{
		cfg: p.Config.SMTP,
		log: p.Log.Named("email.smtp"),
	}
}

type noopProvider struct {
	log *zap.Logger
}

func (p *noopProvider) Send(_ context.Context, to, subject, _ string) error {
	p.log.Debug("email delivery disabled",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

type smtpProvider struct {
	cfg config.SMTPConfig
	log *zap.Logger
}

func (p *smtpProvider) Send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + p.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, p.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	p.log.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
