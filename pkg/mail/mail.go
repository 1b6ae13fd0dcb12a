// Package mail sends plain-text messages over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages. A nil error means the transport accepted the message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the Sender selected by cfg.Driver.
func New(cfg *Config, logger *slog.Logger) (Sender, error) {
	switch cfg.Driver {
	case DriverLog:
		return &logSender{logger: logger.With("system", "mail")}, nil
	case DriverSMTP:
		return newSMTP(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
	}
}

type smtp struct {
	client *gomail.Client
	from   string
	logger *slog.Logger
}

func newSMTP(cfg *Config, logger *slog.Logger) (*smtp, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(tlsPolicy(cfg.TLSPolicy)),
		gomail.WithTimeout(cfg.TimeoutDuration()),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &smtp{
		client: client,
		from:   cfg.From,
		logger: logger.With("system", "mail"),
	}, nil
}

func (s *smtp) Send(ctx context.Context, msg Message) error {
	m, err := newMsg(s.from, msg)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send to %s: %w", msg.To, err)
	}

	s.logger.Debug("message sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func newMsg(from string, msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return m, nil
}

func tlsPolicy(policy string) gomail.TLSPolicy {
	switch policy {
	case TLSNone:
		return gomail.NoTLS
	case TLSOpportunistic:
		return gomail.TLSOpportunistic
	default:
		return gomail.TLSMandatory
	}
}

type logSender struct {
	logger *slog.Logger
}

func (l *logSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Info("mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
