// Package mailer delivers credential e-mails over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/wneessen/go-mail"

	"github.com/Apurer/retail-ops/internal/shared/failure"
)

const service = "mailer"

// Dispatcher sends a single HTML e-mail.
type Dispatcher interface {
	SendCredentialsEmail(ctx context.Context, to, subject, htmlBody string) error
}

// Config describes the SMTP relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Attempts int
}

// Enabled reports whether an SMTP host is configured.
func (c Config) Enabled() bool { return strings.TrimSpace(c.Host) != "" }

// SMTP sends through go-mail with bounded retries on transient failures.
type SMTP struct {
	cfg  Config
	dial func(ctx context.Context, msg *mail.Msg) error
}

// NewSMTP validates cfg and builds an SMTP dispatcher.
func NewSMTP(cfg Config) (*SMTP, error) {
	if !cfg.Enabled() {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("mail sender address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	s := &SMTP{cfg: cfg}
	s.dial = s.dialAndSend
	return s, nil
}

func (s *SMTP) SendCredentialsEmail(ctx context.Context, to, subject, htmlBody string) error {
	msg, err := s.message(to, subject, htmlBody)
	if err != nil {
		return failure.Validation(err)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.Attempts-1)), ctx)
	if err := backoff.Retry(func() error { return s.dial(ctx, msg) }, policy); err != nil {
		return failure.External(service, err)
	}
	return nil
}

func (s *SMTP) message(to, subject, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := msg.To(strings.TrimSpace(to)); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}

func (s *SMTP) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return backoff.Permanent(err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return client.DialAndSendWithContext(ctx, msg)
}

// LogOnly writes the e-mail to the logger instead of sending it. Used when SMTP is not configured.
type LogOnly struct {
	logger *slog.Logger
}

func NewLogOnly(logger *slog.Logger) *LogOnly {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogOnly{logger: logger}
}

func (l *LogOnly) SendCredentialsEmail(ctx context.Context, to, subject, _ string) error {
	l.logger.WarnContext(ctx, "smtp not configured, credential e-mail not sent",
		slog.String("to", to), slog.String("subject", subject))
	return nil
}

// New returns the SMTP dispatcher when configured, the log-only one otherwise.
func New(cfg Config, logger *slog.Logger) (Dispatcher, error) {
	if !cfg.Enabled() {
		return NewLogOnly(logger), nil
	}
	return NewSMTP(cfg)
}
