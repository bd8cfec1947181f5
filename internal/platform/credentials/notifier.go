package credentials

import (
	"context"
	"time"

	"github.com/Apurer/retail-ops/internal/platform/mailer"
)

// Notifier delivers a rendered credential e-mail.
type Notifier interface {
	Deliver(ctx context.Context, email Email) error
}

// Inline calls the mailer directly, bounded by a timeout.
type Inline struct {
	dispatcher mailer.Dispatcher
	timeout    time.Duration
}

// NewInline wraps a dispatcher.
func NewInline(dispatcher mailer.Dispatcher, timeout time.Duration) *Inline {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Inline{dispatcher: dispatcher, timeout: timeout}
}

func (n *Inline) Deliver(ctx context.Context, email Email) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.dispatcher.SendCredentialsEmail(ctx, email.To, email.Subject, email.HTML)
}
