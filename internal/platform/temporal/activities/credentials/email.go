package credentials

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/retail-ops/internal/platform/credentials"
	"github.com/Apurer/retail-ops/internal/platform/mailer"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// SendEmailActivityName delivers a rendered credential e-mail.
const SendEmailActivityName = "credentials.activities.SendEmail"

// Activities groups the credential delivery activities.
type Activities struct {
	dispatcher mailer.Dispatcher
}

// NewActivities wires the mail dispatcher into the activities bundle.
func NewActivities(dispatcher mailer.Dispatcher) *Activities {
	return &Activities{dispatcher: dispatcher}
}

// SendEmail sends the e-mail once. Retries are left to the workflow's retry policy;
// malformed e-mails fail without retry.
func (a *Activities) SendEmail(ctx context.Context, email credentials.Email) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.dispatcher == nil {
		logger.Error("credential e-mail activity not initialized", "to", email.To)
		return errors.New("credential e-mail activity not initialized")
	}
	logger.Info("SendEmail activity started", "to", email.To, "attempt", activity.GetInfo(ctx).Attempt)
	err := a.dispatcher.SendCredentialsEmail(ctx, email.To, email.Subject, email.HTML)
	if errors.Is(err, failure.ErrValidation) {
		logger.Error("SendEmail rejected", "to", email.To, "error", err)
		return temporal.NewNonRetryableApplicationError(err.Error(), "InvalidEmail", err)
	}
	if err != nil {
		logger.Warn("SendEmail attempt failed", "to", email.To, "error", err)
		return err
	}
	logger.Info("SendEmail activity completed", "to", email.To)
	return nil
}
