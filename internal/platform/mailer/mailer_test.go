package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/Apurer/retail-ops/internal/shared/failure"
)

func TestSMTPRetriesThenSucceeds(t *testing.T) {
	s, err := NewSMTP(Config{Host: "smtp.example.com", From: "ops@example.com", Attempts: 3})
	require.NoError(t, err)
	calls := 0
	s.dial = func(_ context.Context, msg *mail.Msg) error {
		calls++
		if calls < 2 {
			return errors.New("connection reset")
		}
		if msg == nil {
			return errors.New("no message")
		}
		return nil
	}
	require.NoError(t, s.SendCredentialsEmail(context.Background(), "store@example.com", "Your login", "<p>hi</p>"))
	require.Equal(t, 2, calls)
}

func TestSMTPGivesUpAsExternalFailure(t *testing.T) {
	s, err := NewSMTP(Config{Host: "smtp.example.com", From: "ops@example.com", Attempts: 2})
	require.NoError(t, err)
	calls := 0
	s.dial = func(context.Context, *mail.Msg) error {
		calls++
		return errors.New("relay down")
	}
	err = s.SendCredentialsEmail(context.Background(), "store@example.com", "s", "b")
	require.ErrorIs(t, err, failure.ErrExternalService)
	require.Equal(t, 2, calls)
}

func TestSMTPRejectsBadRecipient(t *testing.T) {
	s, err := NewSMTP(Config{Host: "smtp.example.com", From: "ops@example.com"})
	require.NoError(t, err)
	err = s.SendCredentialsEmail(context.Background(), "not an address", "s", "b")
	require.ErrorIs(t, err, failure.ErrValidation)
}

func TestNewFallsBackToLogOnly(t *testing.T) {
	d, err := New(Config{}, nil)
	require.NoError(t, err)
	require.IsType(t, &LogOnly{}, d)
	require.NoError(t, d.SendCredentialsEmail(context.Background(), "a@b.c", "s", "b"))
}
