package failure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindClassifiesWrappedErrors(t *testing.T) {
	cause := errors.New("agent missing")

	require.Equal(t, ErrNotFound, Kind(NotFound(cause)))
	require.Equal(t, ErrConflict, Kind(Conflict(cause)))
	require.Equal(t, ErrValidation, Kind(Validation(cause)))
	require.Equal(t, ErrExternalService, Kind(External("geocoder", cause)))
	require.Nil(t, Kind(cause))
	require.ErrorIs(t, NotFound(cause), cause)
}

func TestWrapIsIdempotent(t *testing.T) {
	once := Conflict(errors.New("already assigned"))
	require.Equal(t, once, Conflict(once))
	require.Nil(t, NotFound(nil))
	require.Nil(t, External("mailer", nil))
}

func TestRetryable(t *testing.T) {
	require.True(t, Retryable(External("mailer", context.DeadlineExceeded)))
	require.True(t, Retryable(context.DeadlineExceeded))
	require.False(t, Retryable(Conflict(errors.New("stale"))))
}
