package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

type stateErr string

func (e stateErr) Error() string    { return "sqlstate " + string(e) }
func (e stateErr) SQLState() string { return string(e) }

func TestClassifyError(t *testing.T) {
	require.Equal(t, ErrorClassSerialization, ClassifyError(&pq.Error{Code: "40001"}))
	require.Equal(t, ErrorClassDeadlock, ClassifyError(fmt.Errorf("wrapped: %w", &pq.Error{Code: "40P01"})))
	require.Equal(t, ErrorClassTransient, ClassifyError(stateErr("55P03")))
	require.Equal(t, ErrorClassPermanent, ClassifyError(stateErr("23505")))
	require.Equal(t, ErrorClassPermanent, ClassifyError(errors.New("plain")))
	require.Equal(t, ErrorClassPermanent, ClassifyError(nil))
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(stateErr("40001")))
	require.False(t, IsRetryable(stateErr("23503")))
}
