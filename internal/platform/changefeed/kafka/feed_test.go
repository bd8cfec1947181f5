package kafka

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBrokers(t *testing.T) {
	require.Equal(t, []string{"k1:9092", "k2:9092"}, ParseBrokers(" k1:9092, ,k2:9092 "))
	require.Empty(t, ParseBrokers(""))
}

func TestOpenRequiresBrokers(t *testing.T) {
	_, err := Open(nil, "", "", nil)
	require.ErrorIs(t, err, ErrNoBrokers)
}
