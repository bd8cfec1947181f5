package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampStock(t *testing.T) {
	cases := []struct {
		name           string
		current, delta int
		want           int
	}{
		{"increment", 5, 3, 8},
		{"decrement", 5, -3, 2},
		{"floor", 2, -4, 0},
		{"ceiling", MaxStock - 1, 5, MaxStock},
		{"huge positive delta", 10, math.MaxInt, MaxStock},
		{"huge negative delta", 10, math.MinInt + 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClampStock(tc.current, tc.delta))
		})
	}
}

func TestValidateDelta(t *testing.T) {
	require.NoError(t, ValidateDelta(MaxStock))
	require.NoError(t, ValidateDelta(-MaxStock))
	require.ErrorIs(t, ValidateDelta(MaxStock+1), ErrDeltaOutOfRange)
	require.ErrorIs(t, ValidateDelta(math.MinInt), ErrDeltaOutOfRange)
}
