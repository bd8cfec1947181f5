package observability

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNilInstrumentsFallBackToGlobals(t *testing.T) {
	var instruments *Instruments
	require.NotNil(t, instruments.Tracer("test"))
	require.NotNil(t, instruments.Meter("test"))
}
