package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitWithValidLevel(t *testing.T) {
	require.NoError(t, Init("debug"))
	require.True(t, Logger().Core().Enabled(zapcore.DebugLevel))
}

func TestInitWithInvalidLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init("not-a-level"))
	require.False(t, Logger().Core().Enabled(zapcore.DebugLevel))
	require.True(t, Logger().Core().Enabled(zapcore.InfoLevel))
}

func TestRedactedHidesValue(t *testing.T) {
	field := Redacted("password")
	require.Equal(t, "password", field.Key)
	require.Equal(t, "[redacted]", field.String)
}
