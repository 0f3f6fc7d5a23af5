package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func Test_NewLogger(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		l, err := NewLogger(nil)
		require.NoError(t, err)
		require.False(t, l.Core().Enabled(zap.DebugLevel))
	})
	t.Run("Debug", func(t *testing.T) {
		l, err := NewLogger(&LoggerConfig{Debug: true})
		require.NoError(t, err)
		require.True(t, l.Core().Enabled(zap.DebugLevel))
	})
}
