package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("development logger", func(t *testing.T) {
		l, err := New(EnvDevelopment, LevelDebug)

		require.NoError(t, err)
		require.NotNil(t, l)
	})

	t.Run("production logger", func(t *testing.T) {
		l, err := New(EnvProduction, LevelInfo)

		require.NoError(t, err)
		require.NotNil(t, l)
	})

	t.Run("unknown environment fails", func(t *testing.T) {
		_, err := New("staging", LevelInfo)

		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown environment")
	})
}

func TestParseLevelString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, parseLevelString(tc.level), "level %q", tc.level)
	}
}

func TestSourceBase(t *testing.T) {
	t.Parallel()

	require.Equal(t, "checkout.go", sourceBase("/home/ci/wervio/internal/service/checkout/checkout.go"))
	require.Equal(t, "main.go", sourceBase("main.go"))
}

func TestNoOp(t *testing.T) {
	t.Parallel()

	l := NewNoOp()

	// Must not panic, must accept chained attributes
	l.With("key", "value").WithGroup("group").Info("ignored")
	l.Error("also ignored", "error", "nope")
}
