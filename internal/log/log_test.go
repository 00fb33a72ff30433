package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slogcontext "github.com/veqryn/slog-context"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"fatal", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "json")
	require.NoError(t, err)

	ctx := slogcontext.NewCtx(context.Background(), logger.With("plugin", "com.example.foo"))
	slogcontext.FromCtx(ctx).Info("hidden")
	slogcontext.FromCtx(ctx).Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"plugin":"com.example.foo"`)
}

func TestNewInvalidFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestForCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	RegisterFlags(cmd.PersistentFlags())
	cmd.SetErr(&buf)
	require.NoError(t, cmd.ParseFlags([]string{"--loglevel", "debug"}))

	logger, err := ForCommand(cmd, "error", "text")
	require.NoError(t, err)
	logger.Debug("flag wins over configuration")
	assert.Contains(t, buf.String(), "flag wins over configuration")

	buf.Reset()
	require.NoError(t, cmd.Flags().Set(FlagFormat, "json"))
	logger, err = ForCommand(cmd, "", "text")
	require.NoError(t, err)
	logger.Info("x")
	assert.Contains(t, buf.String(), `"msg":"x"`)
}
