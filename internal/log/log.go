// Package log sets up the slog logger of the thym command.
//
// Library packages never build loggers. They read the one carried by the
// context through slogcontext.FromCtx, which the command installs with
// slogcontext.NewCtx.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flag names.
const (
	FlagLevel  = "loglevel"
	FlagFormat = "logformat"
)

// RegisterFlags adds the logging flags to flags. Pass a command's
// PersistentFlags to make them available to its children.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(FlagLevel, "info", "set the log level (debug, info, warn, error)")
	flags.String(FlagFormat, "text", "set the log format (text, json)")
}

// ParseLevel converts a level name.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", name)
	}
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	return slog.New(handler), nil
}

// ForCommand builds the logger of cmd. Flags set on the command line win
// over level and format, which usually come from the configuration.
func ForCommand(cmd *cobra.Command, level, format string) (*slog.Logger, error) {
	if f := cmd.Flag(FlagLevel); f != nil && (f.Changed || level == "") {
		level = f.Value.String()
	}
	if f := cmd.Flag(FlagFormat); f != nil && (f.Changed || format == "") {
		format = f.Value.String()
	}
	return New(cmd.ErrOrStderr(), level, format)
}
