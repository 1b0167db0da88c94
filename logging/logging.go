// Package logging builds the slog loggers used by the ttfe binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

type Options struct {
	Format    string
	Level     slog.Level
	AddSource bool
}

// New returns a logger writing to w in the requested format. Unknown formats
// fall back to text.
func New(w io.Writer, opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}
	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case FormatJSON:
		h = slog.NewJSONHandler(w, ho)
	case FormatPretty:
		h = NewPrettyJSONHandler(w, ho)
	default:
		h = slog.NewTextHandler(w, ho)
	}
	return slog.New(h)
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
