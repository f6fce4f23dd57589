// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Setup opens the log file and returns a logger writing to it. The TUI owns
// the terminal, so diagnostics never go to stdout or stderr while it runs;
// an unopenable log file degrades to a disabled logger rather than an error.
func Setup(path, level string) (zerolog.Logger, func()) {
	lvl := parseLevel(level)
	if path == "" {
		return zerolog.New(io.Discard).Level(zerolog.Disabled), func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.New(io.Discard).Level(zerolog.Disabled), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.New(io.Discard).Level(zerolog.Disabled), func() {}
	}
	logger := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	closer := func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}
	return logger, closer
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
