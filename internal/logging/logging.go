package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger and installs it as the slog default. Output
// goes to stderr, and is appended to logFile as well when one is named. A
// format of "text" selects key=value lines; anything else gives JSON. Call
// the returned func on shutdown to release the file.
func New(level, format, logFile string) (*slog.Logger, func(), error) {
	out, closeOut, err := openOutput(logFile)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(newHandler(out, level, format))
	slog.SetDefault(logger)
	return logger, closeOut, nil
}

func openOutput(logFile string) (io.Writer, func(), error) {
	if logFile == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return io.MultiWriter(os.Stderr, f), func() { _ = f.Close() }, nil
}

func newHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
