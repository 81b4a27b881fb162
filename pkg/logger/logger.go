package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// Options configures SetupLogger
type Options struct {
	Dir       string
	Level     string
	MaxSizeMB int
	MaxFiles  int
	// Stdout mirrors every record to standard output when true
	Stdout bool
}

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(NewRedactingHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))))
}

// SetupLogger initializes the process logger: JSON records to a rotating file
// under opts.Dir, optionally mirrored to stdout, with sensitive attributes masked
func SetupLogger(opts Options) error {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	writer, err := NewRotatingWriter(RotationConfig{
		File:      filepath.Join(opts.Dir, "registry.log"),
		MaxSizeMB: opts.MaxSizeMB,
		MaxFiles:  opts.MaxFiles,
	})
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}

	var out io.Writer = writer
	if opts.Stdout {
		out = io.MultiWriter(os.Stdout, writer)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: true,
	})
	SetLogger(slog.New(NewRedactingHandler(handler)))
	return nil
}

// SetLogger replaces the process logger
func SetLogger(l *slog.Logger) {
	if l != nil {
		current.Store(l)
	}
}

// L returns the structured process logger
func L() *slog.Logger {
	return current.Load()
}

// ParseLevel maps a level name to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Info logs at info level
func Info(format string, v ...interface{}) {
	L().Info(fmt.Sprintf(format, v...))
}

// Warning logs at warn level
func Warning(format string, v ...interface{}) {
	L().Warn(fmt.Sprintf(format, v...))
}

// Error logs at error level
func Error(format string, v ...interface{}) {
	L().Error(fmt.Sprintf(format, v...))
}
