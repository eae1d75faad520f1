package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level  string
	Format string

	File string

	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// New creates a logger writing to stderr and, if a file is configured, to a
// rotated log file. Format "json" selects structured output, anything else
// a human readable console format.
func New(cfg Config) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename: cfg.File,

			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}

		w = io.MultiWriter(os.Stderr, file)
		closer = file
	}

	level := ParseLevel(cfg.Level)

	var handler slog.Handler

	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})

	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
			NoColor:    cfg.File != "",
		})
	}

	return slog.New(handler), closer
}

func ParseLevel(val string) slog.Level {
	switch strings.ToLower(val) {
	case "debug":
		return slog.LevelDebug

	case "warn", "warning":
		return slog.LevelWarn

	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}
