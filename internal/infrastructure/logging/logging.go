package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init installs the default slog logger and routes the standard log package
// through it. The returned closer flushes the log file, if one is
// configured; it is nil otherwise.
func Init(cfg Config) (io.Closer, error) {
	logger, closer := New(cfg, os.Stdout)
	slog.SetDefault(logger)

	stdLogger := slog.NewLogLogger(logger.Handler(), ParseLevel(cfg.Level))
	log.SetFlags(0)
	log.SetOutput(stdLogger.Writer())

	return closer, nil
}

// New builds a text logger writing to out and, when cfg.File is set, to a
// size-rotated file.
func New(cfg Config, out io.Writer) (*slog.Logger, io.Closer) {
	writers := []io.Writer{out}

	var closer io.Closer
	if path := strings.TrimSpace(cfg.File); path != "" {
		rotating := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    positiveOr(cfg.MaxSizeMB, 100),
			MaxBackups: max(cfg.MaxBackups, 0),
			MaxAge:     max(cfg.MaxAgeDays, 0),
		}
		closer = rotating
		writers = append(writers, rotating)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: ParseLevel(cfg.Level)})
	return slog.New(handler), closer
}

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
