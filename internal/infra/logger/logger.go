// Package logger configures the global zerolog logger.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Level string // "debug", "info", "warn", "error"
	File  string // Log file path; empty logs to the console
}

// Init initializes the global logger.
// Console output is human readable, file output is JSON lines.
func Init(cfg Config) error {
	logger, err := New(cfg)
	if err != nil {
		return err
	}
	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger
	return nil
}

// New builds a logger without installing it globally.
func New(cfg Config) (zerolog.Logger, error) {
	level := ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.CallerMarshalFunc = shortCaller

	if cfg.File == "" {
		return NewConsole(os.Stdout, level), nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "failed to open log file: %s", cfg.File)
	}
	return NewJSON(f, level), nil
}

// NewConsole returns a colored console logger writing to w.
// Caller information is added only at debug level.
func NewConsole(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	if level != zerolog.DebugLevel {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	out.PartsOrder = []string{"time", "level", "message", "caller"}
	out.FormatCaller = func(i any) string {
		s, _ := i.(string)
		return "(" + s + ")"
	}
	return zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()
}

// NewJSON returns a JSON lines logger writing to w.
func NewJSON(w io.Writer, level zerolog.Level) zerolog.Logger {
	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if level == zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// shortCaller trims the caller path to "dir/file.go:line".
func shortCaller(pc uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
