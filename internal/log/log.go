// ABOUTME: Levelled logging wrapper around slog with optional rotating file output
// ABOUTME: Global level via SetLevel; stderr lines are CRLF-terminated on a terminal

package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level constants matching slog levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

const prefix = "[screenhook]"

// Config controls where log records go.
type Config struct {
	// File is the log file path. Empty means stderr.
	File string

	// Level is "debug", "info", "warn" or "error". Empty keeps the current level.
	Level string

	// MaxSizeMB is the size in MB before rotation (default: 10).
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept (default: 3).
	MaxBackups int

	// MaxAgeDays is the number of days rotated files are kept (default: 7).
	MaxAgeDays int
}

var (
	level atomic.Int64

	mu      sync.RWMutex
	out     io.Writer = stderrWriter()
	file    *slog.Logger
	rotator *lumberjack.Logger
)

func init() {
	level.Store(int64(LevelWarn))
}

// Init configures the global logger. It may be called more than once;
// a previously opened log file is closed.
func Init(cfg Config) error {
	if cfg.Level != "" {
		l, err := ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		SetLevel(l)
	}

	mu.Lock()
	defer mu.Unlock()

	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
		file = nil
	}
	if cfg.File == "" {
		return nil
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 7
	}

	rotator = &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	// Filtering happens in emit against the global level.
	file = slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: LevelDebug}))
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	file = nil
	return err
}

// With attaches attributes to every subsequent file record.
func With(args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file = file.With(args...)
	}
}

// SetOutput redirects stderr-mode output. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetLevel sets the global log level.
func SetLevel(l slog.Level) {
	level.Store(int64(l))
}

// GetLevel returns the current log level.
func GetLevel() slog.Level {
	return slog.Level(level.Load())
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Debug logs a debug message if the level allows it.
func Debug(format string, args ...any) {
	emit(LevelDebug, "DEBUG", format, args...)
}

// Info logs an info message if the level allows it.
func Info(format string, args ...any) {
	emit(LevelInfo, "INFO", format, args...)
}

// Warn logs a warning message if the level allows it.
func Warn(format string, args ...any) {
	emit(LevelWarn, "WARN", format, args...)
}

// Error logs an error message (always emitted).
func Error(format string, args ...any) {
	emit(LevelError, "ERROR", format, args...)
}

func emit(l slog.Level, tag, format string, args ...any) {
	if l < LevelError && l < GetLevel() {
		return
	}
	msg := fmt.Sprintf(format, args...)

	mu.RLock()
	fl, w := file, out
	mu.RUnlock()

	if fl != nil {
		fl.Log(context.Background(), l, msg)
		return
	}
	fmt.Fprintf(w, "%s [%s] %s\n", prefix, tag, msg)
}

// stderrWriter returns os.Stderr, wrapped so that line feeds also return
// the carriage when stderr is a terminal that may be in raw mode.
func stderrWriter() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return crlfWriter{w: os.Stderr}
	}
	return os.Stderr
}

type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
