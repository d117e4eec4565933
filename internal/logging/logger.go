// Package logging provides the structured logger used throughout the engine,
// CLI and driver packages: a thin wrapper over log/slog that adds secret
// masking and a handful of domain-specific child-logger helpers.
package logging

import (
	"log/slog"
	"os"
	"sync"

	"github.com/kvlabs/schemamgr/internal/masking"
)

// Level is the logging verbosity, mirroring slog's but with a stable String
// form independent of slog's own formatting.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "info"
	}
}

func (l Level) toSlog() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	case LevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Logger embeds *slog.Logger and masks sensitive argument values before they
// reach the underlying handler (on top of whatever masking the handler
// itself also applies, e.g. ColorHandler).
type Logger struct {
	*slog.Logger
	level  Level
	masker *masking.Masker
}

// New creates a plain-text logger writing to stdout.
func New(level Level) *Logger {
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level.toSlog()})
	return &Logger{Logger: slog.New(h), level: level, masker: masking.New()}
}

// NewJSON creates a JSON logger writing to stdout.
func NewJSON(level Level) *Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level.toSlog()})
	return &Logger{Logger: slog.New(h), level: level, masker: masking.New()}
}

// NewColor creates a colorized logger writing to stdout, sharing one masker
// between the Logger wrapper and the ColorHandler so toggling it once
// affects both layers.
func NewColor(level Level) *Logger {
	h := NewColorHandler(os.Stdout, &slog.HandlerOptions{Level: level.toSlog()})
	l := &Logger{Logger: slog.New(h), level: level, masker: masking.New()}
	h.SetMasker(l.masker)
	return l
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) EnableMasking(enabled bool) {
	if l.masker != nil {
		l.masker.SetEnabled(enabled)
	}
}

func (l *Logger) maskArgs(args ...any) []any {
	if l.masker == nil || !l.masker.IsEnabled() {
		return args
	}
	return l.masker.MaskKeyValuePairs(args...)
}

func (l *Logger) Info(msg string, args ...any)  { l.Logger.Info(msg, l.maskArgs(args...)...) }
func (l *Logger) Error(msg string, args ...any) { l.Logger.Error(msg, l.maskArgs(args...)...) }
func (l *Logger) Debug(msg string, args ...any) { l.Logger.Debug(msg, l.maskArgs(args...)...) }
func (l *Logger) Warn(msg string, args ...any)  { l.Logger.Warn(msg, l.maskArgs(args...)...) }

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level, masker: l.masker}
}

// WithComponent scopes subsequent log lines to a named subsystem.
func (l *Logger) WithComponent(component string) *Logger { return l.with("component", component) }

// WithVersion scopes subsequent log lines to one migration version.
func (l *Logger) WithVersion(version string) *Logger { return l.with("version", version) }

// WithDriver scopes subsequent log lines to a dialect driver.
func (l *Logger) WithDriver(driver string) *Logger { return l.with("driver", driver) }

// WithScript scopes subsequent log lines to one script within a version.
func (l *Logger) WithScript(name string) *Logger { return l.with("script", name) }

// WithRunID scopes subsequent log lines to one Install/Rollback invocation,
// so concurrent runs against the same database can be told apart in logs.
func (l *Logger) WithRunID(runID string) *Logger { return l.with("run_id", runID) }

var (
	defaultLogger   = New(LevelInfo)
	defaultLoggerMu sync.RWMutex
)

// SetDefault replaces the process-wide default logger.
func SetDefault(logger *Logger) {
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// Default returns the process-wide default logger.
func Default() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}
