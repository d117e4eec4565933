// Package capturelog implements the per-version capture logger: every call
// at any severity is forwarded to an underlying *logging.Logger and also
// appended, prefixed by its level, to a line buffer that Flush drains into
// the version log row's log_text column.
package capturelog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/kvlabs/schemamgr/internal/logging"
	"github.com/kvlabs/schemamgr/internal/masking"
)

// Logger is not shared across versions: New creates a fresh instance scoped
// to a single transaction, matching the engine's guarantee that no two
// versions execute concurrently against the same capture buffer.
type Logger struct {
	mu       sync.Mutex
	delegate *logging.Logger
	masker   *masking.Masker
	lines    []string
}

// New wraps delegate, which receives every line this Logger receives, in
// addition to the capture buffer.
func New(delegate *logging.Logger) *Logger {
	return &Logger{delegate: delegate, masker: masking.New()}
}

// append masks secrets in the formatted line before buffering it, so the
// persisted transcript never carries them in clear text.
func (l *Logger) append(level, msg string, args ...any) {
	line := l.masker.MaskString(formatLine(msg, l.masker.MaskKeyValuePairs(args...)...))
	l.mu.Lock()
	l.lines = append(l.lines, "["+level+"] "+line)
	l.mu.Unlock()
}

// Trace records a line at trace severity. logging.Logger has no Trace level
// of its own, so trace lines are forwarded to the delegate as Debug while
// still carrying their own "[TRACE] " prefix in the capture buffer.
func (l *Logger) Trace(msg string, args ...any) {
	l.delegate.Debug(msg, args...)
	l.append("TRACE", msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.delegate.Info(msg, args...)
	l.append("INFO", msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.delegate.Warn(msg, args...)
	l.append("WARN", msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.delegate.Error(msg, args...)
	l.append("ERROR", msg, args...)
}

// IsTraceEnabled, IsInfoEnabled, IsWarnEnabled and IsErrorEnabled always
// report true: the capture buffer must receive every line regardless of the
// delegate's configured threshold, since it is the durable record of what
// happened during this version's transaction.
func (l *Logger) IsTraceEnabled() bool { return true }
func (l *Logger) IsInfoEnabled() bool  { return true }
func (l *Logger) IsWarnEnabled() bool  { return true }
func (l *Logger) IsErrorEnabled() bool { return true }

// Flush returns the captured lines joined by "\n" and resets the buffer.
func (l *Logger) Flush() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := strings.Join(l.lines, "\n")
	l.lines = nil
	return out
}

func formatLine(msg string, args ...any) string {
	if len(args) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		b.WriteString(" ")
		b.WriteString(toStr(args[i]))
		b.WriteString("=")
		b.WriteString(toStr(args[i+1]))
	}
	return b.String()
}

func toStr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
