package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/kvlabs/schemamgr/internal/masking"
)

// ANSI color codes used by ColorHandler.
const (
	reset   = "\033[0m"
	red     = "\033[31m"
	green   = "\033[32m"
	yellow  = "\033[33m"
	magenta = "\033[35m"
	cyan    = "\033[36m"
	white   = "\033[37m"
	gray    = "\033[90m"
)

// ColorHandler is a slog.Handler that colorizes text output for terminals
// and masks sensitive attribute values before they reach the writer.
type ColorHandler struct {
	opts     *slog.HandlerOptions
	writer   io.Writer
	attrs    []slog.Attr
	groups   []string
	masker   *masking.Masker
	useColor bool
}

// NewColorHandler creates a color handler over w, auto-detecting whether w
// is an interactive terminal.
func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ColorHandler{opts: opts, writer: w, useColor: shouldUseColor(w), masker: masking.New()}
}

func shouldUseColor(w io.Writer) bool {
	if runtime.GOOS == "windows" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 1024)
	if !r.Time.IsZero() {
		buf = append(buf, h.colorize(gray, r.Time.Format(time.RFC3339))...)
		buf = append(buf, ' ')
	}
	buf = append(buf, h.formatLevel(r.Level)...)
	buf = append(buf, ' ')
	if len(h.groups) > 0 {
		buf = append(buf, h.colorize(cyan, fmt.Sprintf("[%s]", strings.Join(h.groups, ".")))...)
		buf = append(buf, ' ')
	}
	buf = append(buf, h.colorize(white, r.Message)...)

	attrs := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	if len(attrs) > 0 {
		buf = append(buf, ' ')
		buf = h.formatAttributes(buf, h.maskAttributes(attrs))
	}
	buf = append(buf, '\n')
	_, err := h.writer.Write(buf)
	return err
}

func (h *ColorHandler) formatLevel(level slog.Level) string {
	var color, levelStr string
	switch level {
	case slog.LevelDebug:
		color, levelStr = gray, "DEBUG"
	case slog.LevelInfo:
		color, levelStr = green, "INFO "
	case slog.LevelWarn:
		color, levelStr = yellow, "WARN "
	case slog.LevelError:
		color, levelStr = red, "ERROR"
	default:
		color, levelStr = white, "UNKNOWN"
	}
	return h.colorize(color, fmt.Sprintf("[%s]", levelStr))
}

func (h *ColorHandler) formatAttributes(buf []byte, attrs []slog.Attr) []byte {
	for i, attr := range attrs {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, h.colorize(cyan, attr.Key)...)
		buf = append(buf, '=')
		buf = append(buf, h.formatValue(attr.Value)...)
	}
	return buf
}

func (h *ColorHandler) formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		str := v.String()
		switch {
		case h.isErrorLike(str):
			return h.colorize(red, fmt.Sprintf("%q", str))
		case h.isSuccessLike(str):
			return h.colorize(green, fmt.Sprintf("%q", str))
		default:
			return h.colorize(white, fmt.Sprintf("%q", str))
		}
	case slog.KindInt64:
		return h.colorize(magenta, fmt.Sprintf("%d", v.Int64()))
	case slog.KindFloat64:
		return h.colorize(magenta, fmt.Sprintf("%g", v.Float64()))
	case slog.KindBool:
		if v.Bool() {
			return h.colorize(green, "true")
		}
		return h.colorize(red, "false")
	case slog.KindDuration:
		return h.colorize(yellow, v.Duration().String())
	case slog.KindTime:
		return h.colorize(gray, v.Time().Format(time.RFC3339))
	default:
		return h.colorize(white, v.String())
	}
}

func (h *ColorHandler) isErrorLike(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "error") || strings.Contains(s, "fail") || strings.Contains(s, "exception")
}

func (h *ColorHandler) isSuccessLike(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "success") || strings.Contains(s, "complete") || strings.Contains(s, "ok") || s == "applied"
}

func (h *ColorHandler) colorize(color, text string) string {
	if !h.useColor {
		return text
	}
	return color + text + reset
}

func (h *ColorHandler) maskAttributes(attrs []slog.Attr) []slog.Attr {
	if h.masker == nil || !h.masker.IsEnabled() {
		return attrs
	}
	masked := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedValue := h.masker.MaskValue(attr.Key, attr.Value.Any())
		if maskedStr, ok := maskedValue.(string); ok && maskedStr == "***MASKED***" {
			masked[i] = slog.Attr{Key: attr.Key, Value: slog.StringValue(maskedStr)}
		} else {
			masked[i] = attr
		}
	}
	return masked
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ColorHandler{opts: h.opts, writer: h.writer, attrs: append(h.attrs, attrs...), groups: h.groups, masker: h.masker, useColor: h.useColor}
}

func (h *ColorHandler) WithGroup(name string) slog.Handler {
	return &ColorHandler{opts: h.opts, writer: h.writer, attrs: h.attrs, groups: append(h.groups, name), masker: h.masker, useColor: h.useColor}
}

// SetMasker replaces the handler's masker.
func (h *ColorHandler) SetMasker(m *masking.Masker) { h.masker = m }
