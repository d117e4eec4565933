// Package masking redacts secrets (DSNs, passwords, tokens) that might
// otherwise leak into a version's captured log transcript.
package masking

import (
	"fmt"
	"regexp"
	"strings"
)

// SensitivePattern pairs a regex with its masked replacement and, optionally,
// a list of log-attribute keys that should always be masked regardless of
// their value's shape.
type SensitivePattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Keys        []string
}

// DefaultSensitivePatterns covers the secrets most likely to appear in
// migration context: database DSNs, passwords embedded in connection
// strings, and generic api-key/token/secret fields scripts might log.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"password", "passwd", "pwd"},
	},
	{
		Name:        "dsn_userinfo",
		Regex:       regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.\-]*://[^:/@\s]+):([^@/\s]+)@`),
		Replacement: `${1}:***MASKED***@`,
		Keys:        []string{"dsn", "sqlite_path"},
	},
	{
		Name:        "api_key",
		Regex:       regexp.MustCompile(`(?i)(api[_-]?key|apikey)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"api_key", "apikey", "api-key"},
	},
	{
		Name:        "token",
		Regex:       regexp.MustCompile(`(?i)(token|access[_-]?token|auth[_-]?token)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"token", "access_token", "auth_token"},
	},
	{
		Name:        "secret",
		Regex:       regexp.MustCompile(`(?i)(secret|client[_-]?secret)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}":"***MASKED***"`,
		Keys:        []string{"secret", "client_secret", "client-secret"},
	},
}

// Masker applies a set of SensitivePattern to strings and slog key/value
// pairs. The zero value is not usable; construct with New.
type Masker struct {
	patterns []SensitivePattern
	enabled  bool
}

// New creates a Masker with the default pattern set, enabled.
func New() *Masker {
	return &Masker{patterns: DefaultSensitivePatterns, enabled: true}
}

// NewWithPatterns creates a Masker with a caller-supplied pattern set.
func NewWithPatterns(patterns []SensitivePattern) *Masker {
	return &Masker{patterns: patterns, enabled: true}
}

// SetEnabled toggles masking on or off.
func (m *Masker) SetEnabled(enabled bool) { m.enabled = enabled }

// IsEnabled reports whether masking is currently applied.
func (m *Masker) IsEnabled() bool { return m.enabled }

// MaskString applies every configured pattern to input in turn.
func (m *Masker) MaskString(input string) string {
	if !m.enabled {
		return input
	}
	result := input
	for _, p := range m.patterns {
		result = p.Regex.ReplaceAllString(result, p.Replacement)
	}
	return result
}

// MaskValue masks value for the given log attribute key: an exact key match
// always masks regardless of shape, otherwise the value is pattern-matched
// as a string.
func (m *Masker) MaskValue(key string, value any) any {
	if !m.enabled {
		return value
	}
	lowerKey := strings.ToLower(key)
	for _, p := range m.patterns {
		for _, k := range p.Keys {
			if lowerKey == strings.ToLower(k) {
				return "***MASKED***"
			}
		}
	}
	strValue, ok := value.(string)
	if !ok {
		strValue = toString(value)
	}
	return m.MaskString(strValue)
}

// MaskKeyValuePairs masks an slog-style alternating key/value argument list.
func (m *Masker) MaskKeyValuePairs(pairs ...any) []any {
	if !m.enabled {
		return pairs
	}
	result := make([]any, len(pairs))
	for i := 0; i < len(pairs); i += 2 {
		if i+1 >= len(pairs) {
			result[i] = pairs[i]
			break
		}
		key := pairs[i]
		value := pairs[i+1]
		if keyStr, ok := key.(string); ok {
			result[i] = keyStr
			result[i+1] = m.MaskValue(keyStr, value)
		} else {
			result[i] = key
			result[i+1] = value
		}
	}
	return result
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case error:
		return val.Error()
	default:
		return fmt.Sprintf("%v", val)
	}
}
