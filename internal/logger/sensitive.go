package logger

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveValuePatterns catch credentials embedded in free-form strings,
// such as Telegram bot URLs inside error messages.
var sensitiveValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(/bot)(\d+:[A-Za-z0-9_-]{20,})`),
	regexp.MustCompile(`(?i)(api_secret=|api_key=|token=)([^&\s"]+)`),
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-._~+/]+=*)`),
}

// sensitiveKeys mark fields whose whole value is replaced.
var sensitiveKeys = []string{"token", "secret", "password", "api_key", "apikey", "credential"}

// RedactSensitiveData masks credentials found inside s.
func RedactSensitiveData(s string) string {
	if s == "" {
		return s
	}
	for _, p := range sensitiveValuePatterns {
		s = p.ReplaceAllString(s, "${1}"+redacted)
	}
	return s
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// redactString applies key based masking first, then value patterns.
func redactString(key, value string) string {
	if value != "" && isSensitiveKey(key) {
		return redacted
	}
	return RedactSensitiveData(value)
}
