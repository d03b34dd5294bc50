// Package security masks credentials and validates values that end up in
// request headers or logs.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// InvalidBearer is the Authorization value sent when the configured key
// cannot be carried in a header. The provider then rejects the request with
// a diagnosable error instead of the process failing locally.
const InvalidBearer = "Bearer invalid"

// MaskAPIKey masks an API key, showing only the last 4 characters.
// This should be used when logging or displaying API keys.
func MaskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// ValidHeaderValue reports whether s may be used verbatim as an HTTP header
// value: visible ASCII, spaces and horizontal tabs only.
func ValidHeaderValue(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\t' {
			continue
		}
		if c < 0x20 || c >= 0x7f {
			return false
		}
	}
	return true
}

// BearerHeader returns the Authorization header value for apiKey and whether
// the key was usable. An unusable key yields InvalidBearer.
func BearerHeader(apiKey string) (string, bool) {
	value := "Bearer " + apiKey
	if !ValidHeaderValue(value) {
		return InvalidBearer, false
	}
	return value, true
}

// ValidateAPIKey checks a key entered interactively before it is saved.
func ValidateAPIKey(apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if apiKey != strings.TrimSpace(apiKey) {
		return fmt.Errorf("API key must not start or end with whitespace")
	}
	if !ValidHeaderValue(apiKey) {
		return fmt.Errorf("API key contains characters that cannot be sent in an HTTP header")
	}
	return nil
}

var sanitizePatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	// API keys (sk-...)
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`), "sk-****"},
	// Bearer tokens
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`), "Bearer ****"},
	// Generic API key patterns
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey|api_secret|secret[_-]?key)\s*[:=]\s*["']?[a-zA-Z0-9._-]+["']?`), "$1=****"},
	// Password patterns
	{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']?[^\s"']+["']?`), "$1=****"},
}

// SanitizeForLogging sanitizes a string for safe logging by masking potential secrets.
// It looks for common patterns like API keys, passwords, and tokens.
func SanitizeForLogging(s string) string {
	result := s
	for _, p := range sanitizePatterns {
		result = p.regex.ReplaceAllString(result, p.replacement)
	}
	return result
}
