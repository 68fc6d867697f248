package redact

import "regexp"

// Patterns for secret material that can plausibly leak into a command line
// or a rejection reason. Kept deliberately small; the audit log is local
// but still should not be a credential store.
var sensitivePatterns = []*regexp.Regexp{
	// Generic API keys and tokens in key=value / key: value form
	regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|access[_-]?token|auth[_-]?token)\s*[=:]\s*['"]?[A-Za-z0-9_-]{16,}['"]?`),

	// Passwords in key=value form
	regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*['"]?[^\s'"]{8,}['"]?`),

	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_-]{20,}`),

	// Basic auth embedded in URLs
	regexp.MustCompile(`https?://[^:/\s]+:[^@\s]+@`),

	// GitHub personal access tokens
	regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`),

	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
}

const redactedPlaceholder = "[REDACTED]"

func Redact(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, redactedPlaceholder)
	}
	return result
}
