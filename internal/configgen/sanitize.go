// Package configgen derives the runtime configuration templates a generated
// agent needs before it can actually run: a .env file for declared secrets,
// JSON stubs for declared config files, and an OAuth credential template
// when the assembled code smells like third-party OAuth. Existing files are
// never overwritten.
package configgen

import "strings"

// SanitizeName turns an arbitrary agent name into a safe file-name stem:
// lower-cased, every non-alphanumeric run collapsed to one underscore,
// leading/trailing underscores trimmed. Empty results fall back to "agent".
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	sanitized := b.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		return "agent"
	}
	return sanitized
}
