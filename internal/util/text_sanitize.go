package util

import "strings"

// SanitizeText strips the control bytes that PDF extraction leaks into
// section text. Postgres rejects NUL in text columns, and the rest only
// confuse the prompt templates; newlines and tabs stay.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\r' || ch == '\t' {
			b.WriteRune(ch)
			continue
		}
		if ch < 0x20 || ch == 0x7f {
			continue
		}
		b.WriteRune(ch)
	}
	return strings.TrimSpace(b.String())
}
