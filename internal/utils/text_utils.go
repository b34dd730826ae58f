package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel prepares a free-text parameter label for keyword
// matching: Unicode composition is normalized (the site mixes composed
// and decomposed Cyrillic), then lowercased and trimmed.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
