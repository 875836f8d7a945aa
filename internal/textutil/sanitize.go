package textutil

import (
	"strings"
)

// angleReplacer drops the characters YouTube rejects in titles and descriptions.
var angleReplacer = strings.NewReplacer("<", "", ">", "")

// SanitizeTitle removes angle brackets, collapses whitespace and truncates to
// limit runes. A limit of zero or less disables truncation.
func SanitizeTitle(title string, limit int) string {
	clean := strings.Join(strings.Fields(angleReplacer.Replace(title)), " ")
	return Truncate(clean, limit)
}

// SanitizeDescription removes angle brackets and truncates to limit runes
// while keeping line breaks.
func SanitizeDescription(description string, limit int) string {
	return Truncate(strings.TrimSpace(angleReplacer.Replace(description)), limit)
}

// Truncate cuts s to at most limit runes and trims trailing whitespace left by
// the cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), " \t\r\n")
}

// SplitList splits a comma separated list, trimming entries and dropping
// empty ones.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
