package textutil

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	separatorPattern = regexp.MustCompile(`[_\.\-]+`)
	spacePattern     = regexp.MustCompile(`\s+`)
	titleCaser       = cases.Title(language.English, cases.NoLower)
)

// TitleFromFilename derives a display title from a path: the extension is
// dropped, separators become spaces and each word is capitalized.
func TitleFromFilename(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	words := spacePattern.ReplaceAllString(separatorPattern.ReplaceAllString(stem, " "), " ")
	return titleCaser.String(strings.TrimSpace(words))
}

// Stem returns the file name without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
