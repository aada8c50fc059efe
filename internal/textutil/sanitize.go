package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxFileNameRunes caps sanitized names so long video titles stay below
// common filesystem limits once an extension is added.
const MaxFileNameRunes = 200

// UntitledName is returned when a title sanitizes to nothing.
const UntitledName = "untitled"

var (
	unsafeFileChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// SanitizeFileName turns a video title into a safe file stem. Characters
// rejected by common filesystems are removed, whitespace runs become a single
// underscore, and the result is capped at MaxFileNameRunes runes.
func SanitizeFileName(name string) string {
	name = unsafeFileChars.ReplaceAllString(name, "")
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	if name == "" {
		return UntitledName
	}
	if utf8.RuneCountInString(name) > MaxFileNameRunes {
		name = string([]rune(name)[:MaxFileNameRunes])
	}
	return name
}

// TitleFromStem recovers a display title from a sanitized file stem.
func TitleFromStem(stem string) string {
	return strings.TrimSpace(strings.ReplaceAll(stem, "_", " "))
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return string(runes[:1])
	}
	return string(runes[:n-1]) + "…"
}
