package whisper

import "strings"

// normalizeText collapses runs of whitespace, including newlines between
// segments, into single spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func languageOrDefault(lang string) string {
	if lang == "" || lang == "auto" {
		return "en"
	}
	return lang
}
