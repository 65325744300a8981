package feed

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLen is the rune limit applied to cleaned descriptions.
const MaxDescriptionLen = 500

var (
	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
	)
	markupRe     = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// DecodeEntities replaces the standard XML entities with their literal
// characters in a single pass, so "&amp;lt;" becomes "&lt;".
func DecodeEntities(s string) string {
	return entityReplacer.Replace(s)
}

// CleanDescription turns an HTML-bearing excerpt into plain text: entities
// are decoded first so escaped markup is stripped too, tags become a single
// space, whitespace runs collapse and the result is cut to MaxDescriptionLen runes.
func CleanDescription(s string) string {
	s = DecodeEntities(s)
	s = markupRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return truncate(s, MaxDescriptionLen)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n]))
}
