// Package htmlsanitize cleans text that came from outside the app before it
// is rendered: trial descriptions typed by organizations and report text
// pulled out of volunteer documents.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize keeps user-generated formatting (paragraphs, lists, emphasis,
// safe links) and drops scripts, handlers and embeds.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return ugc.Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for direct use in templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// StripTags removes all markup, leaving text.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strict.Sanitize(s))
}

// PlainTextToHTML renders extracted document text: markup is stripped and
// line breaks are kept.
func PlainTextToHTML(s string) template.HTML {
	if s == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(StripTags(s))
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// IsPlainText reports whether s contains no tags.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
