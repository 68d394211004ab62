// Package sanitize provides text sanitization utilities for user-authored content.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`</?[A-Za-z!][^>]*>`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes HTML tags from a string, making it safe for text-only display.
// A bare < or > that does not open a tag is kept.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes free text such as notes, call summaries and meeting minutes.
// Line breaks are kept but runs of blank lines collapse to one.
func Text(s string) string {
	result := strings.ReplaceAll(StripHTML(s), "\r\n", "\n")
	return blankLinesRegex.ReplaceAllString(result, "\n\n")
}

// List sanitizes every entry and drops the ones left empty.
func List(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if cleaned := Text(item); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
