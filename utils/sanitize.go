package utils

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanText strips HTML and control characters from user supplied text.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// CleanList applies CleanText to every element and drops the empty ones.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = CleanText(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// SafeCell keeps spreadsheet applications from evaluating exported text as a formula.
func SafeCell(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
