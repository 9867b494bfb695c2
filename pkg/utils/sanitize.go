package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainPolicy = bluemonday.StrictPolicy()
	richPolicy  = bluemonday.UGCPolicy()
)

// SanitizeText removes all markup from a single-line user input.
func SanitizeText(s string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}

// SanitizeRichText keeps basic formatting in long descriptions.
func SanitizeRichText(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(s))
}

func SanitizeList(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := SanitizeText(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
