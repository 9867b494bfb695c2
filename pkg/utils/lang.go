package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const DefaultLanguage = "de"

var supportedLanguages = []string{"de", "en"}

// LanguageOf picks the response language from ?lang= and then Accept-Language.
func LanguageOf(c *fiber.Ctx) string {
	if q := strings.ToLower(c.Query("lang")); q != "" {
		for _, l := range supportedLanguages {
			if q == l {
				return l
			}
		}
	}
	if lang := c.AcceptsLanguages(supportedLanguages...); lang != "" {
		return lang
	}
	return DefaultLanguage
}
