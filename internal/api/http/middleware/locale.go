package middleware

import (
	"github.com/gofiber/fiber/v3"
	"golang.org/x/text/language"
)

const LocalsLocale = "locale"

// DefaultLocale is used when Accept-Language matches nothing supported.
const DefaultLocale = "fa"

var supportedLocales = language.NewMatcher([]language.Tag{language.Persian, language.English})

// MatchLocale reduces an Accept-Language header to a supported base language.
func MatchLocale(acceptLanguage string) string {
	if acceptLanguage == "" {
		return DefaultLocale
	}
	tag, _ := language.MatchStrings(supportedLocales, acceptLanguage)
	base, _ := tag.Base()
	return base.String()
}

// Locale resolves the request locale once and stores it in Locals.
func Locale() fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Locals(LocalsLocale, MatchLocale(c.Get(fiber.HeaderAcceptLanguage)))
		return c.Next()
	}
}

func LocaleFromFiber(c fiber.Ctx) string {
	if l, ok := c.Locals(LocalsLocale).(string); ok && l != "" {
		return l
	}
	return MatchLocale(c.Get(fiber.HeaderAcceptLanguage))
}
