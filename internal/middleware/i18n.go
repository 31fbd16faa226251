package middleware

import (
	"admindash/internal/i18n"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	SessionKeyLanguage = "lang"
	localsLanguage     = "lang"
)

// I18nMiddleware resolves the request language from the session, then the
// lang query parameter, then Accept-Language, and remembers it in the session.
func I18nMiddleware(translator *i18n.Translator, store *session.Store, fallback i18n.Language) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}

		stored, _ := sess.Get(SessionKeyLanguage).(string)
		lang, err := i18n.ParseLanguage(stored)
		if err != nil {
			lang, err = i18n.ParseLanguage(c.Query("lang"))
			if err != nil {
				lang = i18n.MatchAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage), fallback)
			}
		}

		if stored != lang.String() {
			sess.Set(SessionKeyLanguage, lang.String())
			if err := sess.Save(); err != nil {
				return err
			}
		}

		c.Locals(localsLanguage, lang)

		return c.Next()
	}
}

func GetLang(c *fiber.Ctx) i18n.Language {
	if lang, ok := c.Locals(localsLanguage).(i18n.Language); ok {
		return lang
	}
	return i18n.EN
}
