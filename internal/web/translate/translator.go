package translate

import (
	"fmt"

	"admindash/internal/i18n"
)

type Translator struct {
	Translator *i18n.Translator
	Language   i18n.Language
}

func (t Translator) T(key string) string {
	if t.Translator == nil {
		return key
	}
	return t.Translator.T(t.Language, key)
}

// Tf translates key and formats the result with args.
func (t Translator) Tf(key string, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}
