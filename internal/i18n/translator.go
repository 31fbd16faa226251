package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed translations/*.json
var translationFiles embed.FS

type Language string

const (
	NL Language = "nl"
	EN Language = "en"
)

func (l Language) String() string {
	return string(l)
}

func ParseLanguage(lang string) (Language, error) {
	switch lang {
	case "nl":
		return NL, nil
	case "en":
		return EN, nil
	default:
		return "", fmt.Errorf("unsupported language: %s", lang)
	}
}

// MatchAcceptLanguage picks the first supported language from an
// Accept-Language header, or fallback.
func MatchAcceptLanguage(header string, fallback Language) Language {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if lang, err := ParseLanguage(base); err == nil {
			return lang
		}
	}
	return fallback
}

type Translations map[string]string

type Translator struct {
	translations map[Language]Translations
	defaultLang  Language
}

func NewTranslator(defaultLang Language) *Translator {
	return &Translator{
		translations: make(map[Language]Translations),
		defaultLang:  defaultLang,
	}
}

// LoadTranslations reads the embedded translations/<lang>.json files.
func (i *Translator) LoadTranslations() error {
	return i.LoadFS(translationFiles, "translations")
}

func (i *Translator) LoadFS(fsys fs.FS, dir string) error {
	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}

		langName := strings.TrimSuffix(path.Base(p), ".json")
		lang, err := ParseLanguage(langName)
		if err != nil {
			return fmt.Errorf("failed to parse language %s: %w", langName, err)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		var translations Translations
		if err := json.Unmarshal(data, &translations); err != nil {
			return fmt.Errorf("failed to decode %s: %w", p, err)
		}

		i.translations[lang] = translations
		return nil
	})
}

func (i *Translator) T(lang Language, key string) string {
	if translations, ok := i.translations[lang]; ok {
		if translation, ok := translations[key]; ok {
			return translation
		}
	}

	// Fallback to default language
	if lang != i.defaultLang {
		if translations, ok := i.translations[i.defaultLang]; ok {
			if translation, ok := translations[key]; ok {
				return translation
			}
		}
	}

	return fmt.Sprintf("[missing: %s]", key)
}

func (i *Translator) GetAvailableLanguages() []Language {
	langs := make([]Language, 0, len(i.translations))
	for lang := range i.translations {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}
