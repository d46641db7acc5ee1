package i18n

import (
	"embed"
	"log/slog"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

var (
	//go:embed *.toml
	f embed.FS
)

// Localizer renders error messages in the languages whose bundle file loaded.
// Requests in any other language get DEFAULT_LANG.
type Localizer struct {
	langs    []string
	matcher  language.Matcher
	registry map[string]*i18n.Localizer
}

func NewLocalizer(languages ...string) Localizer {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	l := Localizer{
		registry: make(map[string]*i18n.Localizer),
	}

	// matcher 在无法匹配时返回第一个 tag
	languages = append([]string(nil), languages...)
	sort.SliceStable(languages, func(i, j int) bool {
		return languages[i] == DEFAULT_LANG && languages[j] != DEFAULT_LANG
	})

	var tags []language.Tag
	for _, lang := range languages {
		path := lang + ".toml"
		if _, err := bundle.LoadMessageFileFS(f, path); err != nil {
			slog.Error("failed to load mindwell message bundle", slog.String("lang", lang), slog.String("file", path), slog.String("error", err.Error()))
			continue
		}
		l.langs = append(l.langs, lang)
		l.registry[lang] = i18n.NewLocalizer(bundle, lang)
		tags = append(tags, language.Make(lang))
	}
	if len(tags) > 0 {
		l.matcher = language.NewMatcher(tags)
	}
	return l
}

// resolve maps a client tag such as zh, zh-Hans or en-GB onto a loaded bundle.
func (l Localizer) resolve(lang string) *i18n.Localizer {
	if loc, ok := l.registry[lang]; ok {
		return loc
	}
	if l.matcher == nil {
		return nil
	}
	_, idx, _ := l.matcher.Match(language.Make(lang))
	return l.registry[l.langs[idx]]
}

func (l Localizer) Get(lang string, id string) string {
	return l.GetWithData(lang, id, nil)
}

// GetWithData fills the message template with data, the id itself is returned when no bundle has it.
func (l Localizer) GetWithData(lang, id string, data map[string]interface{}) string {
	loc := l.resolve(lang)
	if loc == nil {
		return id
	}

	str, err := loc.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{
			ID:    id,
			Other: id,
		},
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("missing message in mindwell bundle", slog.String("lang", lang), slog.String("id", id), slog.String("error", err.Error()))
		return id
	}
	return str
}
