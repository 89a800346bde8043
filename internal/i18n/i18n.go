// Package i18n resolves the visitor locale and serves translated UI strings.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/text/language"

	"github.com/atlaswear/atlaswear/internal/shared"
)

//go:embed locales/*.json
var localeFS embed.FS

// Supported locales in matcher priority order; the first is the fallback.
var supported = []language.Tag{
	language.English,
	language.Arabic,
}

var matcher = language.NewMatcher(supported)

// Translator looks up messages for a resolved locale.
type Translator struct {
	catalogs map[string]map[string]string
}

// NewTranslator parses every embedded locale catalog.
func NewTranslator() (*Translator, error) {
	catalogs := make(map[string]map[string]string, len(supported))
	for _, tag := range supported {
		name := tag.String()
		data, err := localeFS.ReadFile("locales/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("i18n: read catalog %s: %w", name, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("i18n: parse catalog %s: %w", name, err)
		}
		catalogs[name] = messages
	}
	return &Translator{catalogs: catalogs}, nil
}

// T returns the message for key in the given locale, falling back to the
// primary locale and finally to the key itself.
func (t *Translator) T(locale, key string) string {
	if msgs, ok := t.catalogs[locale]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msgs, ok := t.catalogs[supported[0].String()]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	return key
}

// ResolveLocale picks the locale for a request: explicit lang query param
// first, then the session preference, then Accept-Language negotiation.
func ResolveLocale(r *http.Request, sess *shared.Session) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		if tag, err := language.Parse(lang); err == nil {
			matched, _, _ := matcher.Match(tag)
			base, _ := matched.Base()
			if sess != nil {
				sess.SetLocale(base.String())
			}
			return base.String()
		}
	}
	if sess != nil {
		if lang := sess.Locale(); lang != "" {
			return lang
		}
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err == nil && len(tags) > 0 {
		matched, _, _ := matcher.Match(tags...)
		base, _ := matched.Base()
		return base.String()
	}
	return supported[0].String()
}

// IsRTL reports whether the locale renders right-to-left.
func IsRTL(locale string) bool {
	return locale == "ar"
}
