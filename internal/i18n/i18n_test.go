package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranslatorFallbackChain(t *testing.T) {
	tr, err := NewTranslator()
	require.NoError(t, err)

	require.Equal(t, "Shop", tr.T("en", "nav.shop"))
	require.NotEqual(t, "Shop", tr.T("ar", "nav.shop"))
	// Unknown locale falls back to English, unknown key to the key itself.
	require.Equal(t, "Shop", tr.T("fr", "nav.shop"))
	require.Equal(t, "nav.bogus", tr.T("en", "nav.bogus"))
}

func TestResolveLocaleQueryParamWins(t *testing.T) {
	r := httptest.NewRequest("GET", "/shop?lang=ar", nil)
	r.Header.Set("Accept-Language", "en-US")

	require.Equal(t, "ar", ResolveLocale(r, nil))
}

func TestResolveLocaleAcceptLanguage(t *testing.T) {
	r := httptest.NewRequest("GET", "/shop", nil)
	r.Header.Set("Accept-Language", "ar-MA,ar;q=0.9,en;q=0.5")
	require.Equal(t, "ar", ResolveLocale(r, nil))

	r = httptest.NewRequest("GET", "/shop", nil)
	r.Header.Set("Accept-Language", "de-DE")
	require.Equal(t, "en", ResolveLocale(r, nil))
}

func TestResolveLocaleDefault(t *testing.T) {
	r := httptest.NewRequest("GET", "/shop", nil)
	require.Equal(t, "en", ResolveLocale(r, nil))
}

func TestIsRTL(t *testing.T) {
	require.True(t, IsRTL("ar"))
	require.False(t, IsRTL("en"))
}
