package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func localeProbe(t *testing.T, configure func(*http.Request)) (string, string) {
	t.Helper()
	var locale, country string
	handler := I18N("en", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	configure(req)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return locale, country
}

func TestI18NDetectsChineseAcceptLanguage(t *testing.T) {
	locale, _ := localeProbe(t, func(r *http.Request) {
		r.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	})
	if locale != "zh" {
		t.Fatalf("locale = %q, want zh", locale)
	}
}

func TestI18NHeaderOverridesAcceptLanguage(t *testing.T) {
	locale, _ := localeProbe(t, func(r *http.Request) {
		r.Header.Set("X-Locale", "en")
		r.Header.Set("Accept-Language", "zh-CN")
	})
	if locale != "en" {
		t.Fatalf("locale = %q, want the explicit X-Locale to win", locale)
	}
}

func TestI18NCountryHeaderHint(t *testing.T) {
	locale, country := localeProbe(t, func(r *http.Request) {
		r.Header.Set("CF-IPCountry", "cn")
	})
	if country != "CN" {
		t.Fatalf("country = %q, want CN", country)
	}
	if locale != "zh" {
		t.Fatalf("locale = %q, want zh for a CN origin", locale)
	}
}

func TestI18NGeoIPLookupFeedsLocale(t *testing.T) {
	var lookedUp string
	lookup := func(ip string) (string, error) {
		lookedUp = ip
		return "CN", nil
	}
	var locale string
	handler := I18N("en", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if lookedUp != "203.0.113.9" {
		t.Fatalf("lookup got %q, want the client IP", lookedUp)
	}
	if locale != "zh" {
		t.Fatalf("locale = %q, want zh from the CN lookup", locale)
	}
}

func TestI18NDefaultLocale(t *testing.T) {
	locale, _ := localeProbe(t, func(r *http.Request) {})
	if locale != "en" {
		t.Fatalf("locale = %q, want the configured default", locale)
	}
}
