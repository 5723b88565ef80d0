package i18n

import (
	"errors"
	"testing"

	"server/internal/domain"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		hints []string
		want  string
	}{
		{[]string{"zh"}, "zh"},
		{[]string{"zh-CN"}, "zh"},
		{[]string{"zh-Hant-TW"}, "zh"},
		{[]string{"en-US"}, "en"},
		{[]string{"fr"}, "en"},
		{[]string{""}, "en"},
		{[]string{"not a locale", "zh-CN"}, "zh"},
	}
	for _, tc := range cases {
		if got := Match(tc.hints...); got != tc.want {
			t.Fatalf("Match(%v) = %q, want %q", tc.hints, got, tc.want)
		}
	}
}

func TestMessageUsesCatalogEntry(t *testing.T) {
	err := domain.E(domain.KindValidation, "prompt_required", "prompt must not be empty")
	if got := Message("en", err); got != "Please enter a prompt." {
		t.Fatalf("Message(en) = %q", got)
	}
	if got := Message("zh", err); got != "请输入提示词。" {
		t.Fatalf("Message(zh) = %q", got)
	}
}

func TestMessageFallsBackToKind(t *testing.T) {
	err := domain.E(domain.KindValidation, "some_new_code", "details")
	if got := Message("en", err); got != "The request is invalid." {
		t.Fatalf("Message = %q, want the validation-kind fallback", got)
	}
}

func TestMessageUnknownEverythingGetsGenericFallback(t *testing.T) {
	err := errors.New("plain error")
	if got := Message("en", err); got != fallbackEN {
		t.Fatalf("Message(en) = %q", got)
	}
	if got := Message("zh", err); got != fallbackZH {
		t.Fatalf("Message(zh) = %q", got)
	}
}
