package image

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"server/internal/domain"
	"server/internal/providers/genai"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTextModelGemini(t *testing.T, text string) *Gemini {
	t.Helper()
	client, err := genai.NewClient(genai.Options{
		APIKey: "test-key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			body := fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     http.Header{"Content-Type": []string{"application/json"}},
			}, nil
		})},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return NewGemini(client)
}

func TestDiversifyParsesFencedJSON(t *testing.T) {
	g := newTextModelGemini(t, "```json\n{\"prompts\": [\"a red fox\", \"a paper fox\"]}\n```")
	prompts, err := g.Diversify(context.Background(), "a fox", 2)
	if err != nil {
		t.Fatalf("Diversify returned error: %v", err)
	}
	if len(prompts) != 2 || prompts[0] != "a red fox" {
		t.Fatalf("prompts = %v", prompts)
	}
}

func TestDiversifyRejectsUnusableOutput(t *testing.T) {
	g := newTextModelGemini(t, "sorry, I cannot help with that")
	if _, err := g.Diversify(context.Background(), "a fox", 2); domain.CodeOf(err) != "generation_failed" {
		t.Fatalf("err = %v, want generation_failed", err)
	}
}

func TestSuggestEffectsCapsAtFive(t *testing.T) {
	g := newTextModelGemini(t, `{"suggestions":["a","b","c","d","e","f","g"]}`)
	keys, err := g.SuggestEffects(context.Background(), "q", []domain.EffectOption{
		{Key: "a", Title: "A", Description: "d"},
	})
	if err != nil {
		t.Fatalf("SuggestEffects returned error: %v", err)
	}
	if len(keys) != 5 {
		t.Fatalf("keys = %v, want capped at 5", keys)
	}
}

func TestSuggestEffectsToleratesBadFormatting(t *testing.T) {
	g := newTextModelGemini(t, "here are some ideas: sketch, anime")
	keys, err := g.SuggestEffects(context.Background(), "q", []domain.EffectOption{
		{Key: "sketch", Title: "Sketch", Description: "d"},
	})
	if err != nil {
		t.Fatalf("SuggestEffects returned error: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys = %v, want none when the model ignores the format", keys)
	}
}
