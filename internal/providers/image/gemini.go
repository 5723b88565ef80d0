// Package image adapts the genai client to the editing and generation
// operations the pipeline coordinator consumes.
package image

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"server/internal/domain"
	"server/internal/providers/genai"
)

// EditRequest is a single conversational image edit. Images are ordered:
// primary first, then any secondary or reference images.
type EditRequest struct {
	Prompt string
	Images []domain.InlineImage
	Mask   *domain.InlineImage
}

// EditResult carries the edited image as a data URL plus any accompanying
// model commentary.
type EditResult struct {
	ImageURL string
	Text     string
}

// TextRequest is a text-to-image generation call.
type TextRequest struct {
	Prompt      string
	AspectRatio string
	Count       int
}

// RewriteRequest asks the text model to rewrite a user prompt into a more
// descriptive one, optionally informed by context images.
type RewriteRequest struct {
	Prompt string
	// Examples is reference material for the rewrite (successful prompts).
	Examples string
	Images   []domain.InlineImage
}

// ChatTurn is one prior message of a conversation, oldest first.
type ChatTurn struct {
	Role   string
	Text   string
	Images []domain.InlineImage
}

// ChatRequest is an image generation carrying conversation context, so the
// model can refine its earlier outputs.
type ChatRequest struct {
	History []ChatTurn
	Prompt  string
	Images  []domain.InlineImage
}

// Editor is the image-facing provider surface the pipeline depends on.
type Editor interface {
	Edit(ctx context.Context, req EditRequest) (*EditResult, error)
	FromText(ctx context.Context, req TextRequest) ([]string, error)
	Chat(ctx context.Context, req ChatRequest) (*EditResult, error)
	DescribeStyle(ctx context.Context, style domain.InlineImage) (string, error)
	Rewrite(ctx context.Context, req RewriteRequest) (string, error)
	Diversify(ctx context.Context, prompt string, count int) ([]string, error)
	SuggestEffects(ctx context.Context, query string, effects []domain.EffectOption) ([]string, error)
}

// Gemini implements Editor over the genai client.
type Gemini struct {
	client *genai.Client
}

func NewGemini(client *genai.Client) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Edit(ctx context.Context, req EditRequest) (*EditResult, error) {
	prompt := req.Prompt
	if req.Mask != nil {
		prompt = maskedEditPrompt(req.Prompt)
	}
	result, err := g.client.GenerateContent(ctx, genai.ContentRequest{
		Prompt:      prompt,
		Images:      req.Images,
		Mask:        req.Mask,
		ImageOutput: true,
	})
	if err != nil {
		return nil, err
	}
	return &EditResult{ImageURL: result.ImageURL, Text: result.Text}, nil
}

func (g *Gemini) FromText(ctx context.Context, req TextRequest) ([]string, error) {
	return g.client.GenerateImages(ctx, genai.ImagesRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Count:       req.Count,
	})
}

func (g *Gemini) Chat(ctx context.Context, req ChatRequest) (*EditResult, error) {
	history := make([]genai.ChatTurn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, genai.ChatTurn{Role: turn.Role, Text: turn.Text, Images: turn.Images})
	}
	result, err := g.client.GenerateChatContent(ctx, genai.ChatRequest{
		History: history,
		Prompt:  req.Prompt,
		Images:  req.Images,
	})
	if err != nil {
		return nil, err
	}
	return &EditResult{ImageURL: result.ImageURL, Text: result.Text}, nil
}

const diversifyPrompt = "Based on the user's prompt %q, create %d distinct, detailed, and " +
	"imaginative prompts for an AI image generator. They should explore different styles, " +
	"subjects, and compositions. Return only a JSON object with a \"prompts\" property " +
	"holding an array of strings."

// Diversify asks the text model for distinct prompt variants to fan a
// generation out over. Unparseable model output is an error; the caller
// decides whether to degrade.
func (g *Gemini) Diversify(ctx context.Context, prompt string, count int) ([]string, error) {
	result, err := g.client.GenerateContent(ctx, genai.ContentRequest{
		Prompt: fmt.Sprintf(diversifyPrompt, prompt, count),
	})
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Prompts []string `json:"prompts"`
	}
	if err := json.Unmarshal([]byte(jsonPayload(result.Text)), &parsed); err != nil || len(parsed.Prompts) == 0 {
		return nil, domain.E(domain.KindInternal, "generation_failed",
			"the model returned no usable prompt variants")
	}
	return parsed.Prompts, nil
}

const suggestEffectsPrompt = "You are a helpful assistant for an image editing app. The user " +
	"is searching for an effect with the query %q. Analyze the following list of available " +
	"effects and pick up to 5 that match the query best.\n\nAvailable effects:\n%s\n\n" +
	"Return only a JSON object with a \"suggestions\" property holding an array of the most " +
	"relevant effect keys. For example: {\"suggestions\": [\"key1\", \"key2\"]}"

// SuggestEffects ranks the effect list against a search query. A response
// the model formats badly yields an empty list, not an error.
func (g *Gemini) SuggestEffects(ctx context.Context, query string, effects []domain.EffectOption) ([]string, error) {
	list, err := json.MarshalIndent(effects, "", "  ")
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, "encode_request", err)
	}
	result, err := g.client.GenerateContent(ctx, genai.ContentRequest{
		Prompt: fmt.Sprintf(suggestEffectsPrompt, query, list),
	})
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(jsonPayload(result.Text)), &parsed); err != nil {
		return nil, nil
	}
	if len(parsed.Suggestions) > 5 {
		parsed.Suggestions = parsed.Suggestions[:5]
	}
	return parsed.Suggestions, nil
}

// jsonPayload strips the markdown code fences models wrap JSON output in.
func jsonPayload(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

const styleDescriptionPrompt = "Describe the artistic style of this image in a detailed, " +
	"descriptive prompt suitable for an AI image generator. Focus on the art style, color " +
	"palette, lighting, texture, brushstrokes, and overall mood. Only output the prompt."

func (g *Gemini) DescribeStyle(ctx context.Context, style domain.InlineImage) (string, error) {
	result, err := g.client.GenerateContent(ctx, genai.ContentRequest{
		Prompt: styleDescriptionPrompt,
		Images: []domain.InlineImage{style},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

const rewriteSystemPrompt = "You are a prompt optimization expert for a generative image " +
	"application. Rewrite the user's prompt to be more descriptive and better suited for " +
	"image generation, consistent in structure and detail with the example prompts provided. " +
	"Return only the rewritten prompt text, with no explanation or markdown."

func (g *Gemini) Rewrite(ctx context.Context, req RewriteRequest) (string, error) {
	system := rewriteSystemPrompt
	if req.Examples != "" {
		system += "\n\nExample prompts:\n---\n" + req.Examples + "\n---"
	}
	result, err := g.client.GenerateContent(ctx, genai.ContentRequest{
		Prompt: req.Prompt,
		Images: req.Images,
		System: system,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text), nil
}

func maskedEditPrompt(prompt string) string {
	return "Apply the following instruction only to the masked area of the image: \"" +
		prompt + "\". Preserve the unmasked area."
}

var _ Editor = (*Gemini)(nil)
