// Package genai is a lightweight facade over the Gemini, Imagen and Veo REST
// endpoints so providers can focus on translating domain requests to API
// calls. Failures are classified into the domain error taxonomy at this
// boundary; nothing above it inspects HTTP status codes.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// Options controls how the client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	EditModel  string
	TextModel  string
	ImageModel string
	VideoModel string
	HTTPClient *http.Client
	// Logger defaults to a disabled logger when left zero.
	Logger zerolog.Logger
}

// Client provides the four logical operations the core depends on: content
// generation (image edits and text), Imagen prediction, Veo submission and
// Veo operation refresh.
type Client struct {
	apiKey     string
	baseURL    string
	editModel  string
	textModel  string
	imageModel string
	videoModel string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a client with sane defaults. The API key is required;
// every download URL this client resolves embeds it.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		editModel:  defaultString(opts.EditModel, "gemini-2.5-flash-image"),
		textModel:  defaultString(opts.TextModel, "gemini-2.5-flash"),
		imageModel: defaultString(opts.ImageModel, "imagen-4.0-generate-001"),
		videoModel: defaultString(opts.VideoModel, "veo-3.1-fast-generate-preview"),
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// VideoModel returns the configured Veo model identifier.
func (c *Client) VideoModel() string {
	return c.videoModel
}

// ContentRequest describes one generateContent call.
type ContentRequest struct {
	// Model overrides the edit model when set.
	Model  string
	Prompt string
	// Images precede the prompt in the request, primary first.
	Images []domain.InlineImage
	// Mask, when present, follows the primary image.
	Mask   *domain.InlineImage
	System string
	// ImageOutput asks for an image response modality.
	ImageOutput bool
}

// ContentResult is the normalized generateContent outcome.
type ContentResult struct {
	Text string
	// ImageURL is a data URL when the model returned inline image bytes.
	ImageURL string
}

// GenerateContent runs an image edit or text call and normalizes the
// response. A response with neither text nor image is surfaced as a policy
// rejection when the provider blocked it, or a generic model refusal
// otherwise.
func (c *Client) GenerateContent(ctx context.Context, req ContentRequest) (*ContentResult, error) {
	// Image output goes through the image-capable edit model; plain text
	// calls (style description, prompt rewriting) use the text model.
	fallbackModel := c.textModel
	if req.ImageOutput {
		fallbackModel = c.editModel
	}
	model := defaultString(req.Model, fallbackModel)

	var parts []part
	if len(req.Images) > 0 {
		parts = append(parts, inlinePart(req.Images[0]))
	}
	if req.Mask != nil {
		parts = append(parts, inlinePart(*req.Mask))
	}
	for _, img := range req.Images[min(1, len(req.Images)):] {
		parts = append(parts, inlinePart(img))
	}
	if req.Prompt != "" {
		parts = append(parts, part{Text: req.Prompt})
	}

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}
	if req.System != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	if req.ImageOutput {
		payload.GenerationConfig = &generationConfig{ResponseModalities: []string{"IMAGE"}}
	}

	var response generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(model))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return nil, err
	}

	result := extractContent(&response)
	if result.Text == "" && result.ImageURL == "" {
		return nil, c.classifyEmptyResponse(model, &response)
	}
	return result, nil
}

// ChatTurn is one prior message of a conversation, oldest first.
type ChatTurn struct {
	// Role is "user" or "model"; anything else is sent as "user".
	Role   string
	Text   string
	Images []domain.InlineImage
}

// ChatRequest threads prior turns plus the current user input through the
// image-capable model in one generateContent call.
type ChatRequest struct {
	History []ChatTurn
	Prompt  string
	Images  []domain.InlineImage
}

// GenerateChatContent runs an image generation inside a conversation: the
// model sees the full thread, so follow-up prompts can refine earlier
// outputs. Turns with no usable parts are skipped.
func (c *Client) GenerateChatContent(ctx context.Context, req ChatRequest) (*ContentResult, error) {
	contents := make([]content, 0, len(req.History)+1)
	for _, turn := range req.History {
		var parts []part
		for _, img := range turn.Images {
			parts = append(parts, inlinePart(img))
		}
		if turn.Text != "" {
			parts = append(parts, part{Text: turn.Text})
		}
		if len(parts) == 0 {
			continue
		}
		role := turn.Role
		if role != "model" {
			role = "user"
		}
		contents = append(contents, content{Role: role, Parts: parts})
	}

	var parts []part
	for _, img := range req.Images {
		parts = append(parts, inlinePart(img))
	}
	if req.Prompt != "" {
		parts = append(parts, part{Text: req.Prompt})
	}
	contents = append(contents, content{Role: "user", Parts: parts})

	payload := generateContentRequest{
		Contents:         contents,
		GenerationConfig: &generationConfig{ResponseModalities: []string{"IMAGE"}},
	}

	var response generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.editModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return nil, err
	}

	result := extractContent(&response)
	if result.Text == "" && result.ImageURL == "" {
		return nil, c.classifyEmptyResponse(c.editModel, &response)
	}
	return result, nil
}

func extractContent(response *generateContentResponse) *ContentResult {
	result := &ContentResult{}
	if len(response.Candidates) > 0 {
		for _, p := range response.Candidates[0].Content.Parts {
			switch {
			case p.Text != "":
				if result.Text != "" {
					result.Text += "\n"
				}
				result.Text += p.Text
			case p.InlineData != nil && p.InlineData.Data != "" && result.ImageURL == "":
				mime := defaultString(p.InlineData.MimeType, "image/png")
				result.ImageURL = fmt.Sprintf("data:%s;base64,%s", mime, p.InlineData.Data)
			}
		}
	}
	return result
}

func (c *Client) classifyEmptyResponse(model string, response *generateContentResponse) error {
	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		return domain.E(domain.KindPolicyRejected, "safety_blocked",
			"request blocked by the provider: %s", response.PromptFeedback.BlockReason)
	}
	if len(response.Candidates) > 0 && response.Candidates[0].FinishReason == "SAFETY" {
		var categories []string
		for _, rating := range response.Candidates[0].SafetyRatings {
			if rating.Blocked {
				categories = append(categories, rating.Category)
			}
		}
		detail := strings.Join(categories, ", ")
		if detail == "" {
			detail = "unknown"
		}
		return domain.E(domain.KindPolicyRejected, "safety_blocked",
			"request blocked for safety reasons, categories: %s", detail)
	}
	c.logger.Warn().Str("model", model).Msg("genai: model returned neither image nor text")
	return domain.E(domain.KindInternal, "generation_failed",
		"the model returned neither an image nor text; the request may have been refused")
}

// ImagesRequest describes one Imagen prediction call.
type ImagesRequest struct {
	Prompt      string
	AspectRatio string // "Auto" or empty lets the model decide
	Count       int
}

// GenerateImages returns generated images as data URLs.
func (c *Client) GenerateImages(ctx context.Context, req ImagesRequest) ([]string, error) {
	count := req.Count
	if count < 1 {
		count = 1
	}
	if count > 4 {
		count = 4
	}

	payload := predictRequest{
		Instances:  []predictInstance{{Prompt: req.Prompt}},
		Parameters: predictParameters{SampleCount: count, OutputMimeType: "image/png"},
	}
	if req.AspectRatio != "" && req.AspectRatio != "Auto" {
		payload.Parameters.AspectRatio = req.AspectRatio
	}

	var response predictResponse
	path := fmt.Sprintf("/models/%s:predict", url.PathEscape(c.imageModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return nil, err
	}

	var urls []string
	for _, p := range response.Predictions {
		if p.BytesBase64Encoded == "" {
			continue
		}
		mime := defaultString(p.MimeType, "image/png")
		urls = append(urls, fmt.Sprintf("data:%s;base64,%s", mime, p.BytesBase64Encoded))
	}
	if len(urls) == 0 {
		return nil, domain.E(domain.KindInternal, "generation_failed",
			"the model returned no images; the request may have been refused")
	}
	return urls, nil
}

// VideosRequest describes one Veo submission.
type VideosRequest struct {
	Prompt      string
	AspectRatio string
	SeedImage   *domain.InlineImage
}

// GenerateVideos starts a long-running video generation job and returns the
// provider's operation token. The token's raw payload is preserved byte for
// byte because the refresh call round-trips it.
func (c *Client) GenerateVideos(ctx context.Context, req VideosRequest) (domain.OperationToken, error) {
	instance := predictInstance{Prompt: req.Prompt}
	if req.SeedImage != nil {
		instance.Image = &predictImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.SeedImage.Data),
			MimeType:           req.SeedImage.MIME,
		}
	}
	payload := predictRequest{
		Instances:  []predictInstance{instance},
		Parameters: predictParameters{SampleCount: 1, AspectRatio: req.AspectRatio},
	}

	raw, err := c.invokeRaw(ctx, http.MethodPost,
		fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel)), payload)
	if err != nil {
		return domain.OperationToken{}, err
	}

	var op videoOperationPayload
	if err := json.Unmarshal(raw, &op); err != nil {
		return domain.OperationToken{}, domain.Wrap(domain.KindInternal, "decode_operation", err)
	}
	return domain.OperationToken{Name: op.Name, Raw: raw}, nil
}

// VideoOperation is the interpreted state of a refreshed Veo operation.
type VideoOperation struct {
	Token        domain.OperationToken
	Done         bool
	Failed       bool
	ErrorMessage string
	DownloadURI  string
}

// GetVideosOperation refreshes a previously submitted operation. Idempotent;
// safe to call repeatedly.
func (c *Client) GetVideosOperation(ctx context.Context, token domain.OperationToken) (*VideoOperation, error) {
	if !token.Valid() {
		return nil, domain.E(domain.KindNotFound, "operation_not_found",
			"stored operation is not usable for refresh")
	}

	// Operation names embed the model path, e.g.
	// models/veo-3.1-fast-generate-preview/operations/abc123.
	raw, err := c.invokeRaw(ctx, http.MethodGet, "/"+strings.TrimLeft(token.Name, "/"), nil)
	if err != nil {
		return nil, err
	}

	var op videoOperationPayload
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, domain.Wrap(domain.KindInternal, "decode_operation", err)
	}
	name := op.Name
	if name == "" {
		name = token.Name
	}

	result := &VideoOperation{
		Token: domain.OperationToken{Name: name, Raw: raw},
		Done:  op.Done,
	}
	if op.Error != nil {
		result.Failed = true
		result.ErrorMessage = op.Error.Message
	}
	result.DownloadURI = op.firstVideoURI()
	return result, nil
}

// DownloadURL appends the access credential the provider requires, so the
// caller receives a directly fetchable URL.
func (c *Client) DownloadURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", domain.Wrap(domain.KindInternal, "resolve_download_url", err)
	}
	query := parsed.Query()
	query.Set("key", c.apiKey)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func inlinePart(img domain.InlineImage) part {
	return part{InlineData: &inlineData{
		MimeType: img.MIME,
		Data:     base64.StdEncoding.EncodeToString(img.Data),
	}}
}

func (c *Client) invoke(ctx context.Context, method, path string, payload, out any) error {
	raw, err := c.invokeRaw(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.Wrap(domain.KindInternal, "decode_response", err)
	}
	return nil
}

func (c *Client) invokeRaw(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	endpoint := c.baseURL + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.Wrap(domain.KindInternal, "encode_request", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, "create_request", err)
	}
	query := req.URL.Query()
	query.Set("key", c.apiKey)
	req.URL.RawQuery = query.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Wrap(domain.KindTransient, "network_error", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Wrap(domain.KindTransient, "network_error", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.classifyHTTPError(resp.StatusCode, data)
	}
	return data, nil
}

// classifyHTTPError maps provider status codes onto the domain taxonomy.
// 4xx argument problems are validation failures, quota and 5xx are
// transient, everything else is internal.
func (c *Client) classifyHTTPError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch {
	case status == http.StatusTooManyRequests || apiErr.Error.Status == "RESOURCE_EXHAUSTED":
		return domain.E(domain.KindTransient, "quota_exceeded", "provider rate limit: %s", message)
	case status >= http.StatusInternalServerError:
		return domain.E(domain.KindTransient, "server_error", "provider server error (%d): %s", status, message)
	case status == http.StatusNotFound:
		return domain.E(domain.KindNotFound, "operation_not_found", "%s", message)
	case status == http.StatusBadRequest || apiErr.Error.Status == "INVALID_ARGUMENT":
		return domain.E(domain.KindValidation, "invalid_request", "%s", message)
	default:
		return domain.E(domain.KindInternal, "provider_error", "provider status %d: %s", status, message)
	}
}
