// Package pipeline chains the single provider calls into the multi-stage
// flows the product exposes: two-step edits, style mimicry, batch variations
// and the image-then-video handoff. Every image-producing stage is routed
// through watermarking before it reaches the library or the history.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/history"
	"server/internal/library"
	imageprovider "server/internal/providers/image"
	videoprovider "server/internal/providers/video"
	"server/internal/retry"
	"server/internal/watermark"
)

// VideoRunner is the slice of the video service the coordinator needs.
type VideoRunner interface {
	Submit(ctx context.Context, req videoprovider.SubmitRequest) (string, error)
	Await(ctx context.Context, id string, onProgress func(string)) (string, error)
}

// Config carries the per-flow retry budgets.
type Config struct {
	EditRetry       retry.Policy
	BatchRetry      retry.Policy
	PreprocessRetry retry.Policy
	// BatchConcurrency bounds how many variation edits run at once.
	BatchConcurrency int
}

// Coordinator owns the multi-stage flows.
type Coordinator struct {
	editor  imageprovider.Editor
	video   VideoRunner
	marker  *watermark.Marker
	library library.Library
	history history.Store
	cfg     Config
	logger  zerolog.Logger

	mu      sync.Mutex
	pending map[string]videoMeta
}

type videoMeta struct {
	Prompt string
	Effect string
}

func NewCoordinator(editor imageprovider.Editor, video VideoRunner, marker *watermark.Marker,
	lib library.Library, hist history.Store, cfg Config, logger zerolog.Logger) *Coordinator {
	if cfg.EditRetry.MaxAttempts == 0 {
		cfg.EditRetry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Second}
	}
	if cfg.BatchRetry.MaxAttempts == 0 {
		cfg.BatchRetry = retry.Policy{MaxAttempts: 2, BaseDelay: 2 * time.Second}
	}
	if cfg.PreprocessRetry.MaxAttempts == 0 {
		cfg.PreprocessRetry = retry.Policy{MaxAttempts: 2, BaseDelay: time.Second}
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	return &Coordinator{
		editor:  editor,
		video:   video,
		marker:  marker,
		library: lib,
		history: hist,
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]videoMeta),
	}
}

// StageError tags a failure with the pipeline stage that produced it, so
// callers can tell a stage-1 abort from a stage-2 one. The wrapped error's
// kind and code pass through unchanged.
type StageError struct {
	Stage int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// EditParams is a single conversational edit.
type EditParams struct {
	Prompt string
	// Images are data URLs, primary first.
	Images []string
	// Mask is an optional data URL confining the edit.
	Mask   string
	Effect string
}

// EditImage runs one retried edit, watermarks the output and records it.
func (c *Coordinator) EditImage(ctx context.Context, p EditParams) (*domain.GeneratedArtifact, error) {
	req, err := c.buildEditRequest(p.Prompt, p.Images, p.Mask)
	if err != nil {
		return nil, err
	}
	result, err := retry.Do(ctx, c.cfg.EditRetry, func(ctx context.Context) (*imageprovider.EditResult, error) {
		return c.editor.Edit(ctx, *req)
	})
	if err != nil {
		return nil, err
	}
	artifact := &domain.GeneratedArtifact{
		ImageURL: c.applyWatermark(result.ImageURL),
		Text:     result.Text,
	}
	c.record(ctx, p.Prompt, p.Effect, artifact, artifact.ImageURL)
	return artifact, nil
}

// TextParams is a text-to-image generation.
type TextParams struct {
	Prompt      string
	AspectRatio string
	Count       int
}

// GenerateFromText produces up to four candidate images from a prompt.
func (c *Coordinator) GenerateFromText(ctx context.Context, p TextParams) (*domain.GeneratedArtifact, error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return nil, domain.E(domain.KindValidation, "prompt_required", "prompt must not be empty")
	}
	if p.AspectRatio != "" && !domain.ValidImageAspect(p.AspectRatio) {
		return nil, domain.E(domain.KindValidation, "aspect_ratio_invalid",
			"aspect ratio %q is not allowed for images", p.AspectRatio)
	}
	urls, err := retry.Do(ctx, c.cfg.EditRetry, func(ctx context.Context) ([]string, error) {
		return c.editor.FromText(ctx, imageprovider.TextRequest{
			Prompt:      p.Prompt,
			AspectRatio: p.AspectRatio,
			Count:       p.Count,
		})
	})
	if err != nil {
		return nil, err
	}
	for i, url := range urls {
		urls[i] = c.applyWatermark(url)
	}
	artifact := &domain.GeneratedArtifact{ImageURL: urls[0], ImageOptions: urls}
	c.record(ctx, p.Prompt, "", artifact, urls...)
	return artifact, nil
}

// ChatMessage is one prior turn of a conversation. Images are data URLs.
type ChatMessage struct {
	Role   string
	Text   string
	Images []string
}

// ChatParams drives an image generation inside a chat thread.
type ChatParams struct {
	Prompt      string
	History     []ChatMessage
	AspectRatio string
	// Count is the number of images to produce, 1 to 8.
	Count int
	// Diversify asks the text model for distinct prompt variants first,
	// one image per variant. Only applies to text-only requests.
	Diversify bool
	// Images attach to the current turn as data URLs.
	Images []string
}

const chatResponseText = "Here is what I generated for you."

// ChatGenerate produces images inside a conversation. Text-only requests go
// through the dedicated image model; as soon as the thread or the current
// turn carries an image, the full history is threaded through the
// conversational edit model instead.
func (c *Coordinator) ChatGenerate(ctx context.Context, p ChatParams) (*domain.GeneratedArtifact, error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return nil, domain.E(domain.KindValidation, "prompt_required", "prompt must not be empty")
	}
	if p.AspectRatio != "" && !domain.ValidImageAspect(p.AspectRatio) {
		return nil, domain.E(domain.KindValidation, "aspect_ratio_invalid",
			"aspect ratio %q is not allowed for images", p.AspectRatio)
	}
	count := p.Count
	if count == 0 {
		count = 1
	}
	if count < 1 || count > 8 {
		return nil, domain.E(domain.KindValidation, "count_invalid",
			"image count %d is out of range, must be 1 to 8", count)
	}

	multimodal := len(p.Images) > 0
	for _, msg := range p.History {
		if len(msg.Images) > 0 {
			multimodal = true
		}
	}
	if multimodal {
		return c.chatMultimodal(ctx, p, count)
	}

	if p.Diversify && count > 1 {
		if artifact, err := c.chatDiversified(ctx, p.Prompt, p.AspectRatio, count); err == nil {
			return artifact, nil
		} else {
			c.logger.Warn().Err(err).Msg("pipeline: creative diversification failed, generating directly")
		}
	}

	urls, err := retry.Do(ctx, c.cfg.EditRetry, func(ctx context.Context) ([]string, error) {
		return c.editor.FromText(ctx, imageprovider.TextRequest{
			Prompt:      p.Prompt,
			AspectRatio: p.AspectRatio,
			Count:       count,
		})
	})
	if err != nil {
		return nil, err
	}
	for i, url := range urls {
		urls[i] = c.applyWatermark(url)
	}
	artifact := &domain.GeneratedArtifact{ImageURL: urls[0], ImageOptions: urls, Text: chatResponseText}
	c.record(ctx, p.Prompt, "chat", artifact, urls...)
	return artifact, nil
}

// chatDiversified expands the prompt into distinct variants and generates
// one image per variant. Partial failure is tolerated like a batch; zero
// variants is an error so the caller can fall back to direct generation.
func (c *Coordinator) chatDiversified(ctx context.Context, prompt, aspect string, count int) (*domain.GeneratedArtifact, error) {
	prompts, err := retry.Do(ctx, c.cfg.PreprocessRetry, func(ctx context.Context) ([]string, error) {
		return c.editor.Diversify(ctx, prompt, count)
	})
	if err != nil {
		return nil, err
	}
	if len(prompts) > count {
		prompts = prompts[:count]
	}

	results := make([]string, len(prompts))
	errs := make([]error, len(prompts))
	sem := make(chan struct{}, c.cfg.BatchConcurrency)
	var wg sync.WaitGroup
	for i, variant := range prompts {
		wg.Add(1)
		go func(i int, variant string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			urls, err := retry.Do(ctx, c.cfg.EditRetry, func(ctx context.Context) ([]string, error) {
				return c.editor.FromText(ctx, imageprovider.TextRequest{
					Prompt:      variant,
					AspectRatio: aspect,
					Count:       1,
				})
			})
			if err != nil {
				errs[i] = err
				return
			}
			if len(urls) == 0 {
				errs[i] = domain.E(domain.KindInternal, "generation_failed", "no image returned")
				return
			}
			results[i] = urls[0]
		}(i, variant)
	}
	wg.Wait()

	var urls []string
	var used []string
	for i, url := range results {
		if errs[i] != nil {
			c.logger.Warn().Err(errs[i]).Str("prompt", prompts[i]).Msg("pipeline: diversified variant failed")
			continue
		}
		urls = append(urls, c.applyWatermark(url))
		used = append(used, prompts[i])
	}
	if len(urls) == 0 {
		return nil, domain.E(domain.KindInternal, "no_variations_generated",
			"all %d diversified prompts failed", len(prompts))
	}

	var text strings.Builder
	text.WriteString("Generated with creative prompts:\n")
	for i, variant := range used {
		fmt.Fprintf(&text, "\n%d. %s", i+1, variant)
	}
	artifact := &domain.GeneratedArtifact{ImageURL: urls[0], ImageOptions: urls, Text: text.String()}
	c.record(ctx, prompt, "chat", artifact, urls...)
	return artifact, nil
}

// chatMultimodal threads the conversation through the edit model, count
// times in parallel. Unlike a batch, one failed call fails the whole
// request: the calls are identical, so a failure is not variant-specific.
func (c *Coordinator) chatMultimodal(ctx context.Context, p ChatParams, count int) (*domain.GeneratedArtifact, error) {
	images, err := parseDataURLs(p.Images)
	if err != nil {
		return nil, err
	}
	history := make([]imageprovider.ChatTurn, 0, len(p.History))
	for _, msg := range p.History {
		turn := imageprovider.ChatTurn{Role: msg.Role, Text: msg.Text}
		for _, url := range msg.Images {
			// History entries may reference images that are long gone;
			// skip what no longer decodes instead of failing the turn.
			img, err := domain.ParseDataURL(url)
			if err != nil {
				continue
			}
			turn.Images = append(turn.Images, *img)
		}
		history = append(history, turn)
	}

	prompt := p.Prompt
	if p.AspectRatio != "" && p.AspectRatio != "Auto" {
		prompt = fmt.Sprintf("%s (please keep a %s aspect ratio if possible)", prompt, p.AspectRatio)
	}
	req := imageprovider.ChatRequest{History: history, Prompt: prompt, Images: images}

	results := make([]*imageprovider.EditResult, count)
	errs := make([]error, count)
	sem := make(chan struct{}, c.cfg.BatchConcurrency)
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i], errs[i] = retry.Do(ctx, c.cfg.EditRetry, func(ctx context.Context) (*imageprovider.EditResult, error) {
				return c.editor.Chat(ctx, req)
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var urls []string
	text := ""
	for _, result := range results {
		urls = append(urls, c.applyWatermark(result.ImageURL))
		if text == "" {
			text = result.Text
		}
	}
	artifact := &domain.GeneratedArtifact{ImageURL: urls[0], ImageOptions: urls, Text: text}
	c.record(ctx, p.Prompt, "chat", artifact, urls...)
	return artifact, nil
}

// SuggestEffects ranks the client's effect list against a search query.
// Never fails past validation: a model problem degrades to no suggestions,
// and keys the model invents are dropped.
func (c *Coordinator) SuggestEffects(ctx context.Context, query string, effects []domain.EffectOption) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.E(domain.KindValidation, "query_required", "search query must not be empty")
	}
	if len(effects) == 0 {
		return nil, domain.E(domain.KindValidation, "effects_required", "the effect list must not be empty")
	}
	known := make(map[string]bool, len(effects))
	for _, effect := range effects {
		if effect.Key == "" || effect.Title == "" || effect.Description == "" {
			return nil, domain.E(domain.KindValidation, "effects_required",
				"every effect needs a key, a title and a description")
		}
		known[effect.Key] = true
	}

	keys, err := retry.Do(ctx, c.cfg.PreprocessRetry, func(ctx context.Context) ([]string, error) {
		return c.editor.SuggestEffects(ctx, query, effects)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("query", query).Msg("pipeline: effect suggestion failed, returning none")
		return []string{}, nil
	}

	suggestions := make([]string, 0, len(keys))
	for _, key := range keys {
		if known[key] {
			suggestions = append(suggestions, key)
		}
	}
	return suggestions, nil
}

// BatchParams applies several instruction variants to one image.
type BatchParams struct {
	Image   string
	Prompts []string
}

// BatchEdits fans the variants out concurrently and tolerates partial
// failure: any successful subset is a success, zero successes is fatal.
func (c *Coordinator) BatchEdits(ctx context.Context, p BatchParams) (*domain.GeneratedArtifact, error) {
	if len(p.Prompts) == 0 {
		return nil, domain.E(domain.KindValidation, "prompt_required", "at least one variation prompt is required")
	}
	if _, err := domain.ParseDataURL(p.Image); err != nil {
		return nil, err
	}

	results := make([]string, len(p.Prompts))
	errs := make([]error, len(p.Prompts))
	sem := make(chan struct{}, c.cfg.BatchConcurrency)
	var wg sync.WaitGroup
	for i, prompt := range p.Prompts {
		wg.Add(1)
		go func(i int, prompt string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			req, err := c.buildEditRequest(prompt, []string{p.Image}, "")
			if err != nil {
				errs[i] = err
				return
			}
			result, err := retry.Do(ctx, c.cfg.BatchRetry, func(ctx context.Context) (*imageprovider.EditResult, error) {
				return c.editor.Edit(ctx, *req)
			})
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = result.ImageURL
		}(i, prompt)
	}
	wg.Wait()

	var urls []string
	for i, url := range results {
		if errs[i] != nil {
			c.logger.Warn().Err(errs[i]).Str("prompt", p.Prompts[i]).Msg("pipeline: batch variation failed")
			continue
		}
		urls = append(urls, c.applyWatermark(url))
	}
	if len(urls) == 0 {
		return nil, domain.E(domain.KindInternal, "no_variations_generated",
			"all %d variations failed", len(p.Prompts))
	}

	artifact := &domain.GeneratedArtifact{ImageURL: urls[0], ImageOptions: urls}
	c.record(ctx, strings.Join(p.Prompts, "; "), "batch", artifact, urls...)
	return artifact, nil
}

// TwoStepParams drives the sketch-then-color flow.
type TwoStepParams struct {
	Stage1Prompt string
	Stage2Prompt string
	// Primary is the input of stage 1; Secondary joins stage 2 alongside
	// the stage-1 output.
	Primary   string
	Secondary string
	Effect    string
}

// TwoStepImage runs stage 1 on the primary image, then stage 2 on the
// stage-1 output plus the secondary image. A stage-1 failure aborts before
// any stage-2 work. The stage-1 output is retained on the final artifact.
func (c *Coordinator) TwoStepImage(ctx context.Context, p TwoStepParams) (*domain.GeneratedArtifact, error) {
	stage1, err := c.retriedEdit(ctx, p.Stage1Prompt, []string{p.Primary}, "")
	if err != nil {
		return nil, &StageError{Stage: 1, Err: err}
	}

	inputs := []string{stage1.ImageURL}
	if p.Secondary != "" {
		inputs = append(inputs, p.Secondary)
	}
	stage2, err := c.retriedEdit(ctx, p.Stage2Prompt, inputs, "")
	if err != nil {
		return nil, &StageError{Stage: 2, Err: err}
	}

	artifact := &domain.GeneratedArtifact{
		ImageURL:     c.applyWatermark(stage2.ImageURL),
		SecondaryURL: c.applyWatermark(stage1.ImageURL),
		Text:         stage2.Text,
	}
	c.record(ctx, p.Stage1Prompt, p.Effect, artifact, artifact.ImageURL, artifact.SecondaryURL)
	return artifact, nil
}

// StyleMimicParams transfers the style of one image onto another.
type StyleMimicParams struct {
	StyleImage   string
	ContentImage string
	// Prompt optionally augments the derived style description.
	Prompt string
}

// StyleMimic derives a style prompt from the style image, then edits the
// content image with it.
func (c *Coordinator) StyleMimic(ctx context.Context, p StyleMimicParams) (*domain.GeneratedArtifact, error) {
	style, err := domain.ParseDataURL(p.StyleImage)
	if err != nil {
		return nil, &StageError{Stage: 1, Err: err}
	}
	description, err := retry.Do(ctx, c.cfg.EditRetry, func(ctx context.Context) (string, error) {
		return c.editor.DescribeStyle(ctx, *style)
	})
	if err != nil {
		return nil, &StageError{Stage: 1, Err: err}
	}
	if description == "" {
		return nil, &StageError{Stage: 1, Err: domain.E(domain.KindInternal, "generation_failed",
			"style description came back empty")}
	}

	prompt := "Redraw this image in the following style: " + description
	if strings.TrimSpace(p.Prompt) != "" {
		prompt += "\n\nAdditional instructions: " + p.Prompt
	}
	result, err := c.retriedEdit(ctx, prompt, []string{p.ContentImage}, "")
	if err != nil {
		return nil, &StageError{Stage: 2, Err: err}
	}

	artifact := &domain.GeneratedArtifact{
		ImageURL: c.applyWatermark(result.ImageURL),
		Text:     description,
	}
	c.record(ctx, prompt, "style-mimic", artifact, artifact.ImageURL)
	return artifact, nil
}

// GenerateStills is stage 1 of the image-then-video flow: a fan-out of
// candidate stills the caller picks from. No history entry yet; the flow is
// incomplete until a video exists.
func (c *Coordinator) GenerateStills(ctx context.Context, p TextParams) ([]string, error) {
	if strings.TrimSpace(p.Prompt) == "" {
		return nil, domain.E(domain.KindValidation, "prompt_required", "prompt must not be empty")
	}
	if p.AspectRatio != "" && !domain.ValidImageAspect(p.AspectRatio) {
		return nil, domain.E(domain.KindValidation, "aspect_ratio_invalid",
			"aspect ratio %q is not allowed for images", p.AspectRatio)
	}
	urls, err := retry.Do(ctx, c.cfg.BatchRetry, func(ctx context.Context) ([]string, error) {
		return c.editor.FromText(ctx, imageprovider.TextRequest{
			Prompt:      p.Prompt,
			AspectRatio: p.AspectRatio,
			Count:       p.Count,
		})
	})
	if err != nil {
		return nil, err
	}
	for i, url := range urls {
		urls[i] = c.applyWatermark(url)
	}
	return urls, nil
}

// VideoFromStillParams is stage 2 of the image-then-video flow.
type VideoFromStillParams struct {
	Prompt      string
	AspectRatio string
	// Still is the selected stage-1 candidate as a data URL.
	Still  string
	Effect string
}

// VideoFromStill validates the selection and submits the video job seeded
// with the chosen still. It returns the operation id; the caller polls.
func (c *Coordinator) VideoFromStill(ctx context.Context, p VideoFromStillParams) (string, error) {
	if strings.TrimSpace(p.Still) == "" {
		return "", domain.E(domain.KindValidation, "selection_required",
			"a still must be selected before animating")
	}
	seed, err := domain.ParseDataURL(p.Still)
	if err != nil {
		return "", err
	}
	return c.SubmitVideo(ctx, videoprovider.SubmitRequest{
		Prompt:      p.Prompt,
		AspectRatio: p.AspectRatio,
		SeedImage:   seed,
	}, p.Effect)
}

// SubmitVideo starts a video job and remembers the prompt so the completion
// poll can record a faithful history entry.
func (c *Coordinator) SubmitVideo(ctx context.Context, req videoprovider.SubmitRequest, effect string) (string, error) {
	id, err := c.video.Submit(ctx, req)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.pending[id] = videoMeta{Prompt: req.Prompt, Effect: effect}
	c.mu.Unlock()
	return id, nil
}

// CompleteVideo blocks until the job finishes, then records it.
func (c *Coordinator) CompleteVideo(ctx context.Context, id string, onProgress func(string)) (string, error) {
	url, err := c.video.Await(ctx, id, onProgress)
	if err != nil {
		return "", err
	}
	c.RecordVideo(ctx, id, url)
	return url, nil
}

// RecordVideo writes the single history entry for a finished video job.
// Callers invoke it only on the poll that first observed completion, so
// re-polling a finished operation never duplicates history.
func (c *Coordinator) RecordVideo(ctx context.Context, id, videoURL string) {
	c.mu.Lock()
	meta := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	artifact := &domain.GeneratedArtifact{VideoURL: videoURL}
	effect := meta.Effect
	if effect == "" {
		effect = "video"
	}
	c.record(ctx, meta.Prompt, effect, artifact, videoURL)
}

// PreprocessPrompt rewrites the user prompt through the text model. Any
// failure degrades to the original prompt; preprocessing is best effort.
func (c *Coordinator) PreprocessPrompt(ctx context.Context, prompt, examples string, imageURLs []string) string {
	images, err := parseDataURLs(imageURLs)
	if err != nil {
		c.logger.Warn().Err(err).Msg("pipeline: preprocess input unusable, keeping original prompt")
		return prompt
	}
	rewritten, err := retry.Do(ctx, c.cfg.PreprocessRetry, func(ctx context.Context) (string, error) {
		return c.editor.Rewrite(ctx, imageprovider.RewriteRequest{
			Prompt:   prompt,
			Examples: examples,
			Images:   images,
		})
	})
	if err != nil || strings.TrimSpace(rewritten) == "" {
		c.logger.Warn().Err(err).Msg("pipeline: prompt preprocessing failed, keeping original prompt")
		return prompt
	}
	return rewritten
}

func (c *Coordinator) retriedEdit(ctx context.Context, prompt string, images []string, mask string) (*imageprovider.EditResult, error) {
	req, err := c.buildEditRequest(prompt, images, mask)
	if err != nil {
		return nil, err
	}
	return retry.Do(ctx, c.cfg.EditRetry, func(ctx context.Context) (*imageprovider.EditResult, error) {
		return c.editor.Edit(ctx, *req)
	})
}

func (c *Coordinator) buildEditRequest(prompt string, imageURLs []string, maskURL string) (*imageprovider.EditRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.E(domain.KindValidation, "prompt_required", "prompt must not be empty")
	}
	if len(imageURLs) == 0 {
		return nil, domain.E(domain.KindValidation, "seed_image_invalid", "at least one input image is required")
	}
	images, err := parseDataURLs(imageURLs)
	if err != nil {
		return nil, err
	}
	req := &imageprovider.EditRequest{Prompt: prompt, Images: images}
	if maskURL != "" {
		mask, err := domain.ParseDataURL(maskURL)
		if err != nil {
			return nil, err
		}
		req.Mask = mask
	}
	return req, nil
}

func parseDataURLs(urls []string) ([]domain.InlineImage, error) {
	images := make([]domain.InlineImage, 0, len(urls))
	for _, url := range urls {
		img, err := domain.ParseDataURL(url)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	return images, nil
}

// applyWatermark is best effort: a watermarking failure is logged and the
// unwatermarked URL flows on.
func (c *Coordinator) applyWatermark(url string) string {
	if c.marker == nil || url == "" {
		return url
	}
	marked, err := c.marker.Apply(url)
	if err != nil {
		c.logger.Warn().Err(err).Msg("pipeline: watermarking failed, using unwatermarked output")
		return url
	}
	return marked
}

// record adds the artifact to the library and prepends a history entry.
// Neither failure is fatal to the generation that already succeeded.
func (c *Coordinator) record(ctx context.Context, prompt, effect string, artifact *domain.GeneratedArtifact, libraryURLs ...string) {
	if c.library != nil {
		if err := c.library.Add(ctx, libraryURLs...); err != nil {
			c.logger.Warn().Err(err).Msg("pipeline: library add failed")
		}
	}
	if c.history != nil {
		entry := domain.HistoryEntry{Prompt: prompt, Effect: effect, Artifact: *artifact}
		if _, err := c.history.Prepend(ctx, entry); err != nil {
			c.logger.Warn().Err(err).Msg("pipeline: history record failed")
		}
	}
}
