package handlers

import (
	"net/http"

	"server/internal/pipeline"
)

type imageEditRequest struct {
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Mask   string   `json:"mask,omitempty"`
	Effect string   `json:"effect,omitempty"`
}

func (a *App) ImagesEdit(w http.ResponseWriter, r *http.Request) {
	var req imageEditRequest
	if !a.decode(w, r, &req) {
		return
	}
	artifact, err := a.Pipeline.EditImage(r.Context(), pipeline.EditParams{
		Prompt: req.Prompt,
		Images: req.Images,
		Mask:   req.Mask,
		Effect: req.Effect,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, artifact)
}

type imageGenerateRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Count       int    `json:"count,omitempty"`
}

func (a *App) ImagesGenerate(w http.ResponseWriter, r *http.Request) {
	var req imageGenerateRequest
	if !a.decode(w, r, &req) {
		return
	}
	artifact, err := a.Pipeline.GenerateFromText(r.Context(), pipeline.TextParams{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Count:       req.Count,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, artifact)
}

type imageBatchRequest struct {
	Image   string   `json:"image"`
	Prompts []string `json:"prompts"`
}

func (a *App) ImagesBatch(w http.ResponseWriter, r *http.Request) {
	var req imageBatchRequest
	if !a.decode(w, r, &req) {
		return
	}
	artifact, err := a.Pipeline.BatchEdits(r.Context(), pipeline.BatchParams{
		Image:   req.Image,
		Prompts: req.Prompts,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, artifact)
}

type imageTwoStepRequest struct {
	Stage1Prompt string `json:"stage1_prompt"`
	Stage2Prompt string `json:"stage2_prompt"`
	Primary      string `json:"primary"`
	Secondary    string `json:"secondary,omitempty"`
	Effect       string `json:"effect,omitempty"`
}

func (a *App) ImagesTwoStep(w http.ResponseWriter, r *http.Request) {
	var req imageTwoStepRequest
	if !a.decode(w, r, &req) {
		return
	}
	artifact, err := a.Pipeline.TwoStepImage(r.Context(), pipeline.TwoStepParams{
		Stage1Prompt: req.Stage1Prompt,
		Stage2Prompt: req.Stage2Prompt,
		Primary:      req.Primary,
		Secondary:    req.Secondary,
		Effect:       req.Effect,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, artifact)
}

type styleMimicRequest struct {
	StyleImage   string `json:"style_image"`
	ContentImage string `json:"content_image"`
	Prompt       string `json:"prompt,omitempty"`
}

func (a *App) ImagesStyleMimic(w http.ResponseWriter, r *http.Request) {
	var req styleMimicRequest
	if !a.decode(w, r, &req) {
		return
	}
	artifact, err := a.Pipeline.StyleMimic(r.Context(), pipeline.StyleMimicParams{
		StyleImage:   req.StyleImage,
		ContentImage: req.ContentImage,
		Prompt:       req.Prompt,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, artifact)
}

type preprocessRequest struct {
	Prompt   string   `json:"prompt"`
	Examples string   `json:"examples,omitempty"`
	Images   []string `json:"images,omitempty"`
}

type preprocessResponse struct {
	Prompt string `json:"prompt"`
}

// ChatPreprocess rewrites a prompt through the text model. It never fails:
// any problem degrades to echoing the original prompt.
func (a *App) ChatPreprocess(w http.ResponseWriter, r *http.Request) {
	var req preprocessRequest
	if !a.decode(w, r, &req) {
		return
	}
	prompt := a.Pipeline.PreprocessPrompt(r.Context(), req.Prompt, req.Examples, req.Images)
	a.json(w, http.StatusOK, preprocessResponse{Prompt: prompt})
}
