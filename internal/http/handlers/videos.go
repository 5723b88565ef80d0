package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/pipeline"
	videoprovider "server/internal/providers/video"
	"server/internal/video"
)

type videoGenerateRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	SeedImage   string `json:"seed_image,omitempty"`
	Effect      string `json:"effect,omitempty"`
}

type videoGenerateResponse struct {
	OperationID string `json:"operation_id"`
}

func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	var req videoGenerateRequest
	if !a.decode(w, r, &req) {
		return
	}
	submit := videoprovider.SubmitRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
	}
	if req.SeedImage != "" {
		seed, err := domain.ParseDataURL(req.SeedImage)
		if err != nil {
			a.error(w, r, err)
			return
		}
		submit.SeedImage = seed
	}
	id, err := a.Pipeline.SubmitVideo(r.Context(), submit, req.Effect)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, videoGenerateResponse{OperationID: id})
}

type videoFromStillRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Still       string `json:"still"`
	Effect      string `json:"effect,omitempty"`
}

func (a *App) VideosFromStill(w http.ResponseWriter, r *http.Request) {
	var req videoFromStillRequest
	if !a.decode(w, r, &req) {
		return
	}
	id, err := a.Pipeline.VideoFromStill(r.Context(), pipeline.VideoFromStillParams{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Still:       req.Still,
		Effect:      req.Effect,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, videoGenerateResponse{OperationID: id})
}

type videoStatusResponse struct {
	State    video.State `json:"state"`
	VideoURL string      `json:"video_url,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// VideosStatus polls one operation. The route is a catch-all so operation
// names containing slashes round-trip intact.
func (a *App) VideosStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "*")
	if id == "" {
		a.error(w, r, domain.E(domain.KindValidation, "operation_id_required", "operation id is required"))
		return
	}
	status, err := a.Video.Poll(r.Context(), id)
	if err != nil {
		a.error(w, r, err)
		return
	}
	if status.State == video.StateCompleted && status.JustCompleted {
		a.Pipeline.RecordVideo(r.Context(), id, status.VideoURL)
	}
	a.json(w, http.StatusOK, videoStatusResponse{
		State:    status.State,
		VideoURL: status.VideoURL,
		Error:    status.Error,
	})
}

type stillsRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Count       int    `json:"count,omitempty"`
}

type stillsResponse struct {
	Images []string `json:"images"`
}

// VideosStills is stage 1 of the image-then-video flow: candidate stills the
// client picks from before animating.
func (a *App) VideosStills(w http.ResponseWriter, r *http.Request) {
	var req stillsRequest
	if !a.decode(w, r, &req) {
		return
	}
	urls, err := a.Pipeline.GenerateStills(r.Context(), pipeline.TextParams{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Count:       req.Count,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, stillsResponse{Images: urls})
}
