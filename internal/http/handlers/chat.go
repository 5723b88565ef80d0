package handlers

import (
	"net/http"

	"server/internal/pipeline"
)

type chatPart struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role  string     `json:"role"`
	Parts []chatPart `json:"parts"`
}

type chatSettings struct {
	AspectRatio             string `json:"aspect_ratio,omitempty"`
	NumImages               int    `json:"num_images,omitempty"`
	CreativeDiversification bool   `json:"creative_diversification,omitempty"`
}

type chatGenerateRequest struct {
	Prompt   string        `json:"prompt"`
	History  []chatMessage `json:"history,omitempty"`
	Settings chatSettings  `json:"settings"`
	Images   []string      `json:"images,omitempty"`
}

// ChatGenerate produces images inside a chat thread. The history rides along
// so follow-up prompts can refine earlier results.
func (a *App) ChatGenerate(w http.ResponseWriter, r *http.Request) {
	var req chatGenerateRequest
	if !a.decode(w, r, &req) {
		return
	}

	history := make([]pipeline.ChatMessage, 0, len(req.History))
	for _, msg := range req.History {
		converted := pipeline.ChatMessage{Role: msg.Role}
		for _, part := range msg.Parts {
			switch {
			case part.Text != "":
				if converted.Text != "" {
					converted.Text += "\n"
				}
				converted.Text += part.Text
			case part.ImageURL != "":
				converted.Images = append(converted.Images, part.ImageURL)
			}
		}
		history = append(history, converted)
	}

	artifact, err := a.Pipeline.ChatGenerate(r.Context(), pipeline.ChatParams{
		Prompt:      req.Prompt,
		History:     history,
		AspectRatio: req.Settings.AspectRatio,
		Count:       req.Settings.NumImages,
		Diversify:   req.Settings.CreativeDiversification,
		Images:      req.Images,
	})
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, artifact)
}
