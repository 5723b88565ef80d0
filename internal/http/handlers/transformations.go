package handlers

import (
	"net/http"

	"server/internal/domain"
)

type suggestionsRequest struct {
	Query           string                `json:"query"`
	Transformations []domain.EffectOption `json:"transformations"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// TransformationsSuggest ranks the client's effect list against a search
// query. Model trouble shows up as an empty list, never as an error.
func (a *App) TransformationsSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if !a.decode(w, r, &req) {
		return
	}
	suggestions, err := a.Pipeline.SuggestEffects(r.Context(), req.Query, req.Transformations)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, suggestionsResponse{Suggestions: suggestions})
}
