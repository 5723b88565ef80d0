package handlers

import (
	"net/http"
	"strconv"

	"server/internal/domain"
)

func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			a.error(w, r, domain.E(domain.KindValidation, "invalid_body", "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	entries, err := a.History.List(r.Context(), limit)
	if err != nil {
		a.error(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	a.json(w, http.StatusOK, entries)
}
