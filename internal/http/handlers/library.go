package handlers

import (
	"net/http"

	"server/internal/domain"
	"server/internal/library"
)

func (a *App) LibraryList(w http.ResponseWriter, r *http.Request) {
	assets, err := a.Library.List(r.Context())
	if err != nil {
		a.error(w, r, err)
		return
	}
	if assets == nil {
		assets = []library.Asset{}
	}
	a.json(w, http.StatusOK, assets)
}

// LibraryExport streams the whole library as a zip archive.
func (a *App) LibraryExport(w http.ResponseWriter, r *http.Request) {
	if a.Exporter == nil {
		a.error(w, r, domain.E(domain.KindNotFound, "library_empty", "no exportable library configured"))
		return
	}
	archive, err := a.Exporter.Export(r.Context())
	if err != nil {
		a.error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="library.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
