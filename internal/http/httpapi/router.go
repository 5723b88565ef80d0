package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options carries the router-level knobs the middlewares need.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/images", func(r chi.Router) {
		r.Post("/edit", app.ImagesEdit)
		r.Post("/generate", app.ImagesGenerate)
		r.Post("/batch", app.ImagesBatch)
		r.Post("/two-step", app.ImagesTwoStep)
		r.Post("/style-mimic", app.ImagesStyleMimic)
	})

	r.Route("/v1/chat", func(r chi.Router) {
		r.Post("/generate", app.ChatGenerate)
		r.Post("/preprocess", app.ChatPreprocess)
	})

	r.Post("/v1/transformations/suggestions", app.TransformationsSuggest)

	r.Route("/v1/videos", func(r chi.Router) {
		r.Post("/generate", app.VideosGenerate)
		r.Post("/stills", app.VideosStills)
		r.Post("/from-still", app.VideosFromStill)
		// Catch-all: operation names contain slashes
		// (models/.../operations/...) and must survive routing.
		r.Get("/status/*", app.VideosStatus)
	})

	r.Get("/v1/history", app.HistoryList)

	r.Route("/v1/library", func(r chi.Router) {
		r.Get("/", app.LibraryList)
		r.Get("/export", app.LibraryExport)
	})

	return r
}
