// Package handlers implements the HTTP surface of the generation API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/history"
	"server/internal/i18n"
	"server/internal/library"
	"server/internal/middleware"
	"server/internal/pipeline"
	"server/internal/video"
)

// App bundles the services the handlers dispatch to.
type App struct {
	Pipeline *pipeline.Coordinator
	Video    *video.Service
	History  history.Store
	Library  library.Library
	Exporter library.Exporter
	Logger   zerolog.Logger
}

type errorBody struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	UserMessage string `json:"user_message"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: v})
}

// error maps the domain error taxonomy to HTTP statuses and localizes the
// user-facing message.
func (a *App) error(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.CodeOf(err)
	if code == "" {
		code = "internal"
	}
	status := statusFor(err)
	locale := middleware.LocaleFromContext(r.Context())

	event := a.Logger.Warn()
	if status >= http.StatusInternalServerError {
		event = a.Logger.Error()
	}
	event.Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Int("status", status).
		Str("code", code).
		Msg("http: request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &errorBody{
		Code:        code,
		Message:     err.Error(),
		UserMessage: i18n.Message(locale, err),
	}})
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPolicyRejected:
		return http.StatusUnprocessableEntity
	case domain.KindTransient:
		if domain.CodeOf(err) == "video_timeout" {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.error(w, r, domain.Wrap(domain.KindValidation, "invalid_body", err))
		return false
	}
	return true
}
