package api

import (
	"net/http"

	"github.com/adrianliechti/narrator/config"
	"github.com/adrianliechti/narrator/server/shared"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	*config.Config
}

func New(cfg *config.Config) (*Handler, error) {
	h := &Handler{
		Config: cfg,
	}

	return h, nil
}

// AttachStatus mounts the routes that do not require authentication.
func (h *Handler) AttachStatus(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/status", h.handleStatus)
	r.Get("/queue-size", h.handleQueue)

	r.Get("/voices", h.handleVoices)
	r.Get("/formats", h.handleFormats)
}

func (h *Handler) Attach(r chi.Router) {
	r.Post("/validate-text", h.handleValidate)

	r.Post("/generate", h.handleGenerate)
	r.Post("/generate-combined", h.handleGenerateCombined)
	r.Post("/generate-stream", h.handleGenerateStream)
}

func writeJson(w http.ResponseWriter, v any) {
	shared.WriteJson(w, v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	shared.WriteError(w, code, err)
}
