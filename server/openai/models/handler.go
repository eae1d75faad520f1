package models

import (
	"errors"
	"net/http"

	"github.com/adrianliechti/narrator/config"
	"github.com/adrianliechti/narrator/server/shared"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	*config.Config
}

func New(cfg *config.Config) *Handler {
	h := &Handler{
		Config: cfg,
	}

	return h
}

func (h *Handler) Attach(r chi.Router) {
	r.Get("/models", h.handleModels)
	r.Get("/models/{id}", h.handleModel)
}

// speech models accepted on /audio/speech; all of them map to the same
// upstream
var speechModels = []string{
	"tts-1",
	"tts-1-hd",
	"gpt-4o-mini-tts",
}

const created = 1699564800

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	result := &ModelList{
		Object: "list",
	}

	for _, id := range speechModels {
		result.Models = append(result.Models, model(id))
	}

	writeJson(w, result)
}

func (h *Handler) handleModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	for _, m := range speechModels {
		if m == id {
			writeJson(w, model(id))
			return
		}
	}

	writeError(w, http.StatusNotFound, errors.New("model not found"))
}

func model(id string) Model {
	return Model{
		Object: "model",

		ID:      id,
		Created: created,
		OwnedBy: "narrator",
	}
}

func writeJson(w http.ResponseWriter, v any) {
	shared.WriteJson(w, v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	shared.WriteError(w, code, err)
}
