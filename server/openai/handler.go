package openai

import (
	"github.com/adrianliechti/narrator/config"
	"github.com/adrianliechti/narrator/server/openai/models"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	*config.Config

	models *models.Handler
}

func New(cfg *config.Config) (*Handler, error) {
	h := &Handler{
		Config: cfg,

		models: models.New(cfg),
	}

	return h, nil
}

func (h *Handler) Attach(r chi.Router) {
	h.models.Attach(r)

	r.Post("/audio/speech", h.handleAudioSpeech)
}
