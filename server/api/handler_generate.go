package api

import (
	"net/http"

	"github.com/adrianliechti/narrator/server/shared"
)

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := readRequest(w, r)

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.Pipeline.PrepareSingle(req.Input())

	if err != nil {
		shared.WritePipelineError(w, err)
		return
	}

	result, err := h.Pipeline.Run(r.Context(), p)

	if err != nil {
		shared.WritePipelineError(w, err)
		return
	}

	writeAudio(w, p.ID, result, "speech")
}

func (h *Handler) handleGenerateCombined(w http.ResponseWriter, r *http.Request) {
	req, err := readRequest(w, r)

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.Pipeline.Prepare(req.Input())

	if err != nil {
		shared.WritePipelineError(w, err)
		return
	}

	result, err := h.Pipeline.Run(r.Context(), p)

	if err != nil {
		shared.WritePipelineError(w, err)
		return
	}

	w.Header().Set("X-Auto-Combine", "true")

	writeAudio(w, p.ID, result, "combined_speech")
}
