package api

import (
	"net/http"
	"strings"

	"github.com/adrianliechti/narrator/pkg/text"
	"github.com/adrianliechti/narrator/server/shared"
)

const (
	previewChunks = 3
	previewLength = 100
)

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
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

	result := ValidateResponse{
		TextLength: p.TextLength,
		MaxLength:  p.MaxLength,

		Valid:          len(p.Chunks) == 1,
		NeedsSplitting: len(p.Chunks) > 1,

		Chunks: len(p.Chunks),
	}

	var content []string

	for i, c := range p.Chunks {
		content = append(content, c.Text)

		if result.NeedsSplitting && i < previewChunks {
			result.Preview = append(result.Preview, text.Preview(c.Text, previewLength))
		}
	}

	result.EstimatedDuration = text.EstimateDuration(strings.Join(content, " ")).Seconds()

	writeJson(w, result)
}
