package openai

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/adrianliechti/narrator/pkg/pipeline"
	"github.com/adrianliechti/narrator/pkg/provider"
	"github.com/adrianliechti/narrator/server/openai/audio"
	"github.com/adrianliechti/narrator/server/shared"
)

const maxBodySize = 1 << 20

func (h *Handler) handleAudioSpeech(w http.ResponseWriter, r *http.Request) {
	var req audio.SpeechRequest

	body := http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError

		if errors.As(err, &maxErr) {
			shared.WriteError(w, http.StatusRequestEntityTooLarge, err)
			return
		}

		shared.WriteError(w, http.StatusBadRequest, err)
		return
	}

	voice := req.Voice

	if voice == "" {
		voice = provider.DefaultVoice
	}

	input := pipeline.Input{
		Text:  req.Input,
		Voice: voice,

		Format:       req.ResponseFormat,
		Instructions: req.Instructions,

		Speed: req.Speed,

		MaxLength: req.MaxLength,
	}

	autoCombine := req.AutoCombine == nil || *req.AutoCombine

	prepare := h.Pipeline.Prepare

	if !autoCombine {
		prepare = h.Pipeline.PrepareSingle
	}

	p, err := prepare(input)

	if err != nil {
		shared.WritePipelineError(w, err)
		return
	}

	result, err := h.Pipeline.Run(r.Context(), p)

	if err != nil {
		shared.WritePipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType())

	w.Header().Set("X-Request-ID", p.ID)
	w.Header().Set("X-Audio-Format", string(result.Format))
	w.Header().Set("X-Audio-Size", strconv.Itoa(len(result.Audio)))
	w.Header().Set("X-Requested-Format", string(result.RequestedFormat))
	w.Header().Set("X-Effective-Format", string(result.Format))

	if result.TotalChunks > 1 {
		w.Header().Set("X-Auto-Combine", "true")
		w.Header().Set("X-Chunks-Combined", strconv.Itoa(result.ChunkCount))
		w.Header().Set("X-Original-Text-Length", strconv.Itoa(result.TextLength))
	}

	if n := len(result.Failures); n > 0 {
		w.Header().Set("X-Chunks-Failed", strconv.Itoa(n))
	}

	w.Write(result.Audio)
}
