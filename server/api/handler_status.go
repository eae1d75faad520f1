package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/adrianliechti/narrator/pkg/audio"
	"github.com/adrianliechti/narrator/pkg/provider"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	queue := h.queue()

	status := "online"

	if queue.Available == 0 {
		status = "busy"
	}

	writeJson(w, StatusResponse{
		Status: status,

		Queue:    queue,
		Sessions: h.Sessions.Count(),
		Streams:  h.Sessions.Active(),

		Formats:    formatNames(h.Pipeline.Formats()),
		Transcoder: h.Transcoder != nil,

		MaxLength: h.Pipeline.MaxLength(),
		MaxInput:  h.Pipeline.MaxInput(),

		AuthRequired: len(h.Authorizers) > 0,

		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJson(w, h.queue())
}

func (h *Handler) queue() QueueResponse {
	status := h.Pipeline.Governor().Status()

	used := status.Active + status.Queued

	return QueueResponse{
		Status: status,

		Available: max(0, status.MaxQueueSize-used),
		Load:      float64(used) / float64(status.MaxQueueSize) * 100,
	}
}

func (h *Handler) handleVoices(w http.ResponseWriter, r *http.Request) {
	var voices []Voice

	for _, v := range provider.Voices {
		voices = append(voices, Voice{
			ID:   v,
			Name: strings.ToUpper(v[:1]) + v[1:],
		})
	}

	writeJson(w, VoiceList{
		Voices: voices,
		Count:  len(voices),
	})
}

func (h *Handler) handleFormats(w http.ResponseWriter, r *http.Request) {
	available := h.Pipeline.Formats()

	var formats []Format

	for _, f := range audio.Formats {
		formats = append(formats, Format{
			ID:          string(f),
			ContentType: f.ContentType(),

			Available: slices.Contains(available, f),
		})
	}

	writeJson(w, FormatList{
		Formats: formats,
		Count:   len(formats),

		Transcoder: h.Transcoder != nil,
	})
}
