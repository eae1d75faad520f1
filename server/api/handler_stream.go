package api

import (
	"context"
	"net/http"

	"github.com/adrianliechti/narrator/pkg/stream"
	"github.com/adrianliechti/narrator/server/shared"

	"github.com/google/uuid"
)

func (h *Handler) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	req, err := readRequest(w, r)

	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	input := req.Input()

	// reject bad input before the event stream is opened
	if _, err := h.Pipeline.Prepare(input); err != nil {
		shared.WritePipelineError(w, err)
		return
	}

	requestID := uuid.NewString()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Request-ID", requestID)

	w.WriteHeader(http.StatusOK)
	http.NewResponseController(w).Flush()

	sinks := []stream.Sink{
		stream.SinkFunc(func(ctx context.Context, e stream.Event) error {
			return shared.WriteEventData(w, e)
		}),
	}

	sinks = append(sinks, h.Sinks...)

	session := stream.NewSession(h.Pipeline, h.Logger, sinks...)

	h.Sessions.Add(session)
	defer h.Sessions.Remove(session.ID)

	if _, err := session.Start(r.Context(), requestID, input); err != nil {
		session.Close()
		return
	}

	session.Wait()
	session.Close()
}
