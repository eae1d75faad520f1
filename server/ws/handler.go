package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/adrianliechti/narrator/config"
	"github.com/adrianliechti/narrator/pkg/stream"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	CodeInvalidMessage = "invalid_message"
	CodeRequestActive  = "request_active"
	CodeUnknownRequest = "unknown_request"
)

type Handler struct {
	*config.Config

	upgrader websocket.Upgrader
}

func New(cfg *config.Config) (*Handler, error) {
	h := &Handler{
		Config: cfg,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,

			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	return h, nil
}

func (h *Handler) Attach(r chi.Router) {
	r.Get("/", h.handleConnect)
}

func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)

	if err != nil {
		return
	}

	conn := newConnection(socket)
	defer conn.close()

	logger := h.Logger

	if logger == nil {
		logger = slog.Default()
	}

	sinks := append([]stream.Sink{conn}, h.Sinks...)

	session := stream.NewSession(h.Pipeline, logger, sinks...)

	h.Sessions.Add(session)
	defer h.Sessions.Remove(session.ID)

	defer session.Close()

	logger = logger.With("session", session.ID, "remote", r.RemoteAddr)
	logger.Info("websocket connected")

	if err := conn.write(Connected{Type: "connected", SessionID: session.ID, Status: "ready"}); err != nil {
		return
	}

	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		return conn.keepalive(ctx)
	})

	g.Go(func() error {
		// returning cancels ctx, which stops keepalive and running requests
		return h.serve(ctx, conn, session, logger)
	})

	if err := g.Wait(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logger.Debug("websocket closed", "error", err)
	}

	logger.Info("websocket disconnected")
}

func (h *Handler) serve(ctx context.Context, conn *connection, session *stream.Session, logger *slog.Logger) error {
	for {
		m, err := conn.read()

		if err != nil {
			var closeErr *websocket.CloseError

			if errors.As(err, &closeErr) {
				return err
			}

			if isDecodeError(err) {
				conn.Send(ctx, reject("", CodeInvalidMessage, "invalid message: "+err.Error()))
				continue
			}

			return err
		}

		switch m.Type {
		case MessageGenerate:
			_, err := session.Start(ctx, m.RequestID, m.Input())

			if errors.Is(err, stream.ErrRequestActive) {
				conn.Send(ctx, reject(m.RequestID, CodeRequestActive, err.Error()))
				continue
			}

			if err != nil {
				return err
			}

		case MessageCancel:
			if !session.Cancel(m.RequestID) {
				conn.Send(ctx, reject(m.RequestID, CodeUnknownRequest, "no active request "+m.RequestID))
			}

		case MessagePing:
			conn.write(Pong{Type: "pong"})

		default:
			logger.Debug("unknown websocket message", "type", m.Type)
			conn.Send(ctx, reject(m.RequestID, CodeInvalidMessage, "unknown message type "+m.Type))
		}
	}
}

func reject(requestID, code, message string) stream.Event {
	return stream.Event{
		Type:      stream.EventError,
		RequestID: requestID,

		Error: message,
		Code:  code,

		Timestamp: time.Now(),
	}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
