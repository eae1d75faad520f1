package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/adrianliechti/narrator/config"
	"github.com/adrianliechti/narrator/server/api"
	"github.com/adrianliechti/narrator/server/openai"
	"github.com/adrianliechti/narrator/server/shared"
	"github.com/adrianliechti/narrator/server/ws"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

var ErrTooManyAttempts = errors.New("too many failed authentication attempts")

type Server struct {
	*config.Config
	http.Handler
}

// New builds the router. metrics is served on /metrics when set.
func New(cfg *config.Config, metrics http.Handler) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()

	s := &Server{
		Config:  cfg,
		Handler: otelhttp.NewHandler(r, "narrator"),
	}

	apiHandler, err := api.New(cfg)

	if err != nil {
		return nil, err
	}

	openaiHandler, err := openai.New(cfg)

	if err != nil {
		return nil, err
	}

	wsHandler, err := ws.New(cfg)

	if err != nil {
		return nil, err
	}

	r.Use(middleware.RealIP)

	if cfg.Sentry.DSN != "" {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}

	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},

		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Request-ID",
			"X-Audio-Format",
			"X-Audio-Size",
			"X-Auto-Combine",
			"X-Chunks-Combined",
			"X-Chunks-Failed",
			"X-Original-Text-Length",
			"X-Requested-Format",
			"X-Effective-Format",
		},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		apiHandler.AttachStatus(r)

		r.Group(func(r chi.Router) {
			r.Use(s.authorize)
			apiHandler.Attach(r)
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authorize)
		openaiHandler.Attach(r)
	})

	r.Route("/ws", func(r chi.Router) {
		r.Use(s.authorize)
		wsHandler.Attach(r)
	})

	return s, nil
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Address,
		Handler: s,

		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		s.Logger.Info("server listening", "address", s.Address)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err

	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// streaming responses and websockets are not tracked by Shutdown
	s.Sessions.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.Authorizers) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		client := clientAddress(r)

		if s.Clients.Blocked(client) {
			shared.WriteError(w, http.StatusTooManyRequests, ErrTooManyAttempts)
			return
		}

		var err error

		for _, a := range s.Authorizers {
			ctx, authErr := a.Authenticate(r.Context(), r)

			if authErr == nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			err = authErr
		}

		s.Clients.Fail(client)
		s.Logger.Warn("authentication failed", "client", client, "path", r.URL.Path, "error", err)

		shared.WriteError(w, http.StatusUnauthorized, err)
	})
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)

	if err != nil {
		return r.RemoteAddr
	}

	return host
}
