package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adrianliechti/narrator/config"
	"github.com/adrianliechti/narrator/pkg/otel"
	"github.com/adrianliechti/narrator/server"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", "config.yaml", "config file")

	flag.Parse()

	// a missing .env file is fine
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFlag); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	metrics, shutdown, err := otel.Setup(ctx, "narrator", version)

	if err != nil {
		return err
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		shutdown(ctx)
	}()

	cfg, err := config.Parse(path)

	if err != nil {
		return err
	}

	defer cfg.Close()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     version,

			EnableTracing:    true,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			cfg.Logger.Warn("sentry init failed", "error", err)
		}

		defer sentry.Flush(2 * time.Second)
	}

	s, err := server.New(cfg, metrics)

	if err != nil {
		return err
	}

	return s.ListenAndServe(ctx)
}
