package config

import (
	"log/slog"
	"os"

	"github.com/adrianliechti/narrator/pkg/log"
	"github.com/adrianliechti/narrator/pkg/otel"
)

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	File string `yaml:"file"`

	MaxSize    int  `yaml:"max_size"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAge     int  `yaml:"max_age"`
	Compress   bool `yaml:"compress"`
}

type sentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`

	TracesSampleRate float64 `yaml:"traces_sample_rate"`
}

func (c *Config) registerLog(f *configFile) error {
	// telemetry installs its own default logger
	if otel.EnableTelemetry {
		c.Logger = slog.Default()
		return nil
	}

	cfg := log.Config{
		Level: os.Getenv("LOG_LEVEL"),

		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	}

	if otel.EnableDebug {
		cfg.Level = "debug"
	}

	if l := f.Log; l != nil {
		if l.Level != "" {
			cfg.Level = l.Level
		}

		cfg.Format = l.Format
		cfg.File = l.File
		cfg.Compress = l.Compress

		if l.MaxSize > 0 {
			cfg.MaxSize = l.MaxSize
		}

		if l.MaxBackups > 0 {
			cfg.MaxBackups = l.MaxBackups
		}

		if l.MaxAge > 0 {
			cfg.MaxAge = l.MaxAge
		}
	}

	logger, closer := log.New(cfg)

	slog.SetDefault(logger)

	c.Logger = logger
	c.closers = append(c.closers, closer)

	return nil
}

func (c *Config) registerSentry(f *configFile) error {
	c.Sentry = SentryConfig{
		DSN:         os.Getenv("SENTRY_DSN"),
		Environment: os.Getenv("SENTRY_ENVIRONMENT"),

		TracesSampleRate: 0.2,
	}

	if s := f.Sentry; s != nil {
		if s.DSN != "" {
			c.Sentry.DSN = s.DSN
		}

		if s.Environment != "" {
			c.Sentry.Environment = s.Environment
		}

		if s.TracesSampleRate > 0 {
			c.Sentry.TracesSampleRate = s.TracesSampleRate
		}
	}

	return nil
}
