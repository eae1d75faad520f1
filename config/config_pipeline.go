package config

import (
	"time"

	"github.com/adrianliechti/narrator/pkg/governor"
	"github.com/adrianliechti/narrator/pkg/otel"
	"github.com/adrianliechti/narrator/pkg/pipeline"
	"github.com/adrianliechti/narrator/pkg/retry"
)

type pipelineConfig struct {
	Synthesizer string `yaml:"synthesizer"`

	MaxLength int `yaml:"max_length"`
	MaxInput  int `yaml:"max_input"`

	QueueSize   int `yaml:"queue_size"`
	Concurrency int `yaml:"concurrency"`

	Retry *retryConfig `yaml:"retry"`
}

type retryConfig struct {
	Attempts *int `yaml:"attempts"`
	Budget   *int `yaml:"budget"`

	Timeout       time.Duration `yaml:"timeout"`
	RateLimitWait time.Duration `yaml:"rate_limit_wait"`

	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffMax  time.Duration `yaml:"backoff_max"`

	JitterMin *time.Duration `yaml:"jitter_min"`
	JitterMax *time.Duration `yaml:"jitter_max"`
}

func (c *Config) registerPipeline(f *configFile) error {
	cfg := f.Pipeline

	if cfg == nil {
		cfg = &pipelineConfig{}
	}

	synthesizer, err := c.Synthesizer(cfg.Synthesizer)

	if err != nil {
		return err
	}

	c.Governor = governor.New(cfg.QueueSize, cfg.Concurrency)

	options := []pipeline.Option{
		pipeline.WithLogger(c.Logger),
	}

	if c.Transcoder != nil {
		options = append(options, pipeline.WithTranscoder(c.Transcoder))
	}

	if cfg.MaxLength > 0 {
		options = append(options, pipeline.WithMaxLength(cfg.MaxLength))
	}

	if cfg.MaxInput > 0 {
		options = append(options, pipeline.WithMaxInput(cfg.MaxInput))
	}

	c.Pipeline = pipeline.New(retry.NewSynthesizer(synthesizer, retryOptions(cfg.Retry, c)...), c.Governor, options...)

	return otel.ObserveGovernor(c.Governor, c.Sessions.Count)
}

func retryOptions(cfg *retryConfig, c *Config) []retry.Option {
	options := []retry.Option{
		retry.WithLogger(c.Logger),
	}

	if cfg == nil {
		return options
	}

	if cfg.Attempts != nil {
		options = append(options, retry.WithAttempts(*cfg.Attempts))
	}

	if cfg.Budget != nil {
		options = append(options, retry.WithBudget(*cfg.Budget))
	}

	if cfg.Timeout > 0 {
		options = append(options, retry.WithTimeout(cfg.Timeout))
	}

	if cfg.RateLimitWait > 0 {
		options = append(options, retry.WithRateLimitWait(cfg.RateLimitWait))
	}

	if cfg.BackoffBase > 0 || cfg.BackoffMax > 0 {
		backoff := retry.DefaultBackoff

		if cfg.BackoffBase > 0 {
			backoff.Base = cfg.BackoffBase
		}

		if cfg.BackoffMax > 0 {
			backoff.Max = cfg.BackoffMax
		}

		options = append(options, retry.WithBackoff(backoff))
	}

	if cfg.JitterMin != nil || cfg.JitterMax != nil {
		lo, hi := retry.DefaultJitterMin, retry.DefaultJitterMax

		if cfg.JitterMin != nil {
			lo = *cfg.JitterMin
		}

		if cfg.JitterMax != nil {
			hi = *cfg.JitterMax
		}

		options = append(options, retry.WithJitter(lo, hi))
	}

	return options
}
