package config

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/adrianliechti/narrator/pkg/audio"
	"github.com/adrianliechti/narrator/pkg/auth"
	"github.com/adrianliechti/narrator/pkg/governor"
	"github.com/adrianliechti/narrator/pkg/limiter"
	"github.com/adrianliechti/narrator/pkg/pipeline"
	"github.com/adrianliechti/narrator/pkg/provider"
	"github.com/adrianliechti/narrator/pkg/stream"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Address string

	Authorizers []auth.Provider

	// Clients throttles failed authentication attempts per client address.
	Clients *limiter.Clients

	Logger *slog.Logger

	Sentry SentryConfig

	Governor   *governor.Governor
	Pipeline   *pipeline.Pipeline
	Transcoder audio.Transcoder

	Sessions *stream.Registry
	Sinks    []stream.Sink

	synthesizer map[string]provider.Synthesizer

	closers []io.Closer
}

type SentryConfig struct {
	DSN         string
	Environment string

	TracesSampleRate float64
}

func Parse(path string) (*Config, error) {
	file, err := parseFile(path)

	if err != nil {
		return nil, err
	}

	c := &Config{
		Address: ":8080",

		Sessions: stream.NewRegistry(),
	}

	if file.Address != "" {
		c.Address = file.Address
	}

	if err := c.registerLog(file); err != nil {
		return nil, err
	}

	if err := c.registerSentry(file); err != nil {
		return nil, err
	}

	if err := c.registerAuthorizer(file); err != nil {
		return nil, err
	}

	if err := c.registerSynthesizers(file); err != nil {
		return nil, err
	}

	if err := c.registerTranscoder(file); err != nil {
		return nil, err
	}

	if err := c.registerPipeline(file); err != nil {
		return nil, err
	}

	if err := c.registerSinks(file); err != nil {
		return nil, err
	}

	return c, nil
}

// Close releases log files and sink connections.
func (c *Config) Close() error {
	c.Sessions.Close()

	var result error

	for _, closer := range c.closers {
		result = errors.Join(result, closer.Close())
	}

	return result
}

type configFile struct {
	Address string `yaml:"address"`

	Authorizers []authorizerConfig `yaml:"authorizers"`

	Log    *logConfig    `yaml:"log"`
	Sentry *sentryConfig `yaml:"sentry"`

	Synthesizers yaml.Node `yaml:"synthesizers"`

	Pipeline   *pipelineConfig   `yaml:"pipeline"`
	Transcoder *transcoderConfig `yaml:"transcoder"`

	Sinks *sinksConfig `yaml:"sinks"`
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return &config, nil
}

func createLimiter(limit *int) *rate.Limiter {
	if limit == nil {
		return nil
	}

	return rate.NewLimiter(rate.Limit(*limit), *limit)
}
