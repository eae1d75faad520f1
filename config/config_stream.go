package config

import (
	"time"

	"github.com/adrianliechti/narrator/pkg/stream/nats"
)

type sinksConfig struct {
	NATS *natsSinkConfig `yaml:"nats"`
}

type natsSinkConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Token   string `yaml:"token"`

	Audio   bool          `yaml:"audio"`
	Timeout time.Duration `yaml:"timeout"`
}

// registerSinks sets up sinks that receive the events of every session, in
// addition to the client connection.
func (c *Config) registerSinks(f *configFile) error {
	if f.Sinks == nil {
		return nil
	}

	if cfg := f.Sinks.NATS; cfg != nil && cfg.URL != "" {
		var options []nats.Option

		if cfg.Token != "" {
			options = append(options, nats.WithToken(cfg.Token))
		}

		if cfg.Timeout > 0 {
			options = append(options, nats.WithTimeout(cfg.Timeout))
		}

		options = append(options, nats.WithAudio(cfg.Audio))

		sink, err := nats.NewSink(cfg.URL, cfg.Subject, options...)

		if err != nil {
			return err
		}

		c.Sinks = append(c.Sinks, sink)
		c.closers = append(c.closers, sink)
	}

	return nil
}
