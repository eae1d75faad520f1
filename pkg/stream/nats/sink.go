package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrianliechti/narrator/pkg/stream"

	"github.com/nats-io/nats.go"
)

var _ stream.Sink = (*Sink)(nil)

// Sink publishes stream events to NATS, one subject per event type below
// the configured prefix.
type Sink struct {
	*Config
	conn *nats.Conn
}

type Config struct {
	subject string

	token string
	audio bool

	timeout time.Duration
}

type Option func(*Config)

func WithToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

// WithAudio includes the chunk audio in published events. Payloads may then
// exceed the server's maximum message size.
func WithAudio(include bool) Option {
	return func(c *Config) {
		c.audio = include
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.timeout = timeout
	}
}

func NewSink(url, subject string, options ...Option) (*Sink, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}

	if subject == "" {
		subject = "narrator.stream"
	}

	cfg := &Config{
		subject: strings.TrimSuffix(subject, "."),
		timeout: 5 * time.Second,
	}

	for _, option := range options {
		option(cfg)
	}

	natsOptions := []nats.Option{
		nats.Name("narrator"),
		nats.Timeout(cfg.timeout),
	}

	if cfg.token != "" {
		natsOptions = append(natsOptions, nats.Token(cfg.token))
	}

	conn, err := nats.Connect(url, natsOptions...)

	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &Sink{
		Config: cfg,
		conn:   conn,
	}, nil
}

func (s *Sink) Send(ctx context.Context, e stream.Event) error {
	if !s.audio {
		e.AudioData = nil
	}

	data, err := json.Marshal(e)

	if err != nil {
		return err
	}

	return s.conn.Publish(s.subject+"."+string(e.Type), data)
}

func (s *Sink) Healthy() bool {
	return s != nil && s.conn != nil && s.conn.Status() == nats.CONNECTED
}

func (s *Sink) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}

	return s.conn.Drain()
}
