package pipeline

import (
	"log/slog"

	"github.com/adrianliechti/narrator/pkg/audio"
	"github.com/adrianliechti/narrator/pkg/governor"
	"github.com/adrianliechti/narrator/pkg/provider"
)

const (
	DefaultMaxLength = 1000
	DefaultMaxInput  = 50000
)

// Pipeline turns long text into audio: it segments the text, runs one
// synthesis per chunk under the governor and recombines the results.
type Pipeline struct {
	synthesizer provider.Synthesizer
	governor    *governor.Governor

	transcoder audio.Transcoder
	combiner   *audio.Combiner

	maxLength int
	maxInput  int

	logger *slog.Logger
}

type Option func(*Pipeline)

func WithTranscoder(t audio.Transcoder) Option {
	return func(p *Pipeline) {
		p.transcoder = t
	}
}

// WithMaxLength sets the upper bound for the chunk length a caller may ask for.
// It is also the default chunk length.
func WithMaxLength(n int) Option {
	return func(p *Pipeline) {
		p.maxLength = n
	}
}

// WithMaxInput bounds the length of accepted text, in characters.
func WithMaxInput(n int) Option {
	return func(p *Pipeline) {
		p.maxInput = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func New(synthesizer provider.Synthesizer, governor *governor.Governor, options ...Option) *Pipeline {
	p := &Pipeline{
		synthesizer: synthesizer,
		governor:    governor,

		maxLength: DefaultMaxLength,
		maxInput:  DefaultMaxInput,

		logger: slog.Default(),
	}

	for _, option := range options {
		option(p)
	}

	if p.maxLength < 1 {
		p.maxLength = DefaultMaxLength
	}

	if p.maxInput < 1 {
		p.maxInput = DefaultMaxInput
	}

	p.combiner = audio.NewCombiner(
		audio.WithTranscoder(p.transcoder),
		audio.WithLogger(p.logger),
	)

	return p
}

func (p *Pipeline) Governor() *governor.Governor {
	return p.governor
}

// Formats lists the output formats this pipeline can produce.
func (p *Pipeline) Formats() []audio.Format {
	return audio.Capabilities(p.transcoder)
}

func (p *Pipeline) MaxLength() int {
	return p.maxLength
}

func (p *Pipeline) MaxInput() int {
	return p.maxInput
}
