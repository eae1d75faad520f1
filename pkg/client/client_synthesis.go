package client

import (
	"context"

	"github.com/adrianliechti/narrator/pkg/provider"
	"github.com/adrianliechti/narrator/pkg/provider/openai"
)

// SynthesisService talks to the OpenAI compatible speech endpoint.
type SynthesisService struct {
	Options []RequestOption
}

func NewSynthesisService(opts ...RequestOption) SynthesisService {
	return SynthesisService{
		Options: opts,
	}
}

type Synthesis = provider.Synthesis
type SynthesizeOptions = provider.SynthesizeOptions

type SynthesizeRequest struct {
	SynthesizeOptions

	Model string

	Input string
}

func (r *SynthesisService) New(ctx context.Context, input SynthesizeRequest, opts ...RequestOption) (*Synthesis, error) {
	cfg := newRequestConfig(append(r.Options, opts...)...)
	url := cfg.URL + "/v1/"

	options := []openai.Option{}

	if cfg.Token != "" {
		options = append(options, openai.WithToken(cfg.Token))
	}

	if cfg.Client != nil {
		options = append(options, openai.WithClient(cfg.Client))
	}

	model := input.Model

	if model == "" {
		model = "tts-1"
	}

	p, err := openai.NewSynthesizer(url, model, options...)

	if err != nil {
		return nil, err
	}

	return p.Synthesize(ctx, input.Input, &input.SynthesizeOptions)
}
