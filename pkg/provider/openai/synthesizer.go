package openai

import (
	"context"
	"io"
	"strings"

	"github.com/adrianliechti/narrator/pkg/audio"
	"github.com/adrianliechti/narrator/pkg/provider"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
)

var _ provider.Synthesizer = (*Synthesizer)(nil)

type Synthesizer struct {
	*Config
	speech openai.AudioSpeechService
}

func NewSynthesizer(url, model string, options ...Option) (*Synthesizer, error) {
	cfg := &Config{
		url:   url,
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Synthesizer{
		Config: cfg,
		speech: openai.NewAudioSpeechService(cfg.Options()...),
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, content string, options *provider.SynthesizeOptions) (*provider.Synthesis, error) {
	if options == nil {
		options = new(provider.SynthesizeOptions)
	}

	format, ok := audio.ParseFormat(options.Format)

	if !ok {
		format = audio.FormatMP3
	}

	format = audio.BaseFormat(format)

	voice := strings.ToLower(options.Voice)

	if voice == "" {
		voice = provider.DefaultVoice
	}

	params := openai.AudioSpeechNewParams{
		Model: s.model,
		Input: content,

		Voice: openai.AudioSpeechNewParamsVoice(voice),

		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat(format),
	}

	if options.Instructions != "" {
		params.Instructions = openai.String(options.Instructions)
	}

	if options.Speed != nil {
		params.Speed = openai.Float(float64(*options.Speed))
	}

	result, err := s.speech.New(ctx, params)

	if err != nil {
		return nil, convertError(err)
	}

	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)

	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, &provider.Error{
			Kind:       provider.ErrorEmpty,
			StatusCode: result.StatusCode,
			Message:    "empty audio response",
		}
	}

	contentType := result.Header.Get("Content-Type")

	if contentType == "" {
		contentType = format.ContentType()
	}

	return &provider.Synthesis{
		ID:    uuid.NewString(),
		Model: s.model,

		Content:     data,
		ContentType: contentType,
	}, nil
}
