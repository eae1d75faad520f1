package openaifm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adrianliechti/narrator/pkg/audio"
	"github.com/adrianliechti/narrator/pkg/provider"

	"github.com/google/uuid"
)

const maxErrorBody = 64 << 10

var _ provider.Synthesizer = (*Synthesizer)(nil)

// Synthesizer talks to the openai.fm demo backend, which accepts short
// form-encoded requests and answers with raw audio.
type Synthesizer struct {
	*Config

	headers *headerRotation
}

func NewSynthesizer(url string, options ...Option) (*Synthesizer, error) {
	cfg := &Config{
		url: url,
	}

	for _, option := range options {
		option(cfg)
	}

	if cfg.client == nil {
		cfg.client = http.DefaultClient
	}

	return &Synthesizer{
		Config: cfg,

		headers: &headerRotation{
			userAgent: cfg.userAgent,
		},
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, content string, options *provider.SynthesizeOptions) (*provider.Synthesis, error) {
	if options == nil {
		options = new(provider.SynthesizeOptions)
	}

	requested, ok := audio.ParseFormat(options.Format)

	if !ok {
		requested = audio.FormatMP3
	}

	format := audio.BaseFormat(requested)

	voice := strings.ToLower(options.Voice)

	if voice == "" {
		voice = provider.DefaultVoice
	}

	generation := uuid.NewString()

	form := url.Values{}
	form.Set("input", content)
	form.Set("voice", voice)
	form.Set("generation", generation)
	form.Set("response_format", string(format))

	if options.Instructions != "" {
		form.Set("prompt", options.Instructions)
	} else if s.defaultPrompt {
		form.Set("prompt", defaultPrompt)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), strings.NewReader(form.Encode()))

	if err != nil {
		return nil, err
	}

	s.headers.apply(req, format)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	data, err := io.ReadAll(resp.Body)

	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, &provider.Error{
			Kind:       provider.ErrorEmpty,
			StatusCode: resp.StatusCode,
			Message:    "empty audio response",
		}
	}

	contentType := resp.Header.Get("Content-Type")

	if contentType == "" {
		contentType = format.ContentType()
	}

	return &provider.Synthesis{
		ID:    generation,
		Model: "openai.fm",

		Content:     data,
		ContentType: contentType,
	}, nil
}

func convertError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	message := strings.TrimSpace(string(body))
	retryAfter := provider.ParseRetryAfter(resp.Header.Get("Retry-After"))

	var payload struct {
		Message    string  `json:"message"`
		RetryAfter float64 `json:"retry_after"`

		Error json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := errorMessage(payload.Error); msg != "" {
			message = msg
		} else if payload.Message != "" {
			message = payload.Message
		}

		if retryAfter == 0 && payload.RetryAfter > 0 {
			retryAfter = time.Duration(payload.RetryAfter * float64(time.Second))
		}
	}

	return provider.Classify(resp.StatusCode, message, retryAfter)
}

// errorMessage reads an error field given either as string or as object.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string

	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var detail struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(raw, &detail); err == nil {
		return detail.Message
	}

	return ""
}
