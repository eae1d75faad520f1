package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// GenerationService turns long text into a single audio file through the
// combining endpoint.
type GenerationService struct {
	Options []RequestOption
}

func NewGenerationService(opts ...RequestOption) GenerationService {
	return GenerationService{
		Options: opts,
	}
}

type GenerateRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`

	Format       string `json:"format,omitempty"`
	Instructions string `json:"instructions,omitempty"`

	MaxLength     int   `json:"max_length,omitempty"`
	PreserveWords *bool `json:"preserve_words,omitempty"`
}

type Generation struct {
	ID string

	Content     []byte
	ContentType string

	Format          string
	RequestedFormat string

	Chunks       int
	FailedChunks int
}

type Validation struct {
	TextLength int `json:"text_length"`
	MaxLength  int `json:"max_length"`

	Valid          bool `json:"is_valid"`
	NeedsSplitting bool `json:"needs_splitting"`

	Chunks  int      `json:"suggested_chunks"`
	Preview []string `json:"chunk_preview"`

	EstimatedDuration float64 `json:"estimated_duration"`
}

// Error is returned for responses other than 200.
type Error struct {
	StatusCode int

	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (r *GenerationService) New(ctx context.Context, input GenerateRequest, opts ...RequestOption) (*Generation, error) {
	resp, err := r.post(ctx, "/api/generate-combined", input, opts...)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)

	if err != nil {
		return nil, err
	}

	chunks, _ := strconv.Atoi(resp.Header.Get("X-Chunks-Combined"))
	failed, _ := strconv.Atoi(resp.Header.Get("X-Chunks-Failed"))

	return &Generation{
		ID: resp.Header.Get("X-Request-ID"),

		Content:     data,
		ContentType: resp.Header.Get("Content-Type"),

		Format:          resp.Header.Get("X-Audio-Format"),
		RequestedFormat: resp.Header.Get("X-Requested-Format"),

		Chunks:       chunks,
		FailedChunks: failed,
	}, nil
}

func (r *GenerationService) Validate(ctx context.Context, input GenerateRequest, opts ...RequestOption) (*Validation, error) {
	resp, err := r.post(ctx, "/api/validate-text", input, opts...)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	var result Validation

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *GenerationService) post(ctx context.Context, path string, input GenerateRequest, opts ...RequestOption) (*http.Response, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	body, err := json.Marshal(input)

	if err != nil {
		return nil, err
	}

	req, _ := http.NewRequestWithContext(ctx, "POST", c.URL+path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)

	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, convertError(resp)
	}

	return resp, nil
}

func convertError(resp *http.Response) error {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	result := &Error{
		StatusCode: resp.StatusCode,
		Message:    resp.Status,
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Message != "" {
		result.Code = body.Error.Code
		result.Message = body.Error.Message
	}

	return result
}
