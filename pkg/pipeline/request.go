package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/adrianliechti/narrator/pkg/audio"
	"github.com/adrianliechti/narrator/pkg/provider"
	"github.com/adrianliechti/narrator/pkg/text"

	"github.com/google/uuid"
)

const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

const (
	CodeMissingInput     = "missing_input"
	CodeInputTooLong     = "input_too_long"
	CodeInvalidVoice     = "invalid_voice"
	CodeInvalidFormat    = "invalid_format"
	CodeInvalidMaxLength = "invalid_max_length"
	CodeNoChunks         = "no_chunks"
	CodeTextTooLong      = "text_too_long"
	CodeTooManyChunks    = "too_many_chunks"
	CodeInvalidSpeed     = "invalid_speed"
)

// ValidationError reports a problem with the caller's input.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(code, format string, args ...any) error {
	return &ValidationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

type Input struct {
	Text  string
	Voice string

	Format       string
	Instructions string

	// Speed is forwarded to upstreams that support it. Nil means normal speed.
	Speed *float32

	// MaxLength is the chunk length in characters. Zero selects the default.
	MaxLength int

	// PreserveWords keeps words and sentences intact when splitting.
	// Nil means true.
	PreserveWords *bool
}

// Request is validated input, ready to be run.
type Request struct {
	ID string

	Voice        string
	Format       audio.Format
	Instructions string
	Speed        *float32

	TextLength int
	MaxLength  int

	Chunks []text.Chunk
}

// Prepare validates and sanitizes the input and splits it into chunks.
func (p *Pipeline) Prepare(in Input) (*Request, error) {
	content := text.Sanitize(in.Text)

	if content == "" {
		return nil, invalid(CodeMissingInput, "text is required")
	}

	length := utf8.RuneCountInString(content)

	if length > p.maxInput {
		return nil, invalid(CodeInputTooLong, "text is too long (%d characters, maximum %d)", length, p.maxInput)
	}

	voice := strings.ToLower(strings.TrimSpace(in.Voice))

	if voice == "" || !provider.IsVoice(voice) {
		return nil, invalid(CodeInvalidVoice, "invalid voice %q, available voices: %s", in.Voice, strings.Join(provider.Voices, ", "))
	}

	format := audio.FormatMP3

	if in.Format != "" {
		f, ok := audio.ParseFormat(in.Format)

		if !ok || !slices.Contains(p.Formats(), f) {
			return nil, invalid(CodeInvalidFormat, "unsupported format %q", in.Format)
		}

		format = f
	}

	if in.Speed != nil && (*in.Speed < MinSpeed || *in.Speed > MaxSpeed) {
		return nil, invalid(CodeInvalidSpeed, "speed must be between %g and %g", MinSpeed, MaxSpeed)
	}

	maxLength := in.MaxLength

	if maxLength < 0 {
		return nil, invalid(CodeInvalidMaxLength, "max_length must not be negative")
	}

	if maxLength == 0 || maxLength > p.maxLength {
		maxLength = p.maxLength
	}

	preserveWords := in.PreserveWords == nil || *in.PreserveWords

	chunks := text.Segment(content, maxLength, preserveWords)

	if len(chunks) == 0 {
		return nil, invalid(CodeNoChunks, "text produced no chunks")
	}

	// such a request could never be admitted, however idle the governor is
	if limit := p.governor.Status().MaxQueueSize; len(chunks) > limit {
		return nil, invalid(CodeTooManyChunks, "text splits into %d chunks, maximum %d; raise max_length or shorten the text", len(chunks), limit)
	}

	return &Request{
		ID: uuid.NewString(),

		Voice:        voice,
		Format:       format,
		Instructions: strings.TrimSpace(in.Instructions),
		Speed:        in.Speed,

		TextLength: length,
		MaxLength:  maxLength,

		Chunks: chunks,
	}, nil
}

// PrepareSingle is Prepare for text that must fit into a single upstream call.
func (p *Pipeline) PrepareSingle(in Input) (*Request, error) {
	r, err := p.Prepare(in)

	if err != nil {
		return nil, err
	}

	if len(r.Chunks) > 1 {
		return nil, invalid(CodeTextTooLong, "text is too long for a single request (%d characters, maximum %d)", r.TextLength, r.MaxLength)
	}

	return r, nil
}
