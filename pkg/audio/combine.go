package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
)

// Chunk is one encoded piece of audio together with the encoding it
// actually carries.
type Chunk struct {
	Data   []byte
	Format Format
}

type Combiner struct {
	transcoder Transcoder
	logger     *slog.Logger
}

type CombinerOption func(*Combiner)

func WithTranscoder(t Transcoder) CombinerOption {
	return func(c *Combiner) {
		c.transcoder = t
	}
}

func WithLogger(logger *slog.Logger) CombinerOption {
	return func(c *Combiner) {
		c.logger = logger
	}
}

func NewCombiner(options ...CombinerOption) *Combiner {
	c := &Combiner{
		logger: slog.Default(),
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// Combine merges ordered chunks into a single buffer and returns the format
// of that buffer.
//
// Chunks are decoded, joined at sample level and encoded once to target. If
// that fails for any reason the whole set is joined at container level for
// WAV and byte-wise for everything else. Combine never fails.
func (c *Combiner) Combine(ctx context.Context, chunks []Chunk, target Format) ([]byte, Format) {
	switch len(chunks) {
	case 0:
		return []byte{}, target

	case 1:
		return chunks[0].Data, chunks[0].Format
	}

	data, err := c.combineSamples(ctx, chunks, target)

	if err == nil {
		return data, target
	}

	c.logger.Debug("falling back to concatenation", "chunks", len(chunks), "target", target, "error", err)

	return Concat(chunks)
}

func (c *Combiner) combineSamples(ctx context.Context, chunks []Chunk, target Format) ([]byte, error) {
	if target != FormatWAV && c.transcoder == nil {
		return nil, ErrTranscoderUnavailable
	}

	var merged *PCM

	for i, chunk := range chunks {
		pcm, err := Decode(chunk.Data, chunk.Format)

		if err != nil {
			return nil, fmt.Errorf("decode chunk %d: %w", i, err)
		}

		if merged == nil {
			merged = &PCM{
				SampleRate:    pcm.SampleRate,
				Channels:      pcm.Channels,
				BitsPerSample: pcm.BitsPerSample,
			}
		}

		if !merged.compatible(pcm) {
			return nil, fmt.Errorf("chunk %d: %w", i, ErrMismatchedPCM)
		}

		merged.Data = append(merged.Data, pcm.Data...)
	}

	wav, err := EncodeWAV(merged)

	if err != nil {
		return nil, err
	}

	if target == FormatWAV {
		return wav, nil
	}

	return c.transcoder.Transcode(ctx, wav, FormatWAV, target)
}

// Concat joins chunks without decoding them. WAV chunks are joined at
// container level; any other encoding, or WAV that cannot be parsed, is
// joined byte-wise.
func Concat(chunks []Chunk) ([]byte, Format) {
	if len(chunks) == 0 {
		return []byte{}, ""
	}

	format := chunks[0].Format

	parts := make([][]byte, 0, len(chunks))

	uniform := true

	for _, chunk := range chunks {
		parts = append(parts, chunk.Data)

		if chunk.Format != format {
			uniform = false
		}
	}

	if uniform && format == FormatWAV {
		if data, err := ConcatWAV(parts...); err == nil {
			return data, FormatWAV
		}
	}

	return bytes.Join(parts, nil), format
}
