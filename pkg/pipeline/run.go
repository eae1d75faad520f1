package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/adrianliechti/narrator/pkg/audio"
	"github.com/adrianliechti/narrator/pkg/governor"
	"github.com/adrianliechti/narrator/pkg/provider"
	"github.com/adrianliechti/narrator/pkg/text"
)

// ChunkResult is the audio of one synthesized chunk.
type ChunkResult struct {
	Index int
	Text  string

	Audio  []byte
	Format audio.Format

	Elapsed time.Duration
}

func (c *ChunkResult) ContentType() string {
	return c.Format.ContentType()
}

// Failure records a chunk that could not be synthesized.
type Failure struct {
	Index int
	Err   error
}

// UpstreamError is returned when no chunk could be synthesized.
type UpstreamError struct {
	Failures []Failure
}

func (e *UpstreamError) Error() string {
	if len(e.Failures) == 0 {
		return "synthesis failed"
	}

	return fmt.Sprintf("synthesis failed for all %d chunks: %v", len(e.Failures), e.Failures[0].Err)
}

func (e *UpstreamError) Unwrap() error {
	if len(e.Failures) == 0 {
		return nil
	}

	return e.Failures[0].Err
}

type Result struct {
	Audio []byte

	// Format is the encoding actually produced, which may differ from the
	// requested one when no transcoder is available.
	Format          audio.Format
	RequestedFormat audio.Format

	ChunkCount  int
	TotalChunks int
	TextLength  int

	Failures []Failure
}

func (r *Result) ContentType() string {
	return r.Format.ContentType()
}

type outcome struct {
	chunk   *ChunkResult
	failure *Failure
}

// Run synthesizes every chunk of r and combines the results in chunk order.
//
// Chunks that fail are left out and reported in Result.Failures. If the
// governor cannot admit all chunks, Run returns a *governor.RejectedError
// before any work starts.
func (p *Pipeline) Run(ctx context.Context, r *Request) (*Result, error) {
	slots, err := p.governor.AdmitN(len(r.Chunks))

	if err != nil {
		return nil, err
	}

	outcomes := make(chan outcome, len(r.Chunks))

	go p.dispatch(ctx, r, slots, outcomes)

	results := make([]*ChunkResult, len(r.Chunks))

	var failures []Failure

	for o := range outcomes {
		if o.failure != nil {
			failures = append(failures, *o.failure)
			continue
		}

		results[o.chunk.Index] = o.chunk
	}

	var chunks []audio.Chunk

	for _, c := range results {
		if c == nil {
			continue
		}

		chunks = append(chunks, audio.Chunk{
			Data:   c.Audio,
			Format: c.Format,
		})
	}

	slices.SortFunc(failures, func(a, b Failure) int {
		return cmp.Compare(a.Index, b.Index)
	})

	if len(chunks) == 0 {
		return nil, &UpstreamError{Failures: failures}
	}

	target := r.Format

	if len(chunks) == 1 {
		target = chunks[0].Format
	}

	data, format := p.combiner.Combine(ctx, chunks, target)
	data, format = p.convert(ctx, data, format, r.Format)

	if len(failures) > 0 {
		p.logger.Warn("synthesis partially failed", "request", r.ID, "chunks", len(r.Chunks), "failed", len(failures))
	}

	return &Result{
		Audio: data,

		Format:          format,
		RequestedFormat: r.Format,

		ChunkCount:  len(chunks),
		TotalChunks: len(r.Chunks),
		TextLength:  r.TextLength,

		Failures: failures,
	}, nil
}

// dispatch starts one synthesis per chunk, in chunk order, as governor slots
// become available. out is closed once every chunk produced an outcome.
//
// Once started, an upstream call runs to completion even if ctx is cancelled;
// cancellation only prevents chunks that have not started yet.
func (p *Pipeline) dispatch(ctx context.Context, r *Request, slots []*governor.Slot, out chan<- outcome) {
	defer close(out)

	var wg sync.WaitGroup

	for i, chunk := range r.Chunks {
		slot := slots[i]

		err := ctx.Err()

		if err == nil {
			err = slot.Acquire(ctx)
		}

		if err != nil {
			slot.Release()

			out <- outcome{failure: &Failure{Index: chunk.Index, Err: fmt.Errorf("chunk not started: %w", err)}}
			continue
		}

		wg.Go(func() {
			defer slot.Release()

			result, err := p.synthesize(context.WithoutCancel(ctx), r, chunk)

			if err != nil {
				p.logger.Error("chunk synthesis failed", "request", r.ID, "chunk", chunk.Index, "error", err)

				out <- outcome{failure: &Failure{Index: chunk.Index, Err: err}}
				return
			}

			out <- outcome{chunk: result}
		})
	}

	wg.Wait()
}

func (p *Pipeline) synthesize(ctx context.Context, r *Request, chunk text.Chunk) (*ChunkResult, error) {
	start := time.Now()

	base := audio.BaseFormat(r.Format)

	synthesis, err := p.synthesizer.Synthesize(ctx, chunk.Text, &provider.SynthesizeOptions{
		Voice:        r.Voice,
		Speed:        r.Speed,
		Format:       string(base),
		Instructions: r.Instructions,
	})

	if err != nil {
		return nil, err
	}

	format := base

	if synthesis.ContentType != "" {
		format = audio.FormatFromContentType(synthesis.ContentType)
	}

	return &ChunkResult{
		Index: chunk.Index,
		Text:  chunk.Text,

		Audio:  synthesis.Content,
		Format: format,

		Elapsed: time.Since(start),
	}, nil
}

// convert transcodes data into the requested format when possible and
// returns data unchanged otherwise.
func (p *Pipeline) convert(ctx context.Context, data []byte, from, to audio.Format) ([]byte, audio.Format) {
	if from == to || p.transcoder == nil || len(data) == 0 {
		return data, from
	}

	result, err := p.transcoder.Transcode(ctx, data, from, to)

	if err != nil {
		p.logger.Warn("format conversion failed", "from", from, "to", to, "error", err)
		return data, from
	}

	return result, to
}
