package pipeline

import (
	"context"
)

// Update reports one finished chunk, successful or not.
type Update struct {
	Chunk   *ChunkResult
	Failure *Failure

	Completed int
	Total     int

	// Progress is Completed / Total * 100.
	Progress float64
}

// Stream synthesizes every chunk of r and delivers each result as soon as it
// is available, in completion order. The channel is closed after every chunk
// was attempted.
//
// Admission works like Run: if the governor cannot admit all chunks, Stream
// returns a *governor.RejectedError and nothing is started.
func (p *Pipeline) Stream(ctx context.Context, r *Request) (<-chan Update, error) {
	slots, err := p.governor.AdmitN(len(r.Chunks))

	if err != nil {
		return nil, err
	}

	total := len(r.Chunks)

	outcomes := make(chan outcome, total)
	updates := make(chan Update, total)

	go p.dispatch(ctx, r, slots, outcomes)

	go func() {
		defer close(updates)

		completed := 0

		for o := range outcomes {
			completed++

			if o.chunk != nil {
				o.chunk.Audio, o.chunk.Format = p.convert(context.WithoutCancel(ctx), o.chunk.Audio, o.chunk.Format, r.Format)
			}

			updates <- Update{
				Chunk:   o.chunk,
				Failure: o.failure,

				Completed: completed,
				Total:     total,

				Progress: float64(completed) / float64(total) * 100,
			}
		}
	}()

	return updates, nil
}
