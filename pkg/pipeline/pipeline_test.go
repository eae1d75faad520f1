package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/adrianliechti/narrator/pkg/audio"
	"github.com/adrianliechti/narrator/pkg/governor"
	"github.com/adrianliechti/narrator/pkg/provider"
	"github.com/adrianliechti/narrator/pkg/text"

	"github.com/stretchr/testify/require"
)

// wavSynthesizer answers every call with a short WAV clip and fails for the
// configured inputs.
type wavSynthesizer struct {
	fail map[string]error

	mu     sync.Mutex
	inputs []string

	calls atomic.Int64
}

func (s *wavSynthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) (*provider.Synthesis, error) {
	s.calls.Add(1)

	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	s.mu.Unlock()

	if err, ok := s.fail[input]; ok {
		return nil, err
	}

	return &provider.Synthesis{
		Content:     clip(),
		ContentType: "audio/wav",
	}, nil
}

type markTranscoder struct{}

func (markTranscoder) Transcode(ctx context.Context, data []byte, from, to audio.Format) ([]byte, error) {
	return append([]byte(string(to)+":"), data...), nil
}

func clip() []byte {
	data, err := audio.EncodeWAV(&audio.PCM{
		SampleRate:    24000,
		Channels:      1,
		BitsPerSample: 16,
		Data:          []byte{1, 2, 3, 4},
	})

	if err != nil {
		panic(err)
	}

	return data
}

func newRequest(n int, format audio.Format) *Request {
	chunks := make([]text.Chunk, n)

	for i := range chunks {
		chunks[i] = text.Chunk{
			Index: i,
			Text:  "chunk " + string(rune('1'+i)),
		}
	}

	return &Request{
		ID:     "test",
		Voice:  "alloy",
		Format: format,
		Chunks: chunks,
	}
}

func TestRunLongText(t *testing.T) {
	synth := &wavSynthesizer{}
	p := New(synth, governor.New(100, 4))

	input := strings.Repeat("abcd ", 499) + "abcde"
	require.Equal(t, 2500, utf8.RuneCountInString(input))

	r, err := p.Prepare(Input{Text: input, Voice: "alloy", Format: "wav", MaxLength: 1000})
	require.NoError(t, err)

	require.Len(t, r.Chunks, 3)

	for _, c := range r.Chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(c.Text), 1000)
	}

	result, err := p.Run(context.Background(), r)
	require.NoError(t, err)

	require.Equal(t, 3, result.ChunkCount)
	require.Equal(t, 3, result.TotalChunks)
	require.Equal(t, 2500, result.TextLength)
	require.Equal(t, audio.FormatWAV, result.Format)
	require.Empty(t, result.Failures)

	pcm, err := audio.DecodeWAV(result.Audio)
	require.NoError(t, err)
	require.Len(t, pcm.Data, 12)

	require.Equal(t, int64(3), synth.calls.Load())
}

func TestRunPartialFailure(t *testing.T) {
	synth := &wavSynthesizer{
		fail: map[string]error{
			"chunk 3": provider.Fatal(provider.Classify(400, "rejected", 0)),
		},
	}

	p := New(synth, governor.New(100, 2))

	result, err := p.Run(context.Background(), newRequest(5, audio.FormatWAV))
	require.NoError(t, err)

	require.Equal(t, 4, result.ChunkCount)
	require.Equal(t, 5, result.TotalChunks)

	require.Len(t, result.Failures, 1)
	require.Equal(t, 2, result.Failures[0].Index)

	pcm, err := audio.DecodeWAV(result.Audio)
	require.NoError(t, err)
	require.Len(t, pcm.Data, 16)

	require.Equal(t, governor.Status{MaxQueueSize: 100, Concurrency: 2}, p.Governor().Status())
}

func TestRunAllFailed(t *testing.T) {
	failure := provider.Fatal(provider.Classify(500, "down", 0))

	synth := &wavSynthesizer{
		fail: map[string]error{
			"chunk 1": failure,
			"chunk 2": failure,
		},
	}

	p := New(synth, governor.New(100, 2))

	_, err := p.Run(context.Background(), newRequest(2, audio.FormatMP3))

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Len(t, upstream.Failures, 2)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))
	require.Equal(t, 500, perr.StatusCode)
}

func TestRunRejected(t *testing.T) {
	synth := &wavSynthesizer{}
	gov := governor.New(2, 1)

	p := New(synth, gov)

	_, err := p.Run(context.Background(), newRequest(3, audio.FormatWAV))

	var rejected *governor.RejectedError
	require.True(t, errors.As(err, &rejected))

	require.Zero(t, synth.calls.Load())
	require.Equal(t, governor.Status{MaxQueueSize: 2, Concurrency: 1}, gov.Status())
}

func TestRunCancelled(t *testing.T) {
	synth := &wavSynthesizer{}
	p := New(synth, governor.New(10, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, newRequest(3, audio.FormatWAV))

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	require.Len(t, upstream.Failures, 3)

	require.Zero(t, synth.calls.Load())
	require.Zero(t, p.Governor().Status().Queued)
}

func TestRunTranscodes(t *testing.T) {
	synth := &wavSynthesizer{}
	p := New(synth, governor.New(10, 2), WithTranscoder(markTranscoder{}))

	r, err := p.Prepare(Input{Text: "One. Two.", Voice: "nova", Format: "flac", MaxLength: 5})
	require.NoError(t, err)
	require.Len(t, r.Chunks, 2)

	result, err := p.Run(context.Background(), r)
	require.NoError(t, err)

	require.Equal(t, audio.FormatFLAC, result.Format)
	require.Equal(t, audio.FormatFLAC, result.RequestedFormat)
	require.True(t, strings.HasPrefix(string(result.Audio), "flac:RIFF"))
	require.Equal(t, "audio/flac", result.ContentType())
}

func TestRunSingleChunk(t *testing.T) {
	synth := &wavSynthesizer{}
	p := New(synth, governor.New(10, 2))

	result, err := p.Run(context.Background(), newRequest(1, audio.FormatWAV))
	require.NoError(t, err)

	require.Equal(t, clip(), result.Audio)
	require.Equal(t, 1, result.ChunkCount)
}

func TestStream(t *testing.T) {
	synth := &wavSynthesizer{}
	p := New(synth, governor.New(10, 2))

	updates, err := p.Stream(context.Background(), newRequest(4, audio.FormatWAV))
	require.NoError(t, err)

	var progress []float64
	seen := map[int]bool{}

	for u := range updates {
		require.NotNil(t, u.Chunk)
		require.Equal(t, 4, u.Total)

		seen[u.Chunk.Index] = true
		progress = append(progress, u.Progress)
	}

	require.Len(t, seen, 4)
	require.Equal(t, []float64{25, 50, 75, 100}, progress)
}

func TestStreamReportsFailures(t *testing.T) {
	synth := &wavSynthesizer{
		fail: map[string]error{
			"chunk 2": provider.Fatal(provider.Classify(400, "rejected", 0)),
		},
	}

	p := New(synth, governor.New(10, 1))

	updates, err := p.Stream(context.Background(), newRequest(3, audio.FormatWAV))
	require.NoError(t, err)

	var chunks, failures int

	for u := range updates {
		if u.Failure != nil {
			failures++
			require.Equal(t, 1, u.Failure.Index)
			continue
		}

		chunks++
	}

	require.Equal(t, 2, chunks)
	require.Equal(t, 1, failures)
}

func TestPrepare(t *testing.T) {
	p := New(&wavSynthesizer{}, governor.New(10, 1), WithMaxInput(100))

	invalid := []struct {
		name  string
		input Input
		code  string
	}{
		{"missing text", Input{Voice: "alloy"}, CodeMissingInput},
		{"markup only", Input{Text: "<p></p>", Voice: "alloy"}, CodeMissingInput},
		{"too long", Input{Text: strings.Repeat("a", 101), Voice: "alloy"}, CodeInputTooLong},
		{"missing voice", Input{Text: "hello"}, CodeInvalidVoice},
		{"unknown voice", Input{Text: "hello", Voice: "robot"}, CodeInvalidVoice},
		{"unknown format", Input{Text: "hello", Voice: "alloy", Format: "midi"}, CodeInvalidFormat},
		{"format needs transcoder", Input{Text: "hello", Voice: "alloy", Format: "opus"}, CodeInvalidFormat},
		{"negative length", Input{Text: "hello", Voice: "alloy", MaxLength: -1}, CodeInvalidMaxLength},
		{"speed too low", Input{Text: "hello", Voice: "alloy", Speed: speed(0.1)}, CodeInvalidSpeed},
		{"speed too high", Input{Text: "hello", Voice: "alloy", Speed: speed(4.5)}, CodeInvalidSpeed},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Prepare(tc.input)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tc.code, verr.Code)
		})
	}

	r, err := p.Prepare(Input{Text: "  Hello &amp; <b>welcome</b>  ", Voice: "NOVA"})
	require.NoError(t, err)

	require.NotEmpty(t, r.ID)
	require.Equal(t, "nova", r.Voice)
	require.Equal(t, audio.FormatMP3, r.Format)
	require.Equal(t, DefaultMaxLength, r.MaxLength)
	require.Equal(t, []text.Chunk{{Index: 0, Text: "Hello & welcome"}}, r.Chunks)

	r, err = p.Prepare(Input{Text: "hello", Voice: "alloy", MaxLength: 5000})
	require.NoError(t, err)
	require.Equal(t, DefaultMaxLength, r.MaxLength)

	r, err = p.Prepare(Input{Text: "hello", Voice: "alloy", Speed: speed(MaxSpeed)})
	require.NoError(t, err)
	require.Equal(t, float32(MaxSpeed), *r.Speed)
}

func speed(v float32) *float32 {
	return &v
}

func TestPrepareTooManyChunks(t *testing.T) {
	gov := governor.New(100, 4)
	p := New(&wavSynthesizer{}, gov)

	_, err := p.Prepare(Input{Text: strings.Repeat("Hello there world. ", 150), Voice: "alloy", MaxLength: 20})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, CodeTooManyChunks, verr.Code)

	var rejected *governor.RejectedError
	require.False(t, errors.As(err, &rejected))

	require.Equal(t, governor.Status{MaxQueueSize: 100, Concurrency: 4}, gov.Status())

	r, err := p.Prepare(Input{Text: strings.Repeat("Hello there world. ", 100), Voice: "alloy", MaxLength: 20})
	require.NoError(t, err)
	require.Len(t, r.Chunks, 100)
}

func TestPrepareSingle(t *testing.T) {
	p := New(&wavSynthesizer{}, governor.New(10, 1))

	_, err := p.PrepareSingle(Input{Text: "One. Two.", Voice: "alloy", MaxLength: 5})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, CodeTextTooLong, verr.Code)

	r, err := p.PrepareSingle(Input{Text: "One. Two.", Voice: "alloy"})
	require.NoError(t, err)
	require.Len(t, r.Chunks, 1)
}
