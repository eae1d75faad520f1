package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adrianliechti/narrator/pkg/provider"

	"github.com/stretchr/testify/require"
)

// scriptedSynthesizer fails with the given errors in order, then succeeds.
type scriptedSynthesizer struct {
	errs  []error
	delay time.Duration

	calls atomic.Int64
}

func (m *scriptedSynthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) (*provider.Synthesis, error) {
	n := int(m.calls.Add(1)) - 1

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	if n < len(m.errs) {
		return nil, m.errs[n]
	}

	return &provider.Synthesis{
		Content:     []byte(input),
		ContentType: "audio/mpeg",
	}, nil
}

type sleepRecorder struct {
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func newTestSynthesizer(p provider.Synthesizer, options ...Option) (*Synthesizer, *sleepRecorder) {
	recorder := &sleepRecorder{}

	s := NewSynthesizer(p, options...)
	s.sleep = recorder.sleep
	s.random = func() float64 { return 0 }

	return s, recorder
}

func transient() error {
	return provider.Classify(503, "unavailable", 0)
}

func TestSynthesizeSuccess(t *testing.T) {
	p := &scriptedSynthesizer{}
	s, recorder := newTestSynthesizer(p, WithJitter(0, 0))

	result, err := s.Synthesize(context.Background(), "hello", nil)
	require.NoError(t, err)

	require.Equal(t, []byte("hello"), result.Content)
	require.Equal(t, int64(1), p.calls.Load())
	require.Equal(t, []time.Duration{0}, recorder.waits)
}

func TestSynthesizeTransientThenSuccess(t *testing.T) {
	for failures := 0; failures <= DefaultAttempts; failures++ {
		errs := make([]error, failures)

		for i := range errs {
			errs[i] = transient()
		}

		p := &scriptedSynthesizer{errs: errs}
		s, _ := newTestSynthesizer(p)

		_, err := s.Synthesize(context.Background(), "hello", nil)
		require.NoError(t, err)

		require.Equal(t, int64(failures+1), p.calls.Load())
		require.LessOrEqual(t, p.calls.Load(), int64(1+DefaultBudget))
	}
}

func TestSynthesizeTransientExhausted(t *testing.T) {
	errs := make([]error, 10)

	for i := range errs {
		errs[i] = transient()
	}

	p := &scriptedSynthesizer{errs: errs}
	s, recorder := newTestSynthesizer(p, WithJitter(0, 0))

	_, err := s.Synthesize(context.Background(), "hello", nil)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))

	require.Equal(t, provider.ErrorFatal, perr.Kind)
	require.Equal(t, 503, perr.StatusCode)
	require.Equal(t, "unavailable", perr.Message)

	require.Equal(t, int64(1+DefaultAttempts), p.calls.Load())

	// pre-call jitter, then base * 2^n * (1 + 0.1)
	require.Equal(t, []time.Duration{
		0,
		1100 * time.Millisecond,
		2200 * time.Millisecond,
		4400 * time.Millisecond,
	}, recorder.waits)
}

func TestSynthesizeFatal(t *testing.T) {
	p := &scriptedSynthesizer{errs: []error{provider.Classify(400, "bad input", 0)}}
	s, _ := newTestSynthesizer(p)

	_, err := s.Synthesize(context.Background(), "hello", nil)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))

	require.Equal(t, provider.ErrorFatal, perr.Kind)
	require.Equal(t, int64(1), p.calls.Load())
}

func TestSynthesizeEmptyIsFatal(t *testing.T) {
	p := &scriptedSynthesizer{errs: []error{&provider.Error{Kind: provider.ErrorEmpty, StatusCode: 200}}}
	s, _ := newTestSynthesizer(p)

	_, err := s.Synthesize(context.Background(), "hello", nil)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))

	require.Equal(t, provider.ErrorFatal, perr.Kind)
	require.Equal(t, int64(1), p.calls.Load())
}

func TestSynthesizeRateLimited(t *testing.T) {
	p := &scriptedSynthesizer{errs: []error{
		provider.Classify(429, "slow down", 7*time.Second),
		provider.Classify(429, "slow down", 0),
		transient(),
		transient(),
		transient(),
	}}

	s, recorder := newTestSynthesizer(p, WithJitter(0, 0), WithRateLimitWait(2*time.Second))

	_, err := s.Synthesize(context.Background(), "hello", nil)
	require.NoError(t, err)

	// rate limits do not consume the transient bound
	require.Equal(t, int64(6), p.calls.Load())

	require.Equal(t, []time.Duration{
		0,
		7 * time.Second,
		2 * time.Second,
		1100 * time.Millisecond,
		2200 * time.Millisecond,
		4400 * time.Millisecond,
	}, recorder.waits)
}

func TestSynthesizeBudgetExhausted(t *testing.T) {
	errs := make([]error, 10)

	for i := range errs {
		errs[i] = provider.Classify(429, "slow down", time.Second)
	}

	p := &scriptedSynthesizer{errs: errs}
	s, _ := newTestSynthesizer(p, WithBudget(4))

	_, err := s.Synthesize(context.Background(), "hello", nil)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))

	require.Equal(t, provider.ErrorFatal, perr.Kind)
	require.Equal(t, 429, perr.StatusCode)
	require.Equal(t, int64(5), p.calls.Load())
}

func TestSynthesizeTimeout(t *testing.T) {
	p := &scriptedSynthesizer{delay: time.Second}
	s, _ := newTestSynthesizer(p, WithTimeout(10*time.Millisecond), WithAttempts(1), WithBudget(1))

	_, err := s.Synthesize(context.Background(), "hello", nil)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))

	require.Equal(t, provider.ErrorFatal, perr.Kind)
	require.Contains(t, perr.Message, "timed out")
	require.Equal(t, int64(2), p.calls.Load())
}

func TestSynthesizeCancelled(t *testing.T) {
	p := &scriptedSynthesizer{errs: []error{transient()}}
	s, _ := newTestSynthesizer(p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Synthesize(ctx, "hello", nil)
	require.Error(t, err)
	require.Zero(t, p.calls.Load())
}

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 10 * time.Second}

	require.Equal(t, time.Second, b.Delay(0, 0))
	require.Equal(t, 1300*time.Millisecond, b.Delay(0, 0.3))
	require.Equal(t, 4*time.Second, b.Delay(2, 0))
	require.Equal(t, 10*time.Second, b.Delay(5, 0))
	require.Equal(t, 10*time.Second, b.Delay(40, 0.2))
	require.Equal(t, time.Second, b.Delay(-1, 0))

	for attempt := range 4 {
		d := b.Next(attempt)

		require.GreaterOrEqual(t, d, b.Delay(attempt, JitterMin))
		require.LessOrEqual(t, d, b.Delay(attempt, JitterMax))
	}
}
