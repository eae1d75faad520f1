package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/adrianliechti/narrator/pkg/provider"
)

const (
	DefaultAttempts      = 3
	DefaultBudget        = 6
	DefaultTimeout       = 30 * time.Second
	DefaultRateLimitWait = 5 * time.Second

	DefaultJitterMin = 50 * time.Millisecond
	DefaultJitterMax = 300 * time.Millisecond
)

var _ provider.Synthesizer = (*Synthesizer)(nil)

// Synthesizer drives retries around a single upstream synthesizer.
//
// Transient failures are retried up to the attempt bound with exponential
// backoff. Rate limited calls wait for the advertised duration and only count
// against the overall budget. Whatever error ends the loop is reported as
// fatal.
type Synthesizer struct {
	synthesizer provider.Synthesizer

	attempts int
	budget   int

	timeout time.Duration
	backoff Backoff

	rateLimitWait time.Duration

	jitterMin time.Duration
	jitterMax time.Duration

	random func() float64
	sleep  func(ctx context.Context, d time.Duration) error

	logger *slog.Logger
}

type Option func(*Synthesizer)

// WithAttempts bounds the number of retries after transient failures.
func WithAttempts(n int) Option {
	return func(s *Synthesizer) {
		s.attempts = n
	}
}

// WithBudget bounds the total number of retries of any kind.
func WithBudget(n int) Option {
	return func(s *Synthesizer) {
		s.budget = n
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.timeout = d
	}
}

func WithBackoff(b Backoff) Option {
	return func(s *Synthesizer) {
		s.backoff = b
	}
}

// WithRateLimitWait sets the wait used when the upstream does not say how
// long to back off.
func WithRateLimitWait(d time.Duration) Option {
	return func(s *Synthesizer) {
		s.rateLimitWait = d
	}
}

// WithJitter sets the range of the random delay before the first call.
func WithJitter(min, max time.Duration) Option {
	return func(s *Synthesizer) {
		s.jitterMin = min
		s.jitterMax = max
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

func NewSynthesizer(p provider.Synthesizer, options ...Option) *Synthesizer {
	s := &Synthesizer{
		synthesizer: p,

		attempts: DefaultAttempts,
		budget:   DefaultBudget,

		timeout: DefaultTimeout,
		backoff: DefaultBackoff,

		rateLimitWait: DefaultRateLimitWait,

		jitterMin: DefaultJitterMin,
		jitterMax: DefaultJitterMax,

		random: rand.Float64,
		sleep:  sleep,

		logger: slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.budget < s.attempts {
		s.budget = s.attempts
	}

	return s
}

func (s *Synthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) (*provider.Synthesis, error) {
	if err := s.sleep(ctx, s.jitter()); err != nil {
		return nil, provider.Fatal(err)
	}

	transient := 0

	for attempt := 0; ; attempt++ {
		result, err := s.call(ctx, input, options)

		if err == nil {
			return result, nil
		}

		last := provider.AsError(err)

		if ctx.Err() != nil {
			return nil, provider.Fatal(last)
		}

		var wait time.Duration

		switch last.Kind {
		case provider.ErrorRateLimited:
			wait = last.RetryAfter

			if wait <= 0 {
				wait = s.rateLimitWait
			}

		case provider.ErrorTransient:
			if transient >= s.attempts {
				return nil, provider.Fatal(last)
			}

			wait = s.delay(transient)
			transient++

		default:
			return nil, provider.Fatal(last)
		}

		if attempt >= s.budget {
			return nil, provider.Fatal(last)
		}

		s.logger.Warn("retrying synthesis", "attempt", attempt+1, "kind", last.Kind, "status", last.StatusCode, "wait", wait, "error", last)

		if err := s.sleep(ctx, wait); err != nil {
			return nil, provider.Fatal(last)
		}
	}
}

func (s *Synthesizer) call(ctx context.Context, input string, options *provider.SynthesizeOptions) (*provider.Synthesis, error) {
	if s.timeout <= 0 {
		return s.synthesizer.Synthesize(ctx, input, options)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.synthesizer.Synthesize(callCtx, input, options)

	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, &provider.Error{
			Kind:    provider.ErrorTransient,
			Message: "upstream call timed out after " + s.timeout.String(),
			Err:     err,
		}
	}

	return result, err
}

func (s *Synthesizer) delay(attempt int) time.Duration {
	return s.backoff.Delay(attempt, JitterMin+s.random()*(JitterMax-JitterMin))
}

func (s *Synthesizer) jitter() time.Duration {
	if s.jitterMax <= s.jitterMin {
		return s.jitterMin
	}

	return s.jitterMin + time.Duration(s.random()*float64(s.jitterMax-s.jitterMin))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()

	case <-timer.C:
		return nil
	}
}
