package roundrobin

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/adrianliechti/narrator/pkg/provider"
	"github.com/adrianliechti/narrator/pkg/router"
)

// Synthesizer distributes requests randomly among healthy upstreams.
// Upstreams that keep failing with retryable errors are taken out of rotation
// by a circuit breaker until the recovery timeout has passed.
type Synthesizer struct {
	synthesizers []provider.Synthesizer
	stats        []*router.UpstreamStats

	failureThreshold int
	recoveryTimeout  time.Duration
}

func NewSynthesizer(synthesizers ...provider.Synthesizer) (*Synthesizer, error) {
	if len(synthesizers) == 0 {
		return nil, errors.New("at least one synthesizer is required")
	}

	stats := make([]*router.UpstreamStats, len(synthesizers))
	for i := range stats {
		stats[i] = router.NewUpstreamStats()
	}

	return &Synthesizer{
		synthesizers:     synthesizers,
		stats:            stats,
		failureThreshold: router.DefaultFailureThreshold,
		recoveryTimeout:  router.DefaultRecoveryTimeout,
	}, nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, input string, options *provider.SynthesizeOptions) (*provider.Synthesis, error) {
	index := s.selectUpstream()

	stats := s.stats[index]

	stats.AddInflight(1)
	defer stats.AddInflight(-1)

	start := time.Now()

	result, err := s.synthesizers[index].Synthesize(ctx, input, options)

	if err == nil {
		stats.RecordSuccess(time.Since(start), router.DefaultLatencyAlpha)
		return result, nil
	}

	// only upstream health counts against the circuit
	if ctx.Err() == nil {
		if perr := provider.AsError(err); perr.Kind.Retryable() {
			stats.RecordFailure(s.failureThreshold)
		}
	}

	return nil, err
}

// Metrics returns the current state of every upstream, in configuration order
func (s *Synthesizer) Metrics() []router.Metrics {
	result := make([]router.Metrics, len(s.stats))

	for i, stat := range s.stats {
		result[i] = stat.Metrics()
	}

	return result
}

// selectUpstream randomly selects from available (healthy) upstreams
func (s *Synthesizer) selectUpstream() int {
	candidates := make([]int, 0, len(s.synthesizers))

	for i, stat := range s.stats {
		if stat.IsAvailable(s.recoveryTimeout) {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		return s.fallbackUpstream()
	}

	return candidates[rand.Intn(len(candidates))]
}

// fallbackUpstream returns the least recently failed upstream when all circuits are open
func (s *Synthesizer) fallbackUpstream() int {
	bestIndex := 0

	var oldestFailure time.Time

	for i, stat := range s.stats {
		lastFailure := stat.LastFailure()

		if i == 0 || lastFailure.Before(oldestFailure) {
			oldestFailure = lastFailure
			bestIndex = i
		}
	}

	s.stats[bestIndex].SetHalfOpen()

	return bestIndex
}
