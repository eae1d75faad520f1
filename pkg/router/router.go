package router

import (
	"sync"
	"sync/atomic"
	"time"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation
	CircuitOpen                         // Failing, rejecting requests
	CircuitHalfOpen                     // Testing if recovered
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	}

	return "closed"
}

// Default configuration values
const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second

	DefaultLatencyAlpha = 0.2
)

// UpstreamStats tracks health and latency of a single upstream synthesizer
type UpstreamStats struct {
	mu sync.RWMutex

	avgLatency    time.Duration
	totalRequests int64
	totalFailures int64

	inflight atomic.Int64

	state               CircuitState
	consecutiveFailures int
	lastFailure         time.Time
}

// Metrics is a point in time copy of UpstreamStats
type Metrics struct {
	State CircuitState

	AvgLatency time.Duration

	TotalRequests int64
	TotalFailures int64

	Inflight int64
}

func NewUpstreamStats() *UpstreamStats {
	return &UpstreamStats{
		state:      CircuitClosed,
		avgLatency: time.Second,
	}
}

// IsAvailable checks if the upstream accepts requests.
// An open circuit transitions to half-open once the recovery timeout has passed.
func (s *UpstreamStats) IsAvailable(recoveryTimeout time.Duration) bool {
	s.mu.RLock()
	state := s.state
	lastFailure := s.lastFailure
	s.mu.RUnlock()

	switch state {
	case CircuitOpen:
		if time.Since(lastFailure) >= recoveryTimeout {
			s.mu.Lock()
			if s.state == CircuitOpen {
				s.state = CircuitHalfOpen
			}
			s.mu.Unlock()
			return true
		}
		return false

	case CircuitHalfOpen:
		// single trial request
		return s.inflight.Load() == 0

	default:
		return true
	}
}

func (s *UpstreamStats) Metrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Metrics{
		State: s.state,

		AvgLatency: s.avgLatency,

		TotalRequests: s.totalRequests,
		TotalFailures: s.totalFailures,

		Inflight: s.inflight.Load(),
	}
}

// RecordSuccess updates stats after a successful request
func (s *UpstreamStats) RecordSuccess(latency time.Duration, latencyAlpha float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	s.consecutiveFailures = 0

	if s.totalRequests == 1 {
		s.avgLatency = latency
	} else {
		// EMA: new_avg = alpha * new_value + (1 - alpha) * old_avg
		newAvg := float64(latency)*latencyAlpha + float64(s.avgLatency)*(1-latencyAlpha)
		s.avgLatency = time.Duration(newAvg)
	}

	if s.state == CircuitHalfOpen {
		s.state = CircuitClosed
	}
}

// RecordFailure updates stats after a failed request
func (s *UpstreamStats) RecordFailure(failureThreshold int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	s.totalFailures++
	s.consecutiveFailures++
	s.lastFailure = time.Now()

	if s.state == CircuitHalfOpen || s.consecutiveFailures >= failureThreshold {
		s.state = CircuitOpen
	}
}

func (s *UpstreamStats) LastFailure() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFailure
}

func (s *UpstreamStats) SetHalfOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = CircuitHalfOpen
}

// AddInflight increments the inflight counter and returns the new value
func (s *UpstreamStats) AddInflight(delta int64) int64 {
	return s.inflight.Add(delta)
}
