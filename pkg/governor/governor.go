package governor

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxQueueSize = 100
	DefaultConcurrency  = 4
)

// RejectedError is returned when admission would exceed the queue size.
type RejectedError struct {
	Depth int
	Max   int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("system busy: queue is full (%d/%d)", e.Depth, e.Max)
}

type Status struct {
	Active int `json:"active"`
	Queued int `json:"queued"`

	// Waiting counts queued jobs blocked in Acquire.
	Waiting int `json:"waiting"`

	MaxQueueSize int `json:"max_queue_size"`
	Concurrency  int `json:"concurrency"`
}

// Governor bounds the number of admitted jobs and the number of jobs
// running at the same time. Both limits are shared by all requests.
type Governor struct {
	mu sync.Mutex

	maxQueueSize int
	concurrency  int

	admitted int
	active   int
	waiting  int

	sem *semaphore.Weighted
}

func New(maxQueueSize, concurrency int) *Governor {
	if maxQueueSize < 1 {
		maxQueueSize = DefaultMaxQueueSize
	}

	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	return &Governor{
		maxQueueSize: maxQueueSize,
		concurrency:  concurrency,

		sem: semaphore.NewWeighted(int64(concurrency)),
	}
}

// Admit reserves a place in the queue. It never blocks.
func (g *Governor) Admit() (*Slot, error) {
	slots, err := g.AdmitN(1)

	if err != nil {
		return nil, err
	}

	return slots[0], nil
}

// AdmitN reserves n places at once, or none if they do not all fit.
func (g *Governor) AdmitN(n int) ([]*Slot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.admitted+n > g.maxQueueSize {
		return nil, &RejectedError{
			Depth: g.admitted,
			Max:   g.maxQueueSize,
		}
	}

	g.admitted += n

	slots := make([]*Slot, n)

	for i := range slots {
		slots[i] = &Slot{governor: g}
	}

	return slots, nil
}

// Status reports the current occupancy.
func (g *Governor) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Status{
		Active: g.active,
		Queued: g.admitted - g.active,

		Waiting: g.waiting,

		MaxQueueSize: g.maxQueueSize,
		Concurrency:  g.concurrency,
	}
}

// Slot is an admitted job. It holds a queue place until released and a
// concurrency slot between Acquire and Release.
type Slot struct {
	governor *Governor

	acquired bool
	released bool
}

// Acquire waits for a concurrency slot. Waiters are served in the order
// they started waiting.
func (s *Slot) Acquire(ctx context.Context) error {
	g := s.governor

	g.mu.Lock()
	g.waiting++
	g.mu.Unlock()

	err := g.sem.Acquire(ctx, 1)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.waiting--

	if err != nil {
		return err
	}

	if s.released || s.acquired {
		g.sem.Release(1)
		return nil
	}

	s.acquired = true
	g.active++

	return nil
}

// Release frees the queue place and, if acquired, the concurrency slot.
// Calling it more than once has no effect.
func (s *Slot) Release() {
	g := s.governor

	g.mu.Lock()
	defer g.mu.Unlock()

	if s.released {
		return
	}

	s.released = true
	g.admitted--

	if s.acquired {
		g.active--
		g.sem.Release(1)
	}
}
