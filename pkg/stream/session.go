package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/adrianliechti/narrator/pkg/governor"
	"github.com/adrianliechti/narrator/pkg/pipeline"
	"github.com/adrianliechti/narrator/pkg/text"

	"github.com/google/uuid"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrRequestActive = errors.New("request already active")
)

const previewLength = 100

// Session streams synthesis results for one client. Events of all requests
// are written by a single goroutine to every sink, in the order they were
// produced.
type Session struct {
	ID string

	pipeline *pipeline.Pipeline
	sinks    []Sink

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	requests map[string]*request

	wg     sync.WaitGroup
	events chan Event
	done   chan struct{}

	logger *slog.Logger
}

type request struct {
	state  State
	cancel context.CancelFunc
}

func NewSession(p *pipeline.Pipeline, logger *slog.Logger, sinks ...Sink) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ID: uuid.NewString(),

		pipeline: p,
		sinks:    sinks,

		ctx:    ctx,
		cancel: cancel,

		requests: make(map[string]*request),

		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}

	s.logger = logger.With("session", s.ID)

	go s.write()

	return s
}

// Start begins streaming in for requestID and returns the request id, which
// is generated when empty. All outcomes, including validation and admission
// failures, are reported as events.
func (s *Session) Start(ctx context.Context, requestID string, in pipeline.Input) (string, error) {
	if requestID == "" {
		requestID = uuid.NewString()
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}

	if r, ok := s.requests[requestID]; ok && !r.state.Done() {
		s.mu.Unlock()
		return "", ErrRequestActive
	}

	runCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)

	s.requests[requestID] = &request{
		state:  StateIdle,
		cancel: cancel,
	}

	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		defer stop()
		defer cancel()

		s.run(runCtx, requestID, in)
	}()

	return requestID, nil
}

// Cancel stops event emission for requestID. Upstream calls already in
// flight run to completion; chunks not yet started are skipped.
func (s *Session) Cancel(requestID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]

	if !ok || r.state.Done() {
		return false
	}

	r.cancel()

	return true
}

// State reports the state of requestID.
func (s *Session) State(requestID string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]

	if !ok {
		return StateIdle, false
	}

	return r.state, true
}

// Active counts requests that have not finished yet.
func (s *Session) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, r := range s.requests {
		if !r.state.Done() {
			n++
		}
	}

	return n
}

// Wait blocks until every started request has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels all requests, waits for them and flushes pending events.
func (s *Session) Close() {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}

	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	close(s.events)
	<-s.done
}

func (s *Session) run(ctx context.Context, requestID string, in pipeline.Input) {
	r, err := s.pipeline.Prepare(in)

	if err != nil {
		s.fail(requestID, err)
		return
	}

	updates, err := s.pipeline.Stream(ctx, r)

	if err != nil {
		s.fail(requestID, err)
		return
	}

	s.transition(requestID, StateStarted)
	s.emit(Event{Type: EventStarted, RequestID: requestID, TotalChunks: len(r.Chunks)})

	s.logger.Info("stream started", "request", requestID, "chunks", len(r.Chunks), "voice", r.Voice, "format", r.Format)

	for {
		var u pipeline.Update
		var ok bool

		select {
		case <-ctx.Done():
			s.cancelled(requestID)
			return

		case u, ok = <-updates:
		}

		if !ok {
			break
		}

		if ctx.Err() != nil {
			s.cancelled(requestID)
			return
		}

		s.transition(requestID, StateStreaming)

		if u.Chunk != nil {
			s.emit(Event{
				Type:      EventAudioChunk,
				RequestID: requestID,

				ChunkIndex:  &u.Chunk.Index,
				TotalChunks: u.Total,

				AudioData: u.Chunk.Audio,
				Format:    string(u.Chunk.Format),
				ChunkText: text.Preview(u.Chunk.Text, previewLength),

				GenerationTime: u.Chunk.Elapsed.Seconds(),
			})
		}

		if u.Failure != nil {
			s.emit(Event{
				Type:      EventError,
				RequestID: requestID,

				ChunkIndex:  &u.Failure.Index,
				TotalChunks: u.Total,

				Error: u.Failure.Err.Error(),
			})
		}

		s.emit(Event{
			Type:      EventProgress,
			RequestID: requestID,

			Progress:        u.Progress,
			ChunksCompleted: u.Completed,
			TotalChunks:     u.Total,
		})
	}

	s.transition(requestID, StateCompleted)
	s.emit(Event{Type: EventComplete, RequestID: requestID, TotalChunks: len(r.Chunks)})

	s.logger.Info("stream completed", "request", requestID, "chunks", len(r.Chunks))
}

func (s *Session) fail(requestID string, err error) {
	e := Event{
		Type:      EventError,
		RequestID: requestID,

		Error: err.Error(),
	}

	var verr *pipeline.ValidationError
	var rejected *governor.RejectedError

	switch {
	case errors.As(err, &verr):
		e.Code = verr.Code

	case errors.As(err, &rejected):
		e.Code = "system_busy"
	}

	s.logger.Warn("stream failed", "request", requestID, "error", err)

	s.transition(requestID, StateErrored)
	s.emit(e)
}

func (s *Session) cancelled(requestID string) {
	s.logger.Info("stream cancelled", "request", requestID)

	s.transition(requestID, StateCancelled)
	s.emit(Event{Type: EventCancelled, RequestID: requestID})
}

func (s *Session) transition(requestID string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.requests[requestID]; ok {
		r.state = state
	}
}

func (s *Session) emit(e Event) {
	e.Timestamp = time.Now()
	s.events <- e
}

func (s *Session) write() {
	defer close(s.done)

	for e := range s.events {
		for _, sink := range s.sinks {
			if err := sink.Send(context.Background(), e); err != nil {
				s.logger.Debug("dropping event", "type", e.Type, "request", e.RequestID, "error", err)
			}
		}
	}
}
