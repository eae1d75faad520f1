package stream

import (
	"context"
	"time"
)

type EventType string

const (
	EventStarted    EventType = "stream_started"
	EventProgress   EventType = "stream_progress"
	EventAudioChunk EventType = "audio_chunk"
	EventComplete   EventType = "stream_complete"
	EventError      EventType = "stream_error"
	EventCancelled  EventType = "stream_cancelled"
)

type Event struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`

	Progress        float64 `json:"progress,omitempty"`
	ChunksCompleted int     `json:"chunks_completed,omitempty"`
	TotalChunks     int     `json:"total_chunks,omitempty"`

	ChunkIndex     *int    `json:"chunk_index,omitempty"`
	AudioData      []byte  `json:"audio_data,omitempty"`
	Format         string  `json:"format,omitempty"`
	ChunkText      string  `json:"chunk_text,omitempty"`
	GenerationTime float64 `json:"generation_time,omitempty"`

	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Sink receives the events of a session. Send is only ever called from the
// session's writer goroutine.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Send(ctx context.Context, e Event) error {
	return f(ctx, e)
}

type State int

const (
	StateIdle State = iota
	StateStarted
	StateStreaming
	StateCompleted
	StateErrored
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarted:
		return "started"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	}

	return "unknown"
}

func (s State) Done() bool {
	return s >= StateCompleted
}
