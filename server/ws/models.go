package ws

import (
	"github.com/adrianliechti/narrator/pkg/pipeline"
	"github.com/adrianliechti/narrator/pkg/provider"
)

const (
	MessageGenerate = "generate_stream"
	MessageCancel   = "cancel_stream"
	MessagePing     = "ping"
)

// Message is sent by the client.
type Message struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`

	Text  string `json:"text,omitempty"`
	Voice string `json:"voice,omitempty"`

	Format       string `json:"format,omitempty"`
	Instructions string `json:"instructions,omitempty"`

	Speed *float32 `json:"speed,omitempty"`

	ChunkSize     int   `json:"chunk_size,omitempty"`
	PreserveWords *bool `json:"preserve_words,omitempty"`
}

func (m *Message) Input() pipeline.Input {
	voice := m.Voice

	if voice == "" {
		voice = provider.DefaultVoice
	}

	return pipeline.Input{
		Text:  m.Text,
		Voice: voice,

		Format:       m.Format,
		Instructions: m.Instructions,

		Speed: m.Speed,

		MaxLength:     m.ChunkSize,
		PreserveWords: m.PreserveWords,
	}
}

type Connected struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

type Pong struct {
	Type string `json:"type"`
}
