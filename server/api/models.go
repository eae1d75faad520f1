package api

import (
	"time"

	"github.com/adrianliechti/narrator/pkg/governor"
	"github.com/adrianliechti/narrator/pkg/pipeline"
	"github.com/adrianliechti/narrator/pkg/provider"
)

type GenerateRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`

	Format       string `json:"format,omitempty"`
	Instructions string `json:"instructions,omitempty"`

	Speed *float32 `json:"speed,omitempty"`

	MaxLength     int   `json:"max_length,omitempty"`
	PreserveWords *bool `json:"preserve_words,omitempty"`
}

func (r *GenerateRequest) Input() pipeline.Input {
	voice := r.Voice

	if voice == "" {
		voice = provider.DefaultVoice
	}

	return pipeline.Input{
		Text:  r.Text,
		Voice: voice,

		Format:       r.Format,
		Instructions: r.Instructions,

		Speed: r.Speed,

		MaxLength:     r.MaxLength,
		PreserveWords: r.PreserveWords,
	}
}

type ValidateResponse struct {
	TextLength int `json:"text_length"`
	MaxLength  int `json:"max_length"`

	Valid          bool `json:"is_valid"`
	NeedsSplitting bool `json:"needs_splitting"`

	Chunks  int      `json:"suggested_chunks"`
	Preview []string `json:"chunk_preview,omitempty"`

	// EstimatedDuration is the expected audio length in seconds.
	EstimatedDuration float64 `json:"estimated_duration"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type StatusResponse struct {
	Status string `json:"status"`

	Queue    QueueResponse `json:"queue"`
	Sessions int           `json:"sessions"`
	Streams  int           `json:"active_streams"`

	Formats    []string `json:"formats"`
	Transcoder bool     `json:"transcoder"`

	MaxLength int `json:"max_length"`
	MaxInput  int `json:"max_input"`

	AuthRequired bool `json:"api_key_required"`

	Timestamp time.Time `json:"timestamp"`
}

type QueueResponse struct {
	governor.Status

	Available int     `json:"available"`
	Load      float64 `json:"load"`
}

type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type VoiceList struct {
	Voices []Voice `json:"voices"`
	Count  int     `json:"count"`
}

type Format struct {
	ID          string `json:"id"`
	ContentType string `json:"content_type"`

	Available bool `json:"available"`
}

type FormatList struct {
	Formats []Format `json:"formats"`
	Count   int      `json:"count"`

	Transcoder bool `json:"transcoder"`
}
