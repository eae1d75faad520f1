package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate-combined", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		require.Equal(t, "Long text.", req.Text)
		require.Equal(t, "nova", req.Voice)

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("X-Request-ID", "req-1")
		w.Header().Set("X-Audio-Format", "mp3")
		w.Header().Set("X-Requested-Format", "mp3")
		w.Header().Set("X-Chunks-Combined", "3")
		w.Header().Set("X-Chunks-Failed", "1")

		w.Write([]byte("ID3"))
	}))

	defer server.Close()

	c := New(server.URL+"/", WithToken("secret"))

	result, err := c.Generations.New(context.Background(), GenerateRequest{
		Text:  "Long text.",
		Voice: "nova",
	})

	require.NoError(t, err)

	require.Equal(t, "req-1", result.ID)
	require.Equal(t, []byte("ID3"), result.Content)
	require.Equal(t, "mp3", result.Format)
	require.Equal(t, 3, result.Chunks)
	require.Equal(t, 1, result.FailedChunks)
}

func TestGenerateError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit", "code": "system_busy", "message": "system busy: queue is full (100/100)"}}`))
	}))

	defer server.Close()

	c := New(server.URL)

	_, err := c.Generations.New(context.Background(), GenerateRequest{Text: "Hello."})

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))

	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Equal(t, "system_busy", apiErr.Code)
}

func TestValidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/validate-text", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text_length": 2500, "max_length": 1000, "is_valid": false, "needs_splitting": true, "suggested_chunks": 3}`))
	}))

	defer server.Close()

	c := New(server.URL)

	result, err := c.Generations.Validate(context.Background(), GenerateRequest{Text: "Hello."})
	require.NoError(t, err)

	require.True(t, result.NeedsSplitting)
	require.Equal(t, 3, result.Chunks)
}

func TestModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object": "list", "data": [{"id": "tts-1"}, {"id": "gpt-4o-mini-tts"}]}`))
	}))

	defer server.Close()

	c := New(server.URL)

	models, err := c.Models.List(context.Background())
	require.NoError(t, err)

	require.Len(t, models, 2)
	require.Equal(t, "tts-1", models[0].ID)
}

func TestSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/speech", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		require.Equal(t, "tts-1", body["model"])
		require.Equal(t, "Hello", body["input"])

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3"))
	}))

	defer server.Close()

	c := New(server.URL)

	result, err := c.Syntheses.New(context.Background(), SynthesizeRequest{
		Input: "Hello",

		SynthesizeOptions: SynthesizeOptions{
			Voice:  "alloy",
			Format: "mp3",
		},
	})

	require.NoError(t, err)

	require.Equal(t, []byte("ID3"), result.Content)
}
