package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adrianliechti/narrator/pkg/provider"

	"github.com/stretchr/testify/require"
)

func TestSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/audio/speech", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		require.Equal(t, "tts-1", body["model"])
		require.Equal(t, "Hello", body["input"])
		require.Equal(t, "nova", body["voice"])
		require.Equal(t, "wav", body["response_format"])
		require.Equal(t, "cheerful", body["instructions"])

		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("RIFF"))
	}))

	defer server.Close()

	s, err := NewSynthesizer(server.URL+"/v1", "tts-1", WithToken("test-token"))
	require.NoError(t, err)

	result, err := s.Synthesize(context.Background(), "Hello", &provider.SynthesizeOptions{
		Voice:        "nova",
		Format:       "flac",
		Instructions: "cheerful",
	})

	require.NoError(t, err)

	require.Equal(t, []byte("RIFF"), result.Content)
	require.Equal(t, "audio/wav", result.ContentType)
	require.Equal(t, "tts-1", result.Model)
}

func TestSynthesizeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "4")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit reached", "type": "requests"}}`))
	}))

	defer server.Close()

	s, err := NewSynthesizer(server.URL, "tts-1")
	require.NoError(t, err)

	_, err = s.Synthesize(context.Background(), "Hello", nil)

	var perr *provider.Error
	require.True(t, errors.As(err, &perr))

	require.Equal(t, provider.ErrorRateLimited, perr.Kind)
	require.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	require.Equal(t, "4s", perr.RetryAfter.String())
}
