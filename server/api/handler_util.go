package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/adrianliechti/narrator/pkg/audio"
	"github.com/adrianliechti/narrator/pkg/pipeline"
)

const maxBodySize = 1 << 20

func readRequest(w http.ResponseWriter, r *http.Request) (*GenerateRequest, error) {
	var req GenerateRequest

	body := http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no JSON data provided")
		}

		return nil, err
	}

	return &req, nil
}

func writeAudio(w http.ResponseWriter, requestID string, result *pipeline.Result, name string) {
	header := w.Header()

	header.Set("Content-Type", result.ContentType())
	header.Set("Content-Disposition", `attachment; filename="`+name+"."+string(result.Format)+`"`)

	header.Set("X-Request-ID", requestID)

	header.Set("X-Audio-Format", string(result.Format))
	header.Set("X-Audio-Size", strconv.Itoa(len(result.Audio)))

	header.Set("X-Chunks-Combined", strconv.Itoa(result.ChunkCount))
	header.Set("X-Original-Text-Length", strconv.Itoa(result.TextLength))

	header.Set("X-Requested-Format", string(result.RequestedFormat))
	header.Set("X-Effective-Format", string(result.Format))

	if n := len(result.Failures); n > 0 {
		header.Set("X-Chunks-Failed", strconv.Itoa(n))
	}

	w.Write(result.Audio)
}

func formatNames(formats []audio.Format) []string {
	result := make([]string, 0, len(formats))

	for _, f := range formats {
		result = append(result, string(f))
	}

	return result
}
