package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/adrianliechti/narrator/pkg/governor"
	"github.com/adrianliechti/narrator/pkg/pipeline"
	"github.com/adrianliechti/narrator/pkg/provider"
)

const (
	CodeSystemBusy    = "system_busy"
	CodeUpstreamError = "upstream_error"
	CodeInternalError = "internal_error"
)

func WriteJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}

func WriteError(w http.ResponseWriter, code int, err error) {
	writeError(w, code, "", err.Error())
}

// WritePipelineError maps errors of the synthesis pipeline to a status code
// and an error code.
func WritePipelineError(w http.ResponseWriter, err error) {
	var verr *pipeline.ValidationError
	var rejected *governor.RejectedError
	var uerr *pipeline.UpstreamError
	var perr *provider.Error

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Code, verr.Message)

	case errors.As(err, &rejected):
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusTooManyRequests, CodeSystemBusy, rejected.Error())

	case errors.As(err, &uerr), errors.As(err, &perr):
		writeError(w, http.StatusBadGateway, CodeUpstreamError, err.Error())

	default:
		writeError(w, http.StatusInternalServerError, CodeInternalError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorType := "invalid_request"

	switch status {
	case http.StatusUnauthorized:
		errorType = "authentication_error"

	case http.StatusTooManyRequests:
		errorType = "rate_limit"
	}

	if status >= 500 {
		errorType = "server_error"
	}

	resp := ErrorResponse{
		Error: Error{
			Type:    errorType,
			Code:    code,
			Message: message,
		},
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(resp)
}

func WriteEventData(w http.ResponseWriter, v any) error {
	rc := http.NewResponseController(w)

	var data bytes.Buffer

	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	enc.Encode(v)

	event := strings.TrimSpace(data.String())

	if _, err := fmt.Fprintf(w, "data: %s\n\n", event); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	return nil
}
