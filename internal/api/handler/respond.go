package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"clockwise.service/internal/core"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are logged
// and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classifyError(err)

	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, err.Error())
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	} else {
		log.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
	}

	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, core.ErrClassification):
		return http.StatusBadGateway, "CLASSIFICATION_FAILED", "The anomaly classifier could not evaluate this clocking event"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

// decodeJSON reads a JSON request body. Malformed bodies become validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &core.ValidationError{Field: "body", Reason: "is required"}
		}
		return &core.ValidationError{Field: "body", Reason: "must be valid JSON"}
	}
	return nil
}
