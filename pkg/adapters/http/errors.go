package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/session"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Node  string `json:"node,omitempty"`
	Step  int    `json:"step,omitempty"`
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrThreadNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStepLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCancelled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidUpdate), errors.Is(err, domain.ErrThreadIDRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCheckpointConflict):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoStore):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var se *domain.StepError
	if errors.As(err, &se) {
		resp.Node = se.Node
		resp.Step = se.Step
	}
	writeJSON(w, StatusFor(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
