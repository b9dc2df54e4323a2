package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/opportunity-analyzer/internal/analysis"
)

// apiError is an error with a status code and a message safe to show clients.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

var (
	errNotFound         = &apiError{status: http.StatusNotFound, msg: "not found"}
	errMethodNotAllowed = &apiError{status: http.StatusMethodNotAllowed, msg: "method not allowed"}
	errInvalidBody      = &apiError{status: http.StatusBadRequest, msg: "invalid request body"}
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps err to an HTTP status and client message.
func statusFor(err error) (int, string) {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		return ae.status, ae.msg
	case errors.Is(err, analysis.ErrInvalidZipCode):
		return http.StatusBadRequest, analysis.ErrInvalidZipCode.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("server: request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}
