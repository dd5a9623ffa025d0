package web

// errors.go renders every failure the same way: the technical error is
// logged with the request ID, and the client gets the coded user message
// from core.MapError as JSON.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/csvmatrix/internal/core"
	"github.com/JonMunkholm/csvmatrix/internal/logging"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// requestError is a problem with the request itself (bad query parameter).
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

// respondError logs err and writes its mapped user message with the status
// from statusFor.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var msg core.UserMessage
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		msg = core.UserMessage{Message: reqErr.msg, Action: "Fix the request and try again", Code: "REQ001"}
	} else {
		msg = core.MapError(err)
	}

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "error", err, "code", msg.Code)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err, "code", msg.Code)
	}

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "5")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor maps an error onto an HTTP status code.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var reqErr *requestError

	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyIngests):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrMalformedRow), errors.Is(err, core.ErrNumericConversion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnsupportedEncoding):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrFileOpen), core.MapError(err).Code == "FILE003":
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this.
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v as JSON with status 200.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
