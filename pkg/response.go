package pkg

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
)

// APIResponse is the envelope every JSON endpoint answers with.
//
// Stack is only filled outside production; it carries the full wrapped
// error chain so a developer can see where a failure came from.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// debugErrors controls whether error responses include detail.
// Set once from main via SetDebugErrors.
var debugErrors atomic.Bool

// SetDebugErrors toggles the "stack" field on error responses.
// main calls it with true for every environment except production.
func SetDebugErrors(enabled bool) {
	debugErrors.Store(enabled)
}

// JSON writes a success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, APIResponse{Success: true, Data: data})
}

// Error writes a failure envelope with the status derived from the domain
// sentinel wrapped in err. Unknown errors become 500 and, in production,
// their text is replaced so internals never leak to clients.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)

	resp := APIResponse{Success: false, Error: err.Error()}
	if status == http.StatusInternalServerError && !debugErrors.Load() {
		resp.Error = "internal server error"
	}
	if debugErrors.Load() {
		resp.Stack = errorChain(err)
	}

	writeEnvelope(w, status, resp)
}

// ErrorWithMessage writes a failure envelope with an explicit status.
func ErrorWithMessage(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, APIResponse{Success: false, Error: message})
}

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrSignature):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeEnvelope(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// errorChain renders every layer of a wrapped error, outermost first.
func errorChain(err error) string {
	out := ""
	for e := err; e != nil; e = errors.Unwrap(e) {
		if out != "" {
			out += "\n  caused by: "
		}
		out += e.Error()
	}
	return out
}
