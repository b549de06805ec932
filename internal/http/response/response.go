// Package response writes the API's JSON envelope. Every body carries a
// success flag so clients can branch without inspecting status codes.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(r.Context(), "write response", "error", err)
	}
}

// JSON writes a success envelope with a data payload.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, r, status, envelope{Success: true, Data: data})
}

// Message writes a success envelope carrying only a message.
func Message(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, r, status, envelope{Success: true, Message: message})
}

// MessageData writes a success envelope with both a message and a payload.
func MessageData(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	write(w, r, status, envelope{Success: true, Message: message, Data: data})
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, r, status, envelope{Success: false, Message: message})
}

// ValidationError writes a failure envelope listing individual field errors.
func ValidationError(w http.ResponseWriter, r *http.Request, fieldErrors []string) {
	write(w, r, http.StatusBadRequest, envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  fieldErrors,
	})
}
