// Package response provides helpers for writing consistent HTTP responses.
//
// Browsers get HTML pages; API clients that ask for JSON (Accept:
// application/json) get the same information as JSON. Rather than
// repeating the header/status/body dance in every handler, we
// centralise it here.
package response

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
)

// Response is the standard envelope returned for JSON error cases.
//
//	{ "status": "error", "error": "Missing required field: name" }
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteHTML writes an already rendered page with the given status code.
func WriteHTML(w http.ResponseWriter, status int, page string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := io.WriteString(w, page)
	return err
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// WantsJSON reports whether the client prefers JSON over HTML. Only an
// explicit application/json in Accept counts; browsers send text/html.
func WantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}
