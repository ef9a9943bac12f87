// Package response writes JSON bodies and RFC 7807 problem documents.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeProblem = "application/problem+json"
)

// ErrorDetail is one field-level entry of a problem's errors list.
type ErrorDetail struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// ProblemDetails is an RFC 7807 problem document.
type ProblemDetails struct {
	Type     string        `json:"type,omitempty"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// Problem returns an about:blank problem titled with the standard text for status.
func Problem(status int, detail string) ProblemDetails {
	return ProblemDetails{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// WriteProblem writes p with its own status code.
func WriteProblem(w http.ResponseWriter, p ProblemDetails) {
	write(w, p.Status, contentTypeProblem, p)
}

// RespondError writes a problem with an explicit title.
func RespondError(w http.ResponseWriter, statusCode int, title string, detail string) {
	p := Problem(statusCode, detail)
	p.Title = title
	WriteProblem(w, p)
}

// RespondBadRequest writes a 400.
func RespondBadRequest(w http.ResponseWriter, detail string) {
	WriteProblem(w, Problem(http.StatusBadRequest, detail))
}

// RespondRequestEntityTooLarge writes the 413 sent by middleware.MaxBody.
func RespondRequestEntityTooLarge(w http.ResponseWriter) {
	WriteProblem(w, Problem(http.StatusRequestEntityTooLarge, "request body exceeds maximum allowed size"))
}

// RespondInternalServerError writes a 500.
func RespondInternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, Problem(http.StatusInternalServerError, detail))
}

// RespondBadGateway writes a 502 for a failed upstream model provider.
func RespondBadGateway(w http.ResponseWriter, detail string) {
	WriteProblem(w, Problem(http.StatusBadGateway, detail))
}

// RespondServiceUnavailable writes a 503 for a capability that is not configured.
func RespondServiceUnavailable(w http.ResponseWriter, detail string) {
	WriteProblem(w, Problem(http.StatusServiceUnavailable, detail))
}

// RespondJSON writes data as a plain JSON body.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	write(w, statusCode, contentTypeJSON, data)
}

func write(w http.ResponseWriter, status int, contentType string, body any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response body", "error", err, "status", status)
	}
}
