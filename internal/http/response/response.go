package response

import (
	"encoding/json"
	"net/http"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/pkg/logger"
)

// envelope is the wire shape every endpoint responds with: a status word
// plus either a data object keyed by resource name or an error message.
type envelope struct {
	Status  string         `json:"status"`
	Token   string         `json:"token,omitempty"`
	Results *int           `json:"results,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Fields  []string       `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "err", err)
	}
}

// Data writes a success envelope with a single named document.
func Data(w http.ResponseWriter, status int, name string, doc any) {
	writeJSON(w, status, envelope{
		Status: "success",
		Data:   map[string]any{name: doc},
	})
}

// List writes a success envelope with a result count and a named collection.
func List(w http.ResponseWriter, status int, name string, docs any, count int) {
	writeJSON(w, status, envelope{
		Status:  "success",
		Results: &count,
		Data:    map[string]any{name: docs},
	})
}

// Auth writes a success envelope carrying a fresh access token next to the
// user document.
func Auth(w http.ResponseWriter, status int, token string, user any) {
	writeJSON(w, status, envelope{
		Status: "success",
		Token:  token,
		Data:   map[string]any{"user": user},
	})
}

// NoContent writes the deletion envelope: 204 with a null data payload.
func NoContent(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNoContent)
}

// Error maps a domain error onto the failure envelope. Client errors
// (4xx) use status "fail" and carry the original message; anything
// non-operational is logged in full and replaced with a generic message.
func Error(w http.ResponseWriter, err error) {
	de := domain.As(err)

	status := "error"
	if de.Status >= 400 && de.Status < 500 {
		status = "fail"
	}

	msg := de.Message
	if !de.Operational {
		logger.Error("unexpected error", "err", err, "status", de.Status)
		msg = "Something went wrong!"
	}

	writeJSON(w, de.Status, envelope{
		Status:  status,
		Message: msg,
		Fields:  de.Fields,
	})
}

// NotFoundRoute is the catch-all for unknown paths.
func NotFoundRoute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{
		Status:  "fail",
		Message: "Can't find " + r.URL.Path + " on this server!",
	})
}
