package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen11/relay/internal/dispatch"
)

// problem is an RFC 9457 Problem Details response body.
type problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// writeProblem converts an uncaught dispatch error into an RFC 9457 problem
// response. Domain errors keep their carried status and message; anything
// else maps to 500 with a generic detail so internals never leak.
// Cancellation gets a best-effort 499 — the client is usually gone by then.
func writeProblem(w http.ResponseWriter, r *http.Request, err error) {
	status := dispatch.StatusOf(err)

	detail := err.Error()
	if status == http.StatusInternalServerError && !dispatch.IsStatus(err, http.StatusInternalServerError) {
		detail = "internal server error"
	}

	resp := problem{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.RequestURI,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		slog.ErrorContext(r.Context(), "failed to encode problem response",
			slog.Any("error", encErr),
		)
	}
}
