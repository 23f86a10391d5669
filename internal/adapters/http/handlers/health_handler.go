// Package handlers provides the terminal dispatch handlers mounted by the
// router: health probes and the demo endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jsamuelsen11/relay/internal/dispatch"
	"github.com/jsamuelsen11/relay/internal/ports"
)

const (
	statusOK       = "ok"
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// HealthHandler provides liveness and readiness terminal handlers.
type HealthHandler struct {
	registry ports.HealthRegistry
}

// NewHealthHandler creates a new HealthHandler with the given health
// registry.
func NewHealthHandler(registry ports.HealthRegistry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Liveness handles GET /health/live. Always returns 200 OK.
func (h *HealthHandler) Liveness(context.Context, *dispatch.Request, *dispatch.Context) (*dispatch.Response, error) {
	return jsonResponse(http.StatusOK, map[string]string{"status": statusOK})
}

// Readiness handles GET /health/ready. Returns 200 if all checks pass,
// 503 if any check fails.
func (h *HealthHandler) Readiness(ctx context.Context, _ *dispatch.Request, _ *dispatch.Context) (*dispatch.Response, error) {
	results := h.registry.CheckAll(ctx)

	checks := make(map[string]string, len(results))
	healthy := true
	for name, err := range results {
		if err != nil {
			checks[name] = err.Error()
			healthy = false
		} else {
			checks[name] = statusOK
		}
	}

	status := statusReady
	code := http.StatusOK
	if !healthy {
		status = statusNotReady
		code = http.StatusServiceUnavailable
	}

	return jsonResponse(code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// jsonResponse builds a materialized JSON response with the given status.
func jsonResponse(status int, v any) (*dispatch.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, dispatch.Errorf(http.StatusInternalServerError, "encoding response: %v", err)
	}

	resp := dispatch.NewResponse(status)
	resp.Header.Set("Content-Type", "application/json")
	resp.Body = dispatch.BytesBody(body)
	return resp, nil
}
