package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/relay/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/relay/internal/dispatch"
)

// NewRouter creates the HTTP handler with all routes registered. The
// middleware list is composed into a single chain once, here — requests
// then share the immutable composed handler. The not-found path dispatches
// through the same chain to dispatch.NotFoundHandler, so middleware observe
// unmatched requests symmetrically with any other error.
func NewRouter(
	demoHandler *handlers.DemoHandler,
	healthHandler *handlers.HealthHandler,
	middlewares ...dispatch.Middleware,
) http.Handler {
	chain := dispatch.Chain(middlewares...)
	r := chi.NewRouter()

	mount := func(method, pattern string, h dispatch.Handler) {
		r.Method(method, pattern, Bridge(chain(h)))
	}

	// Health endpoints.
	mount(http.MethodGet, "/health/live", healthHandler.Liveness)
	mount(http.MethodGet, "/health/ready", healthHandler.Readiness)

	// Demo endpoints.
	mount(http.MethodPost, "/echo", demoHandler.Echo)
	mount(http.MethodGet, "/stream", demoHandler.Stream)
	mount(http.MethodGet, "/proxy", demoHandler.Proxy)

	// Preflights never reach a terminal handler; route them through the
	// chain so the CORS middleware can answer. MethodNotAllowed covers
	// OPTIONS on paths that match a route with a different method.
	r.MethodFunc(http.MethodOptions, "/*", Bridge(chain(dispatch.NotFoundHandler)).ServeHTTP)
	r.MethodNotAllowed(Bridge(chain(dispatch.MethodNotAllowedHandler)).ServeHTTP)

	r.NotFound(Bridge(chain(dispatch.NotFoundHandler)).ServeHTTP)

	return r
}
