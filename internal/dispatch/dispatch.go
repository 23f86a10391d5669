// Package dispatch implements relay's request-dispatch core: the middleware
// chain that threads a request and its per-request context through an ordered
// list of interceptors to a terminal handler, and the response model —
// including streamed bodies — that flows back out.
//
// A chain is built once and reused for every request:
//
//	handler := dispatch.Chain(
//	    middleware.Recovery(logger),
//	    middleware.RequestLog(logger, logOpts),
//	    middleware.CORS(corsOpts),
//	)(terminal)
//
// The composed handler holds no per-request state and is safe for concurrent
// dispatch. Per-request state lives in the Context value created by the
// caller for each dispatch; cancellation rides the standard context.Context
// threaded alongside it.
package dispatch

import (
	"context"
	"io"
)

// Request describes one inbound request. It is immutable by convention:
// middleware read it but do not own it, and no middleware should mutate it
// after dispatch begins.
type Request struct {
	Method string
	Path   string
	Header Header
	// Body is an opaque stream handle for the request body. May be nil for
	// bodyless requests.
	Body io.Reader
}

// Context carries mutable per-request state through the chain. Exactly one
// Context exists per in-flight request; it is created by the dispatching
// caller, threaded by reference through every middleware, and discarded when
// the response has been produced. It is not safe for concurrent use.
type Context struct {
	// Endpoint is the matched route pattern, or nil when no route matched.
	// The not-found path still dispatches through the full chain, so
	// middleware must tolerate a nil Endpoint.
	Endpoint *string

	values map[string]any
}

// NewContext creates an empty per-request Context.
func NewContext() *Context {
	return &Context{}
}

// Set stores an application-defined extension value under key.
func (c *Context) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = value
}

// Value returns the extension value stored under key, if any.
func (c *Context) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Handler produces a response for one request. Terminal handlers are supplied
// by the routing layer; the composed chain is itself a Handler.
type Handler func(ctx context.Context, req *Request, rc *Context) (*Response, error)

// Middleware wraps a Handler, receiving the rest of the chain as next. A
// middleware may call next exactly once (the well-behaved case), or not at
// all to short-circuit; calling it more than once per request is a contract
// violation with undefined behavior. Errors returned by next must propagate
// unchanged unless the middleware deliberately catches and transforms them —
// cancellation errors in particular must never be swallowed in passing.
type Middleware func(next Handler) Handler

// Chain composes middleware into a single Middleware. The first argument
// becomes the outermost layer: it sees the request first and the response
// last. This matches the reading order:
//
//	Chain(Recovery, RequestLog, CORS)(handler)
//
// is equivalent to:
//
//	Recovery(RequestLog(CORS(handler)))
//
// Composition is a build-time right fold; the returned Handler closes over
// the middleware list and terminal handler only, so it is immutable and may
// be invoked concurrently for independent requests.
func Chain(middlewares ...Middleware) Middleware {
	return func(terminal Handler) Handler {
		h := terminal
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		return h
	}
}

// NotFoundHandler is the terminal handler dispatched when no route matched.
// It fails with a not-found domain error so that middleware observe and may
// rewrite the unmatched case symmetrically with any other error.
func NotFoundHandler(context.Context, *Request, *Context) (*Response, error) {
	return nil, ErrRouteNotFound
}

// MethodNotAllowedHandler is the terminal handler dispatched when the path
// matched a route but the method did not.
func MethodNotAllowedHandler(context.Context, *Request, *Context) (*Response, error) {
	return nil, ErrMethodNotAllowed
}
