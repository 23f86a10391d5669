// Package middleware provides concrete middleware for the dispatch chain.
//
// A typical pipeline:
//
//	Recovery → Tracing → RequestLog → CORS → Handler
//
// Each middleware is a dispatch.Middleware and composes with dispatch.Chain
// or the dispatch builder expressions.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jsamuelsen11/relay/internal/dispatch"
)

// CORSOptions configures the cross-origin policy middleware. The policy is
// fixed at build time; nothing here is evaluated per request beyond reading
// the request's Origin header.
type CORSOptions struct {
	// Origin is the literal allowed origin. When empty (the default) the
	// request's Origin header is reflected back. Ignored when AnyOrigin is
	// set.
	Origin string
	// AnyOrigin allows every origin ("*").
	AnyOrigin bool
	// MirrorOrigin reflects the request's Origin header back even when a
	// literal Origin is configured.
	MirrorOrigin bool

	// AllowedHeaders and AllowedMethods are reported to preflight requests
	// comma-space-joined, in configured order.
	AllowedHeaders []string
	AllowedMethods []string

	AllowCredentials bool
	ExposedHeaders   []string
	// MaxAge is reported to preflight requests in whole seconds.
	MaxAge time.Duration
}

// CORS returns middleware enforcing a cross-origin policy.
//
// Requests without an Origin header pass through untouched. OPTIONS requests
// carrying an Origin are preflights: the middleware short-circuits — next is
// never called — and synthesizes a 204 response carrying the negotiated
// headers. All other requests dispatch normally and the policy headers are
// attached to whatever response the rest of the chain produced.
func CORS(opts CORSOptions) dispatch.Middleware {
	allowHeaders := strings.Join(opts.AllowedHeaders, ", ")
	allowMethods := strings.Join(opts.AllowedMethods, ", ")
	exposeHeaders := strings.Join(opts.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(int(opts.MaxAge.Seconds()))

	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, req *dispatch.Request, rc *dispatch.Context) (*dispatch.Response, error) {
			origin := req.Header.Get("Origin")
			if origin == "" {
				return next(ctx, req, rc)
			}

			if req.Method == http.MethodOptions {
				resp := dispatch.NewResponse(http.StatusNoContent)
				resp.Header.Set("Access-Control-Allow-Origin", opts.allowOrigin(origin))
				if allowHeaders != "" {
					resp.Header.Set("Access-Control-Allow-Headers", allowHeaders)
				}
				if allowMethods != "" {
					resp.Header.Set("Access-Control-Allow-Methods", allowMethods)
				}
				if opts.AllowCredentials {
					resp.Header.Set("Access-Control-Allow-Credentials", "true")
				}
				if opts.MaxAge > 0 {
					resp.Header.Set("Access-Control-Max-Age", maxAge)
				}
				if exposeHeaders != "" {
					resp.Header.Set("Access-Control-Expose-Headers", exposeHeaders)
				}
				return resp, nil
			}

			resp, err := next(ctx, req, rc)
			if err != nil {
				return nil, err
			}

			resp.Header.Set("Access-Control-Allow-Origin", opts.allowOrigin(origin))
			if opts.AllowCredentials {
				resp.Header.Set("Access-Control-Allow-Credentials", "true")
			}
			if exposeHeaders != "" {
				resp.Header.Set("Access-Control-Expose-Headers", exposeHeaders)
			}
			return resp, nil
		}
	}
}

// allowOrigin resolves the Access-Control-Allow-Origin value for a request
// origin under this policy.
func (o *CORSOptions) allowOrigin(requestOrigin string) string {
	switch {
	case o.AnyOrigin:
		return "*"
	case o.MirrorOrigin, o.Origin == "":
		return requestOrigin
	default:
		return o.Origin
	}
}
