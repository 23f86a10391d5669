package middleware

import (
	"context"
	"errors"

	"github.com/jsamuelsen11/relay/internal/dispatch"
)

// RewriteError returns middleware that intercepts domain errors carrying the
// given status and substitutes whatever replace returns — a different domain
// error, or nil with a synthesized response. Every other error kind,
// cancellation included, propagates unchanged. This is the hook for
// customizing standard error responses, e.g. rewriting the stock not-found
// message:
//
//	middleware.RewriteError(http.StatusNotFound,
//	    func(*dispatch.Error) (*dispatch.Response, error) {
//	        return nil, dispatch.NewError(http.StatusNotFound, "no such thing here")
//	    })
func RewriteError(status int, replace func(*dispatch.Error) (*dispatch.Response, error)) dispatch.Middleware {
	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, req *dispatch.Request, rc *dispatch.Context) (*dispatch.Response, error) {
			resp, err := next(ctx, req, rc)
			if err == nil || !dispatch.IsStatus(err, status) {
				return resp, err
			}

			// IsStatus matched, so the assertion is guaranteed to hold.
			var derr *dispatch.Error
			_ = errors.As(err, &derr)
			return replace(derr)
		}
	}
}
