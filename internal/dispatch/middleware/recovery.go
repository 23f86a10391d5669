package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jsamuelsen11/relay/internal/dispatch"
)

// Recovery returns middleware that recovers from panics downstream in the
// chain. The panic value and stack trace are logged but never exposed: the
// panic is converted into a generic 500 domain error that propagates like
// any other error, so outer middleware observe it normally.
func Recovery(logger *slog.Logger) dispatch.Middleware {
	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, req *dispatch.Request, rc *dispatch.Context) (resp *dispatch.Response, err error) {
			defer func() {
				if v := recover(); v != nil {
					logger.ErrorContext(ctx, "panic recovered",
						slog.String("panic", fmt.Sprint(v)),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", req.Method),
						slog.String("path", req.Path),
					)
					resp = nil
					err = dispatch.NewError(http.StatusInternalServerError, "internal server error")
				}
			}()

			return next(ctx, req, rc)
		}
	}
}
