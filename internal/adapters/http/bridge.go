// Package http adapts the dispatch chain onto net/http: it converts inbound
// requests into dispatch values, drives streamed response bodies onto the
// wire, and owns routing and server lifecycle.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/relay/internal/dispatch"
	"github.com/jsamuelsen11/relay/internal/platform/logging"
)

// Bridge converts a dispatch.Handler into an http.Handler. For each request
// it builds the dispatch Request, creates the per-request Context (filling
// Endpoint from the chi route pattern when one matched), invokes the
// handler, and writes the result: ordered headers first, then the status,
// then the body driven chunk by chunk.
//
// An error from the handler becomes an RFC 9457 problem response with the
// error's mapped status. A failure while driving a streamed body cannot be
// converted anymore — headers are gone — so it is logged and the connection
// is left to net/http to tear down, which signals truncation to the client.
func Bridge(h dispatch.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := &dispatch.Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: fromHTTPHeader(r.Header),
			Body:   r.Body,
		}

		rc := dispatch.NewContext()
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				rc.Endpoint = &pattern
			}
		}

		resp, err := h(r.Context(), req, rc)
		if err != nil {
			writeProblem(w, r, err)
			return
		}

		for _, f := range resp.Header.Fields() {
			w.Header().Add(f.Name, f.Value)
		}
		w.WriteHeader(resp.Status)

		bw := &responseBodyWriter{w: w}
		if err := resp.Body.Drive(r.Context(), bw); err != nil {
			logging.FromContext(r.Context()).ErrorContext(r.Context(), "response body failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("error", err),
			)
		}
	})
}

// fromHTTPHeader flattens an http.Header map into the ordered dispatch
// representation. net/http does not preserve order across names, but values
// within a name keep their order, which is what the chain's append
// semantics rely on.
func fromHTTPHeader(h http.Header) dispatch.Header {
	var out dispatch.Header
	for name, vals := range h {
		for _, v := range vals {
			out.Add(name, v)
		}
	}
	return out
}

// responseBodyWriter drives a dispatch body onto the HTTP response, flushing
// after each chunk so streamed bodies reach the client incrementally.
type responseBodyWriter struct {
	w        http.ResponseWriter
	finished bool
}

func (bw *responseBodyWriter) Write(ctx context.Context, chunk []byte) error {
	if bw.finished {
		return dispatch.ErrWriteAfterFinish
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := bw.w.Write(chunk); err != nil {
		return err
	}
	if f, ok := bw.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (bw *responseBodyWriter) Finish(_ context.Context, trailers *dispatch.Header) error {
	if bw.finished {
		return dispatch.ErrWriteAfterFinish
	}
	bw.finished = true
	if trailers != nil {
		for _, f := range trailers.Fields() {
			bw.w.Header().Add(http.TrailerPrefix+f.Name, f.Value)
		}
	}
	return nil
}
