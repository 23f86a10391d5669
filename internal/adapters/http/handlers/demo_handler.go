package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/jsamuelsen11/relay/internal/dispatch"
	"github.com/jsamuelsen11/relay/internal/platform/httpclient"
)

// echoMaxBodyBytes caps how much of an echoed request body is buffered (1 MB).
const echoMaxBodyBytes = 1 << 20

// DemoHandler provides the built-in endpoints that exercise the dispatch
// pipeline end to end: a request echo, a streamed body, and a pass-through
// to the configured downstream.
type DemoHandler struct {
	client *httpclient.Client
}

// NewDemoHandler creates a DemoHandler. client may be nil when no downstream
// is configured; the proxy endpoint then reports 502.
func NewDemoHandler(client *httpclient.Client) *DemoHandler {
	return &DemoHandler{client: client}
}

// Echo handles POST /echo: it returns the request body unchanged with the
// request's Content-Type. Streamed transforms registered on the chain apply
// on the way out, which makes this the round-trip endpoint used to verify
// body transforms.
func (h *DemoHandler) Echo(_ context.Context, req *dispatch.Request, _ *dispatch.Context) (*dispatch.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(req.Body, echoMaxBodyBytes))
		if err != nil {
			return nil, dispatch.Errorf(http.StatusBadRequest, "reading request body: %v", err)
		}
	}

	resp := dispatch.NewResponse(http.StatusOK)
	if ct := req.Header.Get("Content-Type"); ct != "" {
		resp.Header.Set("Content-Type", ct)
	}
	resp.Body = dispatch.BytesBody(body)
	return resp, nil
}

// Stream handles GET /stream: it produces a deferred body that emits the
// request path in fixed-size chunks, exercising the streaming write/finish
// contract without buffering.
func (h *DemoHandler) Stream(_ context.Context, req *dispatch.Request, _ *dispatch.Context) (*dispatch.Response, error) {
	const chunkSize = 8
	payload := []byte(req.Path)

	resp := dispatch.NewResponse(http.StatusOK)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = dispatch.StreamBody(func(ctx context.Context, w dispatch.BodyWriter) error {
		for off := 0; off < len(payload); off += chunkSize {
			end := min(off+chunkSize, len(payload))
			if err := w.Write(ctx, payload[off:end]); err != nil {
				return err
			}
		}
		return w.Finish(ctx, nil)
	})
	return resp, nil
}

// Proxy handles GET /proxy: it forwards the request to the configured
// downstream base URL through the instrumented client and streams the
// downstream body back. The outbound call carries the inbound request ID.
func (h *DemoHandler) Proxy(ctx context.Context, _ *dispatch.Request, _ *dispatch.Context) (*dispatch.Response, error) {
	if h.client == nil {
		return nil, dispatch.NewError(http.StatusBadGateway, "no downstream configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.client.BaseURL(), nil)
	if err != nil {
		return nil, dispatch.Errorf(http.StatusInternalServerError, "building downstream request: %v", err)
	}

	downstream, err := h.client.Do(ctx, req)
	if err != nil {
		if downstream != nil {
			_ = downstream.Body.Close()
		}
		if dispatch.IsCancellation(err) {
			return nil, err
		}
		return nil, dispatch.Errorf(http.StatusBadGateway, "downstream request failed: %v", err)
	}

	resp := dispatch.NewResponse(downstream.StatusCode)
	if ct := downstream.Header.Get("Content-Type"); ct != "" {
		resp.Header.Set("Content-Type", ct)
	}
	resp.Body = dispatch.StreamBody(func(ctx context.Context, w dispatch.BodyWriter) error {
		defer downstream.Body.Close()

		buf := make([]byte, 32*1024)
		for {
			n, readErr := downstream.Body.Read(buf)
			if n > 0 {
				if err := w.Write(ctx, buf[:n]); err != nil {
					return err
				}
			}
			if readErr == io.EOF {
				return w.Finish(ctx, nil)
			}
			if readErr != nil {
				return readErr
			}
		}
	})
	return resp, nil
}
