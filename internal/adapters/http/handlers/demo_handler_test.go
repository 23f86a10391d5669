package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jsamuelsen11/relay/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/relay/internal/dispatch"
	"github.com/jsamuelsen11/relay/internal/platform/config"
	"github.com/jsamuelsen11/relay/internal/platform/httpclient"
	"github.com/jsamuelsen11/relay/internal/platform/logging"
)

// collectBody drives a response body into one byte slice.
func collectBody(t *testing.T, resp *dispatch.Response) string {
	t.Helper()

	w := &sinkWriter{}
	if err := resp.Body.Drive(context.Background(), w); err != nil {
		t.Fatalf("Drive error: %v", err)
	}
	if w.finishes != 1 {
		t.Fatalf("Finish called %d times, want 1", w.finishes)
	}
	return w.buf.String()
}

type sinkWriter struct {
	buf      strings.Builder
	finishes int
}

func (w *sinkWriter) Write(_ context.Context, chunk []byte) error {
	w.buf.Write(chunk)
	return nil
}

func (w *sinkWriter) Finish(context.Context, *dispatch.Header) error {
	w.finishes++
	return nil
}

func TestEcho_RoundTripsBody(t *testing.T) {
	t.Parallel()

	h := handlers.NewDemoHandler(nil)

	req := &dispatch.Request{
		Method: http.MethodPost,
		Path:   "/echo",
		Body:   strings.NewReader("payload bytes"),
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := h.Echo(context.Background(), req, dispatch.NewContext())
	if err != nil {
		t.Fatalf("Echo error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.Status, http.StatusOK)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/plain" {
		t.Errorf("Content-Type = %q, want request's type echoed", got)
	}
	if got := string(resp.Body.Bytes()); got != "payload bytes" {
		t.Errorf("body = %q, want %q", got, "payload bytes")
	}
}

func TestEcho_NilBody(t *testing.T) {
	t.Parallel()

	h := handlers.NewDemoHandler(nil)

	resp, err := h.Echo(context.Background(), &dispatch.Request{Method: http.MethodPost, Path: "/echo"}, dispatch.NewContext())
	if err != nil {
		t.Fatalf("Echo error: %v", err)
	}
	if len(resp.Body.Bytes()) != 0 {
		t.Errorf("body = %q, want empty", resp.Body.Bytes())
	}
}

func TestStream_EmitsPathInChunks(t *testing.T) {
	t.Parallel()

	h := handlers.NewDemoHandler(nil)

	req := &dispatch.Request{Method: http.MethodGet, Path: "/stream/abcdefghij"}
	resp, err := h.Stream(context.Background(), req, dispatch.NewContext())
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	if !resp.Body.IsStream() {
		t.Fatal("Stream response body is not a stream")
	}
	if got := collectBody(t, resp); got != "/stream/abcdefghij" {
		t.Errorf("streamed body = %q, want the request path", got)
	}
}

func TestProxy_NoClientConfigured(t *testing.T) {
	t.Parallel()

	h := handlers.NewDemoHandler(nil)

	_, err := h.Proxy(context.Background(), &dispatch.Request{Method: http.MethodGet, Path: "/proxy"}, dispatch.NewContext())
	if !dispatch.IsStatus(err, http.StatusBadGateway) {
		t.Errorf("error = %v, want a 502 domain error", err)
	}
}

func TestProxy_StreamsDownstreamBody(t *testing.T) {
	t.Parallel()

	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("downstream says hi"))
	}))
	defer downstream.Close()

	client := httpclient.New(&config.ClientConfig{
		BaseURL: downstream.URL,
		Retry:   config.RetryConfig{MaxAttempts: 1, Multiplier: 2},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   3,
			HalfOpenLimit: 1,
		},
	}, "downstream", nil, logging.New("error", "text", io.Discard))

	h := handlers.NewDemoHandler(client)

	resp, err := h.Proxy(context.Background(), &dispatch.Request{Method: http.MethodGet, Path: "/proxy"}, dispatch.NewContext())
	if err != nil {
		t.Fatalf("Proxy error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.Status, http.StatusOK)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/plain" {
		t.Errorf("Content-Type = %q, want downstream's type", got)
	}
	if got := collectBody(t, resp); got != "downstream says hi" {
		t.Errorf("proxied body = %q, want downstream payload", got)
	}
}

func TestProxy_DownstreamUnreachable(t *testing.T) {
	t.Parallel()

	client := httpclient.New(&config.ClientConfig{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Retry:   config.RetryConfig{MaxAttempts: 1, Multiplier: 2},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   3,
			HalfOpenLimit: 1,
		},
	}, "downstream", nil, logging.New("error", "text", io.Discard))

	h := handlers.NewDemoHandler(client)

	_, err := h.Proxy(context.Background(), &dispatch.Request{Method: http.MethodGet, Path: "/proxy"}, dispatch.NewContext())
	if !dispatch.IsStatus(err, http.StatusBadGateway) {
		t.Errorf("error = %v, want a 502 domain error", err)
	}
}
