package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/jsamuelsen11/relay/internal/dispatch"
	"github.com/jsamuelsen11/relay/internal/dispatch/middleware"
	"github.com/jsamuelsen11/relay/internal/platform/httpclient"
	"github.com/jsamuelsen11/relay/internal/platform/logging"
)

// dispatchLogged runs one request through RequestLog with the given options
// and returns the decoded JSON log record.
func dispatchLogged(t *testing.T, opts middleware.RequestLogOptions, req *dispatch.Request, terminal dispatch.Handler) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := middleware.RequestLog(logger, opts)(terminal)
	if _, err := h(context.Background(), req, dispatch.NewContext()); err != nil {
		t.Fatalf("dispatch error: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log output is not one JSON record: %v\n%s", err, buf.String())
	}
	return record
}

func headersGroup(t *testing.T, record map[string]any) map[string]any {
	t.Helper()

	group, ok := record["headers"].(map[string]any)
	if !ok {
		t.Fatalf("record has no headers group: %v", record)
	}
	return group
}

func TestRequestLog_BasicFields(t *testing.T) {
	t.Parallel()

	req := &dispatch.Request{Method: http.MethodPost, Path: "/echo"}
	record := dispatchLogged(t, middleware.RequestLogOptions{}, req, okTerminal(http.StatusOK))

	if record["msg"] != "request" {
		t.Errorf("msg = %v, want %q", record["msg"], "request")
	}
	if record["method"] != http.MethodPost {
		t.Errorf("method = %v, want %q", record["method"], http.MethodPost)
	}
	if record["path"] != "/echo" {
		t.Errorf("path = %v, want %q", record["path"], "/echo")
	}
	id, _ := record["request_id"].(string)
	if len(id) != 36 {
		t.Errorf("request_id = %q, want a generated UUID", id)
	}
	if _, ok := record["headers"]; ok {
		t.Error("headers group present under LogNoHeaders policy")
	}
}

func TestRequestLog_UsesInboundRequestID(t *testing.T) {
	t.Parallel()

	req := &dispatch.Request{Method: http.MethodGet, Path: "/"}
	req.Header.Set("X-Request-ID", "req-inbound-1")

	record := dispatchLogged(t, middleware.RequestLogOptions{}, req, okTerminal(http.StatusOK))

	if record["request_id"] != "req-inbound-1" {
		t.Errorf("request_id = %v, want inbound header value", record["request_id"])
	}
}

func TestRequestLog_RequestIDReachesContext(t *testing.T) {
	t.Parallel()

	var fromCtx string
	terminal := func(ctx context.Context, _ *dispatch.Request, _ *dispatch.Context) (*dispatch.Response, error) {
		fromCtx = httpclient.RequestIDFromContext(ctx)
		return dispatch.NewResponse(http.StatusOK), nil
	}

	req := &dispatch.Request{Method: http.MethodGet, Path: "/"}
	req.Header.Set("X-Request-ID", "req-ctx-1")
	dispatchLogged(t, middleware.RequestLogOptions{}, req, terminal)

	if fromCtx != "req-ctx-1" {
		t.Errorf("request ID in context = %q, want %q", fromCtx, "req-ctx-1")
	}
}

func TestRequestLog_EndpointLoggedWhenMatched(t *testing.T) {
	t.Parallel()

	pattern := "/items/{id}"
	terminal := func(_ context.Context, _ *dispatch.Request, rc *dispatch.Context) (*dispatch.Response, error) {
		rc.Endpoint = &pattern
		return dispatch.NewResponse(http.StatusOK), nil
	}

	record := dispatchLogged(t, middleware.RequestLogOptions{},
		&dispatch.Request{Method: http.MethodGet, Path: "/items/42"}, terminal)

	if record["endpoint"] != pattern {
		t.Errorf("endpoint = %v, want %q", record["endpoint"], pattern)
	}
}

func TestRequestLog_EndpointOmittedWhenUnmatched(t *testing.T) {
	t.Parallel()

	record := dispatchLogged(t, middleware.RequestLogOptions{},
		&dispatch.Request{Method: http.MethodGet, Path: "/nope"}, okTerminal(http.StatusOK))

	if _, ok := record["endpoint"]; ok {
		t.Errorf("endpoint = %v, want omitted for unmatched request", record["endpoint"])
	}
}

func TestRequestLog_AllowListPolicy(t *testing.T) {
	t.Parallel()

	req := &dispatch.Request{Method: http.MethodPost, Path: "/"}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Length", "42")
	req.Header.Set("X-Custom", "v")

	record := dispatchLogged(t, middleware.RequestLogOptions{
		Policy: middleware.LogAllowList,
		Names:  []string{"content-type"},
	}, req, okTerminal(http.StatusOK))

	headers := headersGroup(t, record)
	if headers["content-type"] != "application/json" {
		t.Errorf("content-type = %v, want logged", headers["content-type"])
	}
	if len(headers) != 1 {
		t.Errorf("headers = %v, want only the allow-listed name", headers)
	}
}

func TestRequestLog_ExceptPolicy(t *testing.T) {
	t.Parallel()

	req := &dispatch.Request{Method: http.MethodGet, Path: "/"}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("X-Internal", "hide me")

	record := dispatchLogged(t, middleware.RequestLogOptions{
		Policy: middleware.LogAllExcept,
		Names:  []string{"x-internal"},
	}, req, okTerminal(http.StatusOK))

	headers := headersGroup(t, record)
	if headers["accept"] != "text/html" {
		t.Errorf("accept = %v, want logged", headers["accept"])
	}
	if _, ok := headers["x-internal"]; ok {
		t.Error("x-internal logged despite except-set")
	}
}

// Redaction masks values of included headers; it does not remove them.
func TestRequestLog_Redaction(t *testing.T) {
	t.Parallel()

	req := &dispatch.Request{Method: http.MethodGet, Path: "/"}
	req.Header.Set("Authorization", "Bearer s3cr3t")
	req.Header.Set("X-Team-Token", "t0k3n")
	req.Header.Set("Content-Length", "17")

	record := dispatchLogged(t, middleware.RequestLogOptions{
		Policy: middleware.LogAllHeaders,
		Redact: []string{"x-team-token"},
	}, req, okTerminal(http.StatusOK))

	headers := headersGroup(t, record)
	if headers["authorization"] != logging.Mask {
		t.Errorf("authorization = %v, want built-in redaction to %q", headers["authorization"], logging.Mask)
	}
	if headers["x-team-token"] != logging.Mask {
		t.Errorf("x-team-token = %v, want configured redaction to %q", headers["x-team-token"], logging.Mask)
	}
	if headers["content-length"] != "17" {
		t.Errorf("content-length = %v, want left intact", headers["content-length"])
	}
}

func TestRequestLog_MultiValueJoined(t *testing.T) {
	t.Parallel()

	req := &dispatch.Request{Method: http.MethodGet, Path: "/"}
	req.Header.Add("Accept-Encoding", "gzip")
	req.Header.Add("Accept-Encoding", "br")

	record := dispatchLogged(t, middleware.RequestLogOptions{
		Policy: middleware.LogAllHeaders,
	}, req, okTerminal(http.StatusOK))

	headers := headersGroup(t, record)
	if headers["accept-encoding"] != "gzip, br" {
		t.Errorf("accept-encoding = %v, want %q", headers["accept-encoding"], "gzip, br")
	}
}

func TestRequestLog_PassesResponseAndErrorThrough(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	want := dispatch.NewError(http.StatusBadGateway, "down")
	terminal := func(context.Context, *dispatch.Request, *dispatch.Context) (*dispatch.Response, error) {
		return nil, want
	}

	h := middleware.RequestLog(logger, middleware.RequestLogOptions{})(terminal)
	resp, err := h(context.Background(), &dispatch.Request{Method: http.MethodGet, Path: "/"}, dispatch.NewContext())

	if resp != nil {
		t.Errorf("response = %+v, want nil", resp)
	}
	if !dispatch.IsStatus(err, http.StatusBadGateway) {
		t.Errorf("error = %v, want the 502 passed through", err)
	}
	if buf.Len() == 0 {
		t.Error("no log record emitted for failed request")
	}
}
