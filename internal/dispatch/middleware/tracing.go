package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen11/relay/internal/dispatch"
	"github.com/jsamuelsen11/relay/internal/platform/telemetry"
)

// Tracing returns middleware that creates a server span for each dispatched
// request and records request metrics. It extracts W3C Trace Context from
// the inbound headers so distributed traces stay connected.
//
// If metrics is nil, metric recording is skipped (safe nil check).
func Tracing(metrics *telemetry.Metrics) dispatch.Middleware {
	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, req *dispatch.Request, rc *dispatch.Context) (*dispatch.Response, error) {
			start := time.Now()

			ctx = otel.GetTextMapPropagator().Extract(ctx, headerCarrier{h: &req.Header})

			tracer := otel.GetTracerProvider().Tracer("dispatch")
			spanName := fmt.Sprintf("HTTP %s %s", req.Method, req.Path)
			ctx, span := tracer.Start(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.url", req.Path),
				),
			)
			defer span.End()

			resp, err := next(ctx, req, rc)

			status := statusOf(resp, err)
			span.SetAttributes(attribute.Int("http.status_code", status))
			if err != nil {
				span.RecordError(err)
			}
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			recordServerMetrics(ctx, metrics, req.Method, start, status)

			return resp, err
		}
	}
}

// statusOf derives the response status for span and metric attributes: the
// produced status on success, the error's mapped status otherwise.
func statusOf(resp *dispatch.Response, err error) int {
	if err != nil {
		return dispatch.StatusOf(err)
	}
	if resp == nil {
		return http.StatusOK
	}
	return resp.Status
}

// recordServerMetrics records server request duration and count metrics.
// Safe to call with nil metrics.
func recordServerMetrics(ctx context.Context, metrics *telemetry.Metrics, method string, start time.Time, status int) {
	if metrics == nil {
		return
	}

	duration := time.Since(start).Seconds()

	result := "success"
	if status >= http.StatusBadRequest {
		result = "error"
	}

	attrs := metric.WithAttributes(
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPStatus.Int(status),
		telemetry.AttrResult.String(result),
	)

	metrics.ServerRequestDuration.Record(ctx, duration, attrs)
	metrics.ServerRequestTotal.Add(ctx, 1, attrs)
}

// headerCarrier adapts dispatch.Header to the OTEL TextMapCarrier contract.
type headerCarrier struct {
	h *dispatch.Header
}

func (c headerCarrier) Get(key string) string {
	return c.h.Get(key)
}

func (c headerCarrier) Set(key, value string) {
	c.h.Set(key, value)
}

func (c headerCarrier) Keys() []string {
	fields := c.h.Fields()
	keys := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !seen[f.Name] {
			seen[f.Name] = true
			keys = append(keys, f.Name)
		}
	}
	return keys
}
