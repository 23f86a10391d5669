package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jsamuelsen11/relay/internal/dispatch"
	"github.com/jsamuelsen11/relay/internal/platform/httpclient"
	"github.com/jsamuelsen11/relay/internal/platform/logging"
)

// HeaderPolicy selects which request headers the request-log middleware
// includes in its log record.
type HeaderPolicy int

const (
	// LogNoHeaders logs no headers at all.
	LogNoHeaders HeaderPolicy = iota
	// LogAllHeaders logs every request header.
	LogAllHeaders
	// LogAllExcept logs every header except those named in Names.
	LogAllExcept
	// LogAllowList logs only the headers named in Names.
	LogAllowList
)

// RequestLogOptions configures the request-log middleware.
type RequestLogOptions struct {
	// Level is the level the per-request record is emitted at. Whether it
	// reaches the sink is still subject to the logger's minimum level.
	Level slog.Level
	// Policy selects header inclusion; Names is its except-set or
	// allow-set, lowercase.
	Policy HeaderPolicy
	Names  []string
	// Redact lists header names (lowercase) whose values are replaced with
	// the mask string in the record even when the inclusion policy selects
	// them. The built-in sensitive-header set is always redacted; Redact
	// extends it.
	Redact []string
}

// RequestLog returns middleware that emits one structured log record per
// request on the shared logger: method, path, a per-request identifier,
// the matched endpoint when one exists, and — per the inclusion policy —
// request headers keyed by lower-cased name with multiple values joined
// ", ". It is purely observational: the response and any error pass through
// untouched.
//
// The per-request identifier is the inbound X-Request-ID when present and a
// fresh UUID v4 otherwise. It is stored in the context for the duration of
// the dispatch (child loggers and outbound calls through the platform HTTP
// client both carry it), so multi-line logs for one request correlate.
func RequestLog(logger *slog.Logger, opts RequestLogOptions) dispatch.Middleware {
	names := toSet(opts.Names)
	redact := toSet(opts.Redact)

	return func(next dispatch.Handler) dispatch.Handler {
		return func(ctx context.Context, req *dispatch.Request, rc *dispatch.Context) (*dispatch.Response, error) {
			id := req.Header.Get("X-Request-ID")
			if id == "" {
				id = generateID()
			}

			child := logger.With(slog.String("request_id", id))
			ctx = logging.WithLogger(ctx, child)
			ctx = httpclient.WithRequestID(ctx, id)

			// Method and path come from the request value, fixed at entry;
			// the endpoint is only known once routing has run, so the
			// record itself is emitted after dispatch.
			resp, err := next(ctx, req, rc)

			attrs := []any{
				slog.String("method", req.Method),
				slog.String("path", req.Path),
			}
			if rc.Endpoint != nil {
				attrs = append(attrs, slog.String("endpoint", *rc.Endpoint))
			}
			if hdr := headerAttrs(&req.Header, opts.Policy, names, redact); len(hdr) > 0 {
				attrs = append(attrs, slog.Group("headers", hdr...))
			}

			child.Log(ctx, opts.Level, "request", attrs...)

			return resp, err
		}
	}
}

// headerAttrs renders the request headers selected by the inclusion policy,
// lower-cased, multi-valued joined ", ", with redacted names masked.
func headerAttrs(h *dispatch.Header, policy HeaderPolicy, names, redact map[string]bool) []any {
	if policy == LogNoHeaders {
		return nil
	}

	var attrs []any
	seen := make(map[string]bool, h.Len())

	for _, f := range h.Fields() {
		name := strings.ToLower(f.Name)
		if seen[name] {
			continue
		}
		seen[name] = true

		switch policy {
		case LogAllExcept:
			if names[name] {
				continue
			}
		case LogAllowList:
			if !names[name] {
				continue
			}
		}

		if redact[name] || logging.SensitiveHeaders[name] {
			attrs = append(attrs, slog.String(name, logging.Mask))
			continue
		}
		attrs = append(attrs, slog.String(name, strings.Join(h.Values(f.Name), ", ")))
	}
	return attrs
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}
