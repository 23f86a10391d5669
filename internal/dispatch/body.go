package dispatch

import (
	"context"
	"errors"
)

// Response is the value produced by a Handler: a status, an ordered
// multi-valued header collection, and a body that is either already-produced
// bytes or a deferred write operation. Middleware may rewrite headers and
// replace the body wholesale between receiving the upstream response and
// returning it.
type Response struct {
	Status int
	Header Header
	Body   Body
}

// NewResponse creates a Response with the given status and an empty body.
func NewResponse(status int) *Response {
	return &Response{Status: status}
}

// BodyWriter is the writer capability a deferred body is driven with.
// Write may be called zero or more times; Finish must be called exactly
// once, after which no further Write calls are permitted. Exactly one task
// drives a given writer; calls are issued sequentially. Both operations may
// suspend and may fail.
type BodyWriter interface {
	Write(ctx context.Context, chunk []byte) error
	Finish(ctx context.Context, trailers *Header) error
}

// StreamFunc is a deferred body operation. When driven it writes the body
// through w and must call w.Finish exactly once on every exit path, or
// return an error so the driver can surface the failure — a body must never
// be silently truncated without signaling the consumer.
type StreamFunc func(ctx context.Context, w BodyWriter) error

// Body is either materialized bytes or a deferred stream operation.
// The zero value is an empty bytes body.
type Body struct {
	bytes  []byte
	stream StreamFunc
}

// BytesBody returns a materialized body over b.
func BytesBody(b []byte) Body {
	return Body{bytes: b}
}

// StringBody returns a materialized body over s.
func StringBody(s string) Body {
	return Body{bytes: []byte(s)}
}

// StreamBody returns a deferred body driven by fn.
func StreamBody(fn StreamFunc) Body {
	return Body{stream: fn}
}

// IsStream reports whether the body is a deferred stream operation.
func (b Body) IsStream() bool {
	return b.stream != nil
}

// Bytes returns the materialized bytes. Nil for stream bodies; use Drive to
// consume those.
func (b Body) Bytes() []byte {
	return b.bytes
}

// Drive writes the body to w and completes it. For a materialized body the
// bytes are written as one chunk (empty bodies skip the write) and Finish is
// called with no trailers. For a stream body the deferred operation runs;
// finishing is its responsibility per the StreamFunc contract.
func (b Body) Drive(ctx context.Context, w BodyWriter) error {
	if b.stream != nil {
		return b.stream(ctx, w)
	}
	if len(b.bytes) > 0 {
		if err := w.Write(ctx, b.bytes); err != nil {
			return err
		}
	}
	return w.Finish(ctx, nil)
}

// ErrWriteAfterFinish is returned when a transform layer receives a Write
// after Finish, or a second Finish, from the body it wraps.
var ErrWriteAfterFinish = errors.New("dispatch: body writer used after finish")

// ChunkFunc rewrites one body chunk. It runs in stream order — the order the
// producer emits chunks — and must be pure or carry its own accumulation
// state across calls (a streaming cipher counter, say).
type ChunkFunc func(chunk []byte) []byte

// TrailerFunc rewrites the trailing metadata passed to Finish. It may return
// its argument unchanged, a replacement, or nil to drop the trailers.
type TrailerFunc func(trailers *Header) *Header

// TransformChunks returns a new deferred body that drives b through a
// forwarding writer applying fn to each chunk. Finish is forwarded exactly
// once per layer regardless of how many transform layers are stacked;
// swallowing it would leave the consumer waiting on a stream that never
// completes.
func TransformChunks(b Body, fn ChunkFunc) Body {
	return TransformStream(b, fn, nil)
}

// TransformStream is TransformChunks with an optional trailer rewrite
// applied when Finish is forwarded.
func TransformStream(b Body, fn ChunkFunc, trailerFn TrailerFunc) Body {
	return StreamBody(func(ctx context.Context, w BodyWriter) error {
		return b.Drive(ctx, &transformWriter{parent: w, fn: fn, trailerFn: trailerFn})
	})
}

// TransformBytes applies fn over an already-materialized body in one shot,
// skipping the writer machinery. Intended for bodies the caller knows are
// small and bounded; a stream body degrades to the per-chunk transform,
// which is equivalent for pure chunk functions.
func TransformBytes(b Body, fn ChunkFunc) Body {
	if b.IsStream() {
		return TransformChunks(b, fn)
	}
	return BytesBody(fn(b.bytes))
}

// transformWriter forwards writes to the parent writer after applying the
// chunk transform, and forwards Finish exactly once.
type transformWriter struct {
	parent    BodyWriter
	fn        ChunkFunc
	trailerFn TrailerFunc
	finished  bool
}

func (tw *transformWriter) Write(ctx context.Context, chunk []byte) error {
	if tw.finished {
		return ErrWriteAfterFinish
	}
	return tw.parent.Write(ctx, tw.fn(chunk))
}

func (tw *transformWriter) Finish(ctx context.Context, trailers *Header) error {
	if tw.finished {
		return ErrWriteAfterFinish
	}
	tw.finished = true
	if tw.trailerFn != nil {
		trailers = tw.trailerFn(trailers)
	}
	return tw.parent.Finish(ctx, trailers)
}
