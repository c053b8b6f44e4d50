// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package logging configures the process-wide structured logger. Every
// record carries the service identity; records written with a request
// context additionally carry the attributes stamped on it (session id,
// packet kind) and OpenTelemetry trace correlation ids.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// ctxAttrsKey carries request-scoped log attributes on a context.
type ctxAttrsKey struct{}

// ContextWith returns a context whose log records include attrs. The
// packet handler uses it to stamp session and packet identity on
// everything logged while dispatching a frame.
func ContextWith(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	merged := make([]slog.Attr, 0, len(existing)+len(attrs))
	merged = append(merged, existing...)
	merged = append(merged, attrs...)
	return context.WithValue(ctx, ctxAttrsKey{}, merged)
}

// enricher decorates an inner handler with the service identity,
// context-carried attributes and trace ids.
type enricher struct {
	inner    slog.Handler
	identity []slog.Attr
}

// Handle implements slog.Handler.
func (e *enricher) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(e.identity...)

	if attrs, ok := ctx.Value(ctxAttrsKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
		if spanCtx.HasSpanID() {
			r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
		}
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return e.inner.Handle(ctx, r)
}

// Enabled implements slog.Handler.
func (e *enricher) Enabled(ctx context.Context, level slog.Level) bool {
	return e.inner.Enabled(ctx, level)
}

// WithAttrs implements slog.Handler.
func (e *enricher) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &enricher{inner: e.inner.WithAttrs(attrs), identity: e.identity}
}

// WithGroup implements slog.Handler.
func (e *enricher) WithGroup(name string) slog.Handler {
	return &enricher{inner: e.inner.WithGroup(name), identity: e.identity}
}

// Options tunes the logger beyond the service identity.
type Options struct {
	// Format selects "json" (default) or "text" output.
	Format string

	// Level is the minimum record level. Zero means slog.LevelInfo.
	Level slog.Level

	// Writer receives the records. Nil means os.Stderr.
	Writer io.Writer
}

// New builds an enriched logger writing one record per line.
func New(service, version string, opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	var base slog.Handler
	if opts.Format == "text" {
		base = slog.NewTextHandler(w, hopts)
	} else {
		base = slog.NewJSONHandler(w, hopts)
	}

	return slog.New(&enricher{
		inner: base,
		identity: []slog.Attr{
			slog.String("service", service),
			slog.String("version", version),
		},
	})
}

// SetDefault installs the process-wide logger.
func SetDefault(service, version, format string) {
	slog.SetDefault(New(service, version, Options{Format: format, Level: slog.LevelDebug}))
}
