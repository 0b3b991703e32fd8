package logging

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Special fields understood by Google Cloud Logging
// https://docs.cloud.google.com/logging/docs/agent/logging/configuration#special-fields
const (
	cloudTraceKey        = "logging.googleapis.com/trace"
	cloudSpanIDKey       = "logging.googleapis.com/spanId"
	cloudTraceSampledKey = "logging.googleapis.com/trace_sampled"
)

type cloudTraceHandler struct {
	base    slog.Handler
	project string
}

// NewCloudTraceHandler links records logged with the *Context methods to the active span
func NewCloudTraceHandler(base slog.Handler, project string) slog.Handler {
	return &cloudTraceHandler{base: base, project: project}
}

func (h *cloudTraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *cloudTraceHandler) Handle(ctx context.Context, record slog.Record) error {
	spanContext := trace.SpanContextFromContext(ctx)
	if spanContext.IsValid() {
		record.AddAttrs(
			slog.String(cloudTraceKey, fmt.Sprintf("projects/%s/traces/%s", h.project, spanContext.TraceID())),
			slog.String(cloudSpanIDKey, spanContext.SpanID().String()),
			slog.Bool(cloudTraceSampledKey, spanContext.IsSampled()),
		)
	}
	return h.base.Handle(ctx, record)
}

func (h *cloudTraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &cloudTraceHandler{base: h.base.WithAttrs(attrs), project: h.project}
}

func (h *cloudTraceHandler) WithGroup(name string) slog.Handler {
	return &cloudTraceHandler{base: h.base.WithGroup(name), project: h.project}
}
