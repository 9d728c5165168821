package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name for connector spans
const TracerName = "github.com/erp/wmsconnector"

// StartSpan starts an internal span from the global provider.
// The caller must end the returned span.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks the span as failed. A nil error is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceJob wraps a scheduled job so every run gets its own root span
func TraceJob(name string, run func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		started := time.Now()
		ctx, span := StartSpan(ctx, "job."+name, attribute.String("job.name", name))
		defer span.End()

		err := run(ctx)
		span.SetAttributes(attribute.Int64("job.duration_ms", time.Since(started).Milliseconds()))
		if err != nil {
			RecordError(span, err)
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}
}

// GetTraceID returns the trace ID of the span in ctx, or "" when there is none.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
