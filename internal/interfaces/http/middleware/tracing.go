package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing wraps otelgin and tags the server span with request id and operator.
// Span names follow "METHOD route", e.g. "POST /api/v1/sync/:kind/:id/push".
func Tracing(serviceName string) gin.HandlerFunc {
	base := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		// otelgin runs the rest of the chain itself
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if operator := GetOperator(c); operator != "" {
			span.SetAttributes(attribute.String("admin.operator", operator))
		}
	}
}
