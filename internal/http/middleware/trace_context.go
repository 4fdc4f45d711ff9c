package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-curriculum/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext assigns correlation ids, preferring inbound headers and then
// the active otel span, and echoes them on the response. Register it after otelgin.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		t := ctxutil.Trace{
			RequestID: strings.TrimSpace(c.GetHeader(headerRequestID)),
			TraceID:   strings.TrimSpace(c.GetHeader(headerTraceID)),
		}
		if t.RequestID == "" {
			t.RequestID = uuid.NewString()
		}
		if sc := span.SpanContext(); t.TraceID == "" && sc.HasTraceID() {
			t.TraceID = sc.TraceID().String()
		}
		if t.TraceID == "" {
			t.TraceID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		span.SetAttributes(attribute.String("http.request_id", t.RequestID))

		c.Request = c.Request.WithContext(ctxutil.WithTrace(ctx, t))
		c.Set("request_id", t.RequestID)
		c.Set("trace_id", t.TraceID)
		h := c.Writer.Header()
		h.Set(headerRequestID, t.RequestID)
		h.Set(headerTraceID, t.TraceID)
		c.Next()
	}
}
