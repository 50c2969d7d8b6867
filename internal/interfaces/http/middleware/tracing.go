package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig configures Tracing
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts the otelgin server span. Add TracingAttributeInjector after
// the JWT middleware to tag the span with the request and caller ids.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector tags the current span with request and caller ids
// and marks 4xx and 5xx responses as errors
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			attrs := make([]attribute.KeyValue, 0, 3)
			if id := getRequestID(c); id != "" {
				attrs = append(attrs, attribute.String("request_id", id))
			}
			if id := GetJWTUserID(c); id != "" {
				attrs = append(attrs, attribute.String("user_id", id))
			}
			if id := c.GetString(JWTPartnerIDKey); id != "" {
				attrs = append(attrs, attribute.String("partner_id", id))
			}
			span.SetAttributes(attrs...)
		}

		c.Next()

		if !span.IsRecording() {
			return
		}
		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
