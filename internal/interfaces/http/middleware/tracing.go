package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxTraceHeaderLength caps header values copied onto spans
const MaxTraceHeaderLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification
	ServiceName string
	// Enabled controls whether tracing is active
	Enabled bool
}

// Tracing returns the OpenTelemetry otelgin middleware, which opens one
// span per request named after the route pattern. Disabled configuration
// yields a pass-through. Register TracingAttributes after it to correlate
// spans with logs.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributes enriches the active request span with the request ID
// and tenant ID. It must run inside the Tracing middleware's span, i.e.
// be registered after it.
func TracingAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if requestID := traceHeaderValue(c, "request_id", "X-Request-ID"); requestID != "" {
				span.SetAttributes(attribute.String("request_id", requestID))
			}
			if tenantID := traceHeaderValue(c, "tenant_id", "X-Tenant-ID"); tenantID != "" {
				span.SetAttributes(attribute.String("tenant_id", tenantID))
			}
		}
		c.Next()
	}
}

// traceHeaderValue reads a correlation value from the gin context, falling
// back to the request header, truncated to a safe length
func traceHeaderValue(c *gin.Context, contextKey, header string) string {
	if v, exists := c.Get(contextKey); exists {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	v := c.GetHeader(header)
	if len(v) > MaxTraceHeaderLength {
		return v[:MaxTraceHeaderLength]
	}
	return v
}
