package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/telemetry"
)

// Profiling runs the rest of the chain under pprof labels for the method and
// route so Pyroscope can split CPU time per endpoint. It is a pass-through
// when the profiler is off.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		labels := telemetry.HTTPLabels(c.Request.Method, routePattern(c))
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
