package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/student-portal-api/internal/service"
)

// Label values used for requests that do not map onto a registered route.
const (
	UnmatchedRouteLabel = "unmatched"
	OtherMethodLabel    = "OTHER"
)

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

// Metrics records request counts and latency per route pattern. Requests that
// miss every route share one label so scanners cannot grow the series set.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = UnmatchedRouteLabel
		}
		metricsSvc.ObserveHTTPRequest(methodLabel(c.Request.Method), route, c.Writer.Status(), time.Since(start))
	}
}

func methodLabel(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}
	return OtherMethodLabel
}
