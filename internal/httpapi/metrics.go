package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// MetricsHandler collects reader on demand and writes the result as JSON.
func MetricsHandler(reader sdkmetric.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(c.Request.Context(), &rm); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics unavailable"})
			return
		}

		out := make(map[string]any)
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				switch data := m.Data.(type) {
				case metricdata.Sum[int64]:
					out[m.Name] = sumPoints(data.DataPoints)
				case metricdata.Gauge[int64]:
					out[m.Name] = sumPoints(data.DataPoints)
				}
			}
		}
		c.JSON(http.StatusOK, out)
	}
}

func sumPoints(points []metricdata.DataPoint[int64]) int64 {
	var total int64
	for _, p := range points {
		total += p.Value
	}
	return total
}
