package middleware

import (
	"time"

	"github.com/egp/construction-control/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
)

type httpMetrics struct {
	requests *telemetry.Counter
	duration *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requests, err := telemetry.NewCounter(meter,
		"http_server_request_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	duration, err := telemetry.NewHistogram(meter,
		"http_server_request_duration_seconds", "HTTP request latency", "s", telemetry.HTTPDurationBuckets...)
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &httpMetrics{requests: requests, duration: duration, inFlight: inFlight}, nil
}

// HTTPMetrics records request count, latency and in-flight requests per
// route pattern.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)

		c.Next()

		m.inFlight.Add(ctx, -1)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := telemetry.AttrHTTPMethod.String(c.Request.Method)
		path := telemetry.AttrHTTPRoute.String(route)

		m.requests.Inc(ctx, method, path, telemetry.AttrHTTPStatus.Int(c.Writer.Status()))
		m.duration.Record(ctx, time.Since(start).Seconds(), method, path)
	}, nil
}
