package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		apiRequests,
		apiLatencyMs,
	)
}

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Count of backend API calls per route and status class.",
		},
		[]string{"route", "class"},
	)

	apiLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_latency_ms",
			Help:    "Backend API call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"route", "success"},
	)
)

// ObserveRequest records one API call. status 0 means transport failure.
func ObserveRequest(route string, status int, elapsedMs float64) {
	class := "error"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	apiRequests.WithLabelValues(route, class).Inc()
	apiLatencyMs.WithLabelValues(route, strconv.FormatBool(status >= 200 && status < 300)).Observe(elapsedMs)
}
