package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	APIRequests    *prometheus.CounterVec
	RequestSeconds *prometheus.HistogramVec
	Rows           *prometheus.CounterVec
	BatchItems     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		APIRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_api_requests_total",
			Help: "Total number of requests sent to the search API, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waypoint_api_request_duration_seconds",
			Help:    "Duration of requests to the search API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Rows: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "waypoint_rows_total",
			Help: "Total number of input rows, by pipeline mode and status (collected, skipped, failed).",
		}, []string{"mode", "status"}),
		BatchItems: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "waypoint_batch_items",
			Help: "Number of sub-requests in the last batch payload.",
		}),
	}
}

// WriteTextfile dumps every metric of the gatherer to path in the text exposition format.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
