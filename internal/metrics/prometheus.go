package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "script_uploads_total",
			Help: "Total number of successful script uploads",
		},
		[]string{"plan"},
	)

	UploadConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "script_upload_conflicts_total",
			Help: "Uploads rejected because the name is owned by another customer",
		},
	)

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_requests_total",
			Help: "Total number of dispatch requests forwarded to the namespace",
		},
		[]string{"script"},
	)

	DispatchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_failures_total",
			Help: "Dispatch requests that could not be forwarded or failed in the namespace",
		},
		[]string{"script"},
	)
)

// Init registers metrics with Prometheus
func Init() {
	prometheus.MustRegister(UploadsTotal)
	prometheus.MustRegister(UploadConflicts)
	prometheus.MustRegister(DispatchTotal)
	prometheus.MustRegister(DispatchFailures)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
