package transport

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	previewPublishesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcforge_preview_publishes_total",
			Help: "Patch batches published to preview subjects, by outcome.",
		},
		[]string{"outcome"},
	)

	mutationsAcceptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pcforge_mutations_accepted_total",
			Help: "Mutations applied successfully across all served documents.",
		},
	)

	openCircuits = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pcforge_transport_open_circuits",
			Help: "Number of preview subjects currently tripped open.",
		},
	)
)

// Registry is the Prometheus registry transport metrics are collected
// into. An embedder exposes it over HTTP with promhttp.HandlerFor, the
// way the rest of the ecosystem's processors serve /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(previewPublishesTotal, mutationsAcceptedTotal, openCircuits)
}

func recordPreviewPublish(ok bool) {
	if ok {
		previewPublishesTotal.WithLabelValues("success").Inc()
	} else {
		previewPublishesTotal.WithLabelValues("failure").Inc()
	}
}
