package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CWAAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goodday_cwa_api_calls_total",
			Help: "Total Central Weather Administration API calls",
		},
		[]string{"endpoint", "status"},
	)

	CWAAPILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goodday_cwa_api_latency_seconds",
			Help:    "CWA API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ObservationsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goodday_observations_imported_total",
			Help: "Total daily observations successfully imported",
		},
		[]string{"station", "source"},
	)

	StationsAggregated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goodday_stations_aggregated_total",
			Help: "Total station statistics rebuilds completed",
		},
		[]string{"station"},
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goodday_queries_total",
			Help: "Total climate query requests served",
		},
		[]string{"endpoint", "status"},
	)
)
