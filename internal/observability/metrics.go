package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldsight",
		Name:      "pipeline_runs_total",
		Help:      "Total number of identification pipeline runs by outcome",
	}, []string{"account_kind", "outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fieldsight",
		Name:      "stage_duration_seconds",
		Help:      "Duration of pipeline stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"stage"})

	RecordWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldsight",
		Name:      "record_writes_total",
		Help:      "Total number of marker/sight record write attempts by outcome",
	}, []string{"record", "outcome"})

	ArtifactBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fieldsight",
		Name:      "artifact_bytes_total",
		Help:      "Total bytes uploaded to the artifact store",
	})

	FactsLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fieldsight",
		Name:      "facts_lookups_total",
		Help:      "Total species trivia lookups by cache result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fieldsight",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fieldsight",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
