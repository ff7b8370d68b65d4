// Package metrics holds the prometheus collectors for pipeline runs and the
// hand-off server. Collectors are registered on the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRuns counts pipeline runs by outcome ("ok" or an error code)
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kgview_pipeline_runs_total",
			Help: "Total number of pipeline runs by result",
		},
		[]string{"result"},
	)

	// StageDuration measures each pipeline stage
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kgview_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	// GraphVertices is the vertex count of the most recent assembled graph
	GraphVertices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kgview_graph_vertices",
		Help: "Vertices in the most recently assembled graph",
	})

	// GraphEdges is the edge count of the most recent assembled graph
	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kgview_graph_edges",
		Help: "Edges in the most recently assembled graph",
	})

	// EdgeRows counts edge rows seen by the assembler, by disposition
	EdgeRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kgview_assembler_edge_rows_total",
			Help: "Edge rows handled by the assembler by disposition",
		},
		[]string{"disposition"}, // gene_gene, gene_nongene, duplicate, collision, skipped
	)

	// HTTPRequestsTotal counts requests by method, route and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kgview_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures server response time
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kgview_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
