package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GraphFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routemap",
		Subsystem: "graph",
		Name:      "fetches_total",
		Help:      "Road graph fetches by provider and outcome",
	}, []string{"provider", "outcome"})

	GraphFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routemap",
		Subsystem: "graph",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of road graph fetches",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 180},
	}, []string{"provider"})

	GraphNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "routemap",
		Subsystem: "graph",
		Name:      "nodes",
		Help:      "Node count of fetched road graphs",
		Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
	})

	Extractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routemap",
		Subsystem: "route",
		Name:      "extractions_total",
		Help:      "Shortest path extractions by outcome",
	}, []string{"outcome"})

	ExploredNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "routemap",
		Subsystem: "route",
		Name:      "explored_nodes",
		Help:      "Nodes settled by Dijkstra per extraction",
		Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routemap",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routemap",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"cache"})
)

// WriteTextfile dumps the default registry in the text exposition format,
// for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
