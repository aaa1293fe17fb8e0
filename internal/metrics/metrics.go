// Package metrics holds the prometheus collectors for store and tool traffic.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "omviews"

var (
	storeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "requests_total",
			Help:      "Store operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	// storeLatency instruments duration distribution of store operations, retries included.
	storeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "latency_seconds",
			Help:      "Store operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	storeRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "retries_total",
			Help:      "Store operation retry attempts.",
		},
		[]string{"operation"},
	)
	toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "MCP tool invocations by outcome.",
		},
		[]string{"tool", "outcome"},
	)
)

// Register adds every collector to reg. Registering twice is not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{storeRequests, storeLatency, storeRetries, toolCalls} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveStoreCall records one store operation that started at start.
func ObserveStoreCall(operation string, start time.Time, err error) {
	storeRequests.WithLabelValues(operation, outcome(err)).Inc()
	storeLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveStoreRetry records a retry attempt.
func ObserveStoreRetry(operation string) {
	storeRetries.WithLabelValues(operation).Inc()
}

// ObserveToolCall records one MCP tool invocation.
func ObserveToolCall(tool string, failed bool) {
	o := "ok"
	if failed {
		o = "error"
	}
	toolCalls.WithLabelValues(tool, o).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
