// Package metrics declares the Prometheus instruments shared across the
// engine. They register on the default registry and are exposed by the
// HTTP adapter at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FlushesTotal counts physical flush passes of the persist queue.
	FlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roteiro_persist_flushes_total",
		Help: "Number of debounced flush passes executed by the write queue.",
	})

	// FlushedKeysTotal counts individual keys written during flushes.
	FlushedKeysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roteiro_persist_flushed_keys_total",
		Help: "Number of keys physically written during flush passes.",
	})

	// StorageErrorsTotal counts writes dropped at the persist boundary.
	StorageErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roteiro_persist_storage_errors_total",
		Help: "Number of per-key storage failures caught and dropped.",
	})

	// NavigationsTotal counts traversal operations by outcome.
	NavigationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roteiro_navigations_total",
		Help: "Number of navigation operations, labeled by result.",
	}, []string{"result"})

	// RendersTotal counts step renders served to operators.
	RendersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roteiro_renders_total",
		Help: "Number of step content renders.",
	})

	// ImportsTotal counts bundle imports by outcome.
	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roteiro_imports_total",
		Help: "Number of bundle imports, labeled by result.",
	}, []string{"result"})
)
