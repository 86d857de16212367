// Package metrics instruments the firmware upgrade pipeline for scraping
// by a Prometheus-compatible collector. This is ambient observability on
// the engine itself, not on any GUI dashboard.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// FlashChunksProcessed counts individual flashOp chunks (read or
	// write) that completed successfully, labeled by region.
	FlashChunksProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "t7upgrader",
		Name:      "flash_chunks_processed_total",
		Help:      "Number of flash I/O chunks completed, by region.",
	}, []string{"region"})

	// UpgradeAttempts counts pipeline runs by terminal outcome.
	UpgradeAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "t7upgrader",
		Name:      "upgrade_attempts_total",
		Help:      "Number of firmware upgrade attempts, by outcome.",
	}, []string{"outcome"})

	// UpgradeDuration observes the wall-clock time of a complete upgrade,
	// from Load through version confirmation.
	UpgradeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "t7upgrader",
		Name:      "upgrade_duration_seconds",
		Help:      "Time taken by a complete firmware upgrade attempt.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(FlashChunksProcessed, UpgradeAttempts, UpgradeDuration)
}
