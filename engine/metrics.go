package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "engine",
		Name:      "rounds_total",
		Help:      "Total question rounds processed.",
	})

	fallbackRoundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "engine",
		Name:      "fallback_rounds_total",
		Help:      "Rounds answered from the deterministic question bank because the model capability was unavailable or returned unusable output.",
	})

	invariantAbortsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "engine",
		Name:      "invariant_aborts_total",
		Help:      "Rounds where a merged record failed validation and was discarded.",
	})

	roundDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "intake",
		Subsystem: "engine",
		Name:      "round_duration_seconds",
		Help:      "Wall-clock duration of a full round including model retries.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
