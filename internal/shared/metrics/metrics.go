// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "viewsim"

var (
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proxypool",
		Name:      "source_fetches_total",
		Help:      "Proxy source fetches by source and result.",
	}, []string{"source", "result"})

	CandidatesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proxypool",
		Name:      "candidates_total",
		Help:      "Deduplicated proxy candidates produced by pool fetches.",
	})

	Validations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "proxypool",
		Name:      "validations_total",
		Help:      "Proxy probes by result.",
	}, []string{"result"})

	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulator",
		Name:      "sessions_started_total",
		Help:      "Sessions started.",
	})

	SessionStartFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulator",
		Name:      "session_start_failures_total",
		Help:      "Session starts aborted, by reason.",
	}, []string{"reason"})

	Ticks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulator",
		Name:      "ticks_total",
		Help:      "Simulation ticks applied.",
	})

	ViewsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulator",
		Name:      "views_total",
		Help:      "Simulated views added to sessions.",
	})

	OpenWindows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "window",
		Name:      "open",
		Help:      "Externally opened windows currently being watched.",
	})
)
