package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	stageSpawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ilpctl",
			Subsystem: "stack",
			Name:      "spawns_total",
			Help:      "Stage spawn attempts.",
		},
		[]string{"component", "outcome"},
	)
	stageExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ilpctl",
			Subsystem: "stack",
			Name:      "exits_total",
			Help:      "Child process exits.",
		},
		[]string{"component"},
	)
	lastExitCode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ilpctl",
			Subsystem: "stack",
			Name:      "last_exit_code",
			Help:      "Last observed exit code per component (-1 when signaled).",
		},
		[]string{"component"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(stageSpawns, stageExits, lastExitCode)
	})
}

func RecordSpawn(component string, ok bool) {
	RegisterMetrics()
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	stageSpawns.WithLabelValues(component, outcome).Inc()
}

func RecordExit(component string, code int) {
	RegisterMetrics()
	stageExits.WithLabelValues(component).Inc()
	lastExitCode.WithLabelValues(component).Set(float64(code))
}
