package sweep

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts sweep runs and per-order outcomes. A nil Metrics is
// valid and records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	outcomes *prometheus.CounterVec
}

// NewMetrics registers the sweep metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadsync",
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total sweep runs per environment.",
		}, []string{"sweep", "environment"}),
		outcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadsync",
			Subsystem: "sweep",
			Name:      "outcomes_total",
			Help:      "Per-order sweep outcomes by reason.",
		}, []string{"sweep", "reason"}),
	}
}

func (m *Metrics) record(sweepName, environment string, outcomes []Outcome) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(sweepName, environment).Inc()
	for _, o := range outcomes {
		m.outcomes.WithLabelValues(sweepName, o.Reason).Inc()
	}
}
