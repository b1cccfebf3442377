package work

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts commit outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Commits          prometheus.Counter
	Rejections       prometheus.Counter
	Failures         prometheus.Counter
	CommandsExecuted *prometheus.CounterVec
	CommitDuration   prometheus.Histogram
}

// NewMetrics registers the unit of work metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Commits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gardenlog_uow_commits_total",
			Help: "Authorized unit of work commits that completed",
		}),
		Rejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "gardenlog_uow_rejections_total",
			Help: "Commit attempts rejected because the caller was not the root handler",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gardenlog_uow_failures_total",
			Help: "Commits stopped by a failing command",
		}),
		CommandsExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gardenlog_uow_commands_executed_total",
			Help: "Deferred commands executed by operation",
		}, []string{"op"}),
		CommitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gardenlog_uow_commit_duration_seconds",
			Help:    "Duration of authorized commits",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) commandExecuted(op Op) {
	if m != nil {
		m.CommandsExecuted.WithLabelValues(string(op)).Inc()
	}
}

func (m *Metrics) committed(d time.Duration) {
	if m != nil {
		m.Commits.Inc()
		m.CommitDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) rejected() {
	if m != nil {
		m.Rejections.Inc()
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.Failures.Inc()
	}
}
