// Package monitoring exposes Prometheus metrics for pipeline runs, outcome
// updates and the outcome store.
package monitoring

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/hotleads/internal/model"
)

// Metrics holds the pipeline instruments. A nil *Metrics is a no-op.
type Metrics struct {
	// Pipeline runs by result label (see ResultLabel).
	Runs *prometheus.CounterVec

	RunDuration prometheus.Histogram

	// Leads surviving dedup and the cap, per successful run.
	LeadsReturned prometheus.Histogram

	// Outcome rows written by reconciliation, by new outcome.
	OutcomeUpdates *prometheus.CounterVec

	CachePurges prometheus.Counter
}

// New registers the pipeline metrics with reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hotleads_pipeline_runs_total",
			Help: "Pipeline runs by result",
		}, []string{"result"}),

		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hotleads_pipeline_run_duration_seconds",
			Help:    "Duration of a pipeline run including upstream retries",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		LeadsReturned: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hotleads_pipeline_leads_returned",
			Help:    "Leads returned per successful run",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50},
		}),

		OutcomeUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hotleads_outcome_updates_total",
			Help: "Outcome changes written to the store by reconciliation",
		}, []string{"outcome"}),

		CachePurges: f.NewCounter(prometheus.CounterOpts{
			Name: "hotleads_cache_purges_total",
			Help: "Manual cache invalidations (fetch latest)",
		}),
	}
}

// ObserveRun records a finished run. leads is ignored when err is non-nil.
func (m *Metrics) ObserveRun(err error, leads int, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(ResultLabel(err)).Inc()
	m.RunDuration.Observe(d.Seconds())
	if err == nil {
		m.LeadsReturned.Observe(float64(leads))
	}
}

// IncrementOutcomeUpdate records one reconciled outcome change.
func (m *Metrics) IncrementOutcomeUpdate(o model.Outcome) {
	if m != nil {
		m.OutcomeUpdates.WithLabelValues(string(o)).Inc()
	}
}

// IncrementCachePurge records a manual cache invalidation.
func (m *Metrics) IncrementCachePurge() {
	if m != nil {
		m.CachePurges.Inc()
	}
}

// ResultLabel maps an error to its metric label.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, model.ErrGeocodeFailed):
		return "geocode_failed"
	case errors.Is(err, model.ErrNoData):
		return "no_data"
	case errors.Is(err, model.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, model.ErrPersistence):
		return "persistence"
	case errors.Is(err, model.ErrRunInProgress):
		return "busy"
	default:
		return "error"
	}
}
