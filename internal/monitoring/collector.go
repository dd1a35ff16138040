package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/model"
)

// OutcomeLister is the read side of the outcome store.
type OutcomeLister interface {
	All(ctx context.Context) (map[string]model.Outcome, error)
}

// OutcomeCollector reports the number of stored outcomes per value at scrape
// time.
type OutcomeCollector struct {
	store   OutcomeLister
	timeout time.Duration
	desc    *prometheus.Desc
}

// NewOutcomeCollector creates a collector reading from st.
func NewOutcomeCollector(st OutcomeLister) *OutcomeCollector {
	return &OutcomeCollector{
		store:   st,
		timeout: 5 * time.Second,
		desc: prometheus.NewDesc(
			"hotleads_stored_outcomes",
			"Leads recorded in the outcome store by outcome",
			[]string{"outcome"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *OutcomeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector. Every known outcome is reported,
// zero counts included, so dashboards see a stable series set.
func (c *OutcomeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	all, err := c.store.All(ctx)
	if err != nil {
		zap.L().Warn("monitoring: collect stored outcomes", zap.Error(err))
		return
	}

	counts := make(map[model.Outcome]int, len(model.Outcomes))
	for _, o := range model.Outcomes {
		counts[o] = 0
	}
	for _, o := range all {
		counts[o]++
	}
	for o, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), string(o))
	}
}
