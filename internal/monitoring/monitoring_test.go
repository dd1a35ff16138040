package monitoring

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hotleads/internal/model"
)

func TestResultLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{eris.Wrap(model.ErrInvalidInput, "zip"), "invalid_input"},
		{eris.Wrap(model.ErrGeocodeFailed, "geocode"), "geocode_failed"},
		{eris.Wrap(model.ErrNoData, "overpass"), "no_data"},
		{eris.Wrap(model.ErrRateLimited, "overpass"), "rate_limited"},
		{eris.Wrap(model.ErrPersistence, "store"), "persistence"},
		{model.ErrRunInProgress, "busy"},
		{eris.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ResultLabel(tt.err))
		})
	}
}

func TestMetrics_ObserveRun(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRun(nil, 12, 2*time.Second)
	m.ObserveRun(eris.Wrap(model.ErrNoData, "empty"), 0, time.Second)
	m.ObserveRun(nil, 3, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("no_data")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LeadsReturned))
}

func TestMetrics_OutcomeAndPurge(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementOutcomeUpdate(model.OutcomeVoicemail)
	m.IncrementOutcomeUpdate(model.OutcomeVoicemail)
	m.IncrementCachePurge()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutcomeUpdates.WithLabelValues("Voicemail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CachePurges))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun(nil, 1, time.Second)
		m.IncrementOutcomeUpdate(model.OutcomeConnected)
		m.IncrementCachePurge()
	})
}

type fakeLister struct {
	outcomes map[string]model.Outcome
	err      error
}

func (f fakeLister) All(context.Context) (map[string]model.Outcome, error) {
	return f.outcomes, f.err
}

func TestOutcomeCollector(t *testing.T) {
	c := NewOutcomeCollector(fakeLister{outcomes: map[string]model.Outcome{
		"node/1": model.OutcomeVoicemail,
		"node/2": model.OutcomeVoicemail,
		"way/3":  model.OutcomeConnected,
	}})

	expected := `
# HELP hotleads_stored_outcomes Leads recorded in the outcome store by outcome
# TYPE hotleads_stored_outcomes gauge
hotleads_stored_outcomes{outcome="Connected"} 1
hotleads_stored_outcomes{outcome="No Answer"} 0
hotleads_stored_outcomes{outcome="Uncalled"} 0
hotleads_stored_outcomes{outcome="Voicemail"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))
}

func TestOutcomeCollector_StoreError(t *testing.T) {
	c := NewOutcomeCollector(fakeLister{err: eris.New("db down")})
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}
