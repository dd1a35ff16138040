package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/internal/monitoring"
	"github.com/sells-group/hotleads/internal/store"
)

// Change is one row whose outcome the operator edited.
type Change struct {
	Row      int           `json:"row"`
	ID       string        `json:"id"`
	Previous model.Outcome `json:"previous"`
	Outcome  model.Outcome `json:"outcome"`
}

// Diff compares the outcome column of two snapshots row by row. Both must
// hold the same leads in the same order; cur is an edited copy of prev.
func Diff(prev, cur model.Snapshot) ([]Change, error) {
	if len(prev.Leads) != len(cur.Leads) {
		return nil, eris.Wrapf(model.ErrInvalidInput,
			"pipeline: snapshots differ in length (%d vs %d rows)", len(prev.Leads), len(cur.Leads))
	}

	var changes []Change
	for i := range cur.Leads {
		p, c := prev.Leads[i], cur.Leads[i]
		if p.ID != c.ID {
			return nil, eris.Wrapf(model.ErrInvalidInput,
				"pipeline: row %d is %s in the previous snapshot but %s now", i, p.ID, c.ID)
		}
		if normalize(p.Outcome) == normalize(c.Outcome) {
			continue
		}
		changes = append(changes, Change{Row: i, ID: c.ID, Previous: normalize(p.Outcome), Outcome: normalize(c.Outcome)})
	}
	return changes, nil
}

// Reconcile writes every changed outcome between prev and cur to st and
// returns the changes applied. On a store failure the changes written so far
// are returned with the error; replaying is safe because upserts are
// idempotent.
func Reconcile(ctx context.Context, st store.OutcomeStore, prev, cur model.Snapshot, metrics *monitoring.Metrics) ([]Change, error) {
	changes, err := Diff(prev, cur)
	if err != nil {
		return nil, err
	}

	for i, ch := range changes {
		if err := st.Upsert(ctx, ch.ID, ch.Outcome); err != nil {
			return changes[:i], eris.Wrapf(err, "pipeline: reconcile %s", ch.ID)
		}
		metrics.IncrementOutcomeUpdate(ch.Outcome)
		zap.L().Info("pipeline: outcome recorded",
			zap.String("lead_id", ch.ID),
			zap.String("previous", ch.Previous.String()),
			zap.String("outcome", ch.Outcome.String()),
		)
	}
	return changes, nil
}

func normalize(o model.Outcome) model.Outcome {
	if o == "" {
		return model.OutcomeUncalled
	}
	return o
}
