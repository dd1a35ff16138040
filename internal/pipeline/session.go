package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/internal/monitoring"
	"github.com/sells-group/hotleads/internal/store"
)

// Runner executes one search.
type Runner interface {
	Run(ctx context.Context, params model.SearchParams) (*model.Snapshot, error)
}

// Session is one operator's working state: the last snapshot shown and a
// guard that admits a single search or reconcile at a time.
type Session struct {
	runner  Runner
	store   store.OutcomeStore
	metrics *monitoring.Metrics
	sem     *semaphore.Weighted

	mu       sync.RWMutex
	previous *model.Snapshot
}

// NewSession creates an empty session.
func NewSession(r Runner, st store.OutcomeStore, metrics *monitoring.Metrics) *Session {
	return &Session{
		runner:  r,
		store:   st,
		metrics: metrics,
		sem:     semaphore.NewWeighted(1),
	}
}

func (s *Session) acquire() error {
	if !s.sem.TryAcquire(1) {
		return eris.Wrap(model.ErrRunInProgress, "session: busy")
	}
	return nil
}

// Search runs the pipeline and, on success, makes the result the snapshot
// later edits are reconciled against. A failed search leaves the previous
// snapshot in place.
func (s *Session) Search(ctx context.Context, params model.SearchParams) (*model.Snapshot, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	snap, err := s.runner.Run(ctx, params)
	if err != nil {
		return nil, err
	}

	kept := snap.Clone()
	s.mu.Lock()
	s.previous = &kept
	s.mu.Unlock()
	return snap, nil
}

// Current returns a copy of the snapshot edits apply to.
func (s *Session) Current() (model.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.previous == nil {
		return model.Snapshot{}, false
	}
	return s.previous.Clone(), true
}

// Reconcile applies cur against the previous snapshot and advances it to cur
// once every change is stored, so an edit is written only once.
func (s *Session) Reconcile(ctx context.Context, cur model.Snapshot) ([]Change, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	prev, ok := s.Current()
	if !ok {
		return nil, eris.Wrap(model.ErrNoData, "session: no snapshot to reconcile against")
	}

	changes, err := Reconcile(ctx, s.store, prev, cur, s.metrics)
	if err != nil {
		return changes, err
	}

	kept := cur.Clone()
	s.mu.Lock()
	s.previous = &kept
	s.mu.Unlock()
	return changes, nil
}

// SetOutcomes edits the outcome column of the current snapshot in row order
// and reconciles the result.
func (s *Session) SetOutcomes(ctx context.Context, outcomes []model.Outcome) ([]Change, model.Snapshot, error) {
	cur, ok := s.Current()
	if !ok {
		return nil, model.Snapshot{}, eris.Wrap(model.ErrNoData, "session: no snapshot to edit")
	}
	if len(outcomes) != len(cur.Leads) {
		return nil, model.Snapshot{}, eris.Wrapf(model.ErrInvalidInput,
			"session: got %d outcomes for %d rows", len(outcomes), len(cur.Leads))
	}
	for i, o := range outcomes {
		cur.Leads[i].Outcome = o
	}

	changes, err := s.Reconcile(ctx, cur)
	if err != nil {
		return changes, model.Snapshot{}, err
	}
	return changes, cur, nil
}
