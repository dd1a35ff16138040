package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/pkg/overpass"
)

// --- GeoResolver Mock ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, postalCode string) (model.Coordinates, error) {
	args := m.Called(ctx, postalCode)
	return args.Get(0).(model.Coordinates), args.Error(1)
}

// --- LeadSource Mock ---

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Fetch(ctx context.Context, q overpass.Query) (*overpass.Response, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*overpass.Response), args.Error(1)
}

// --- OutcomeStore Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) All(ctx context.Context) (map[string]model.Outcome, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.Outcome), args.Error(1)
}

func (m *mockStore) Upsert(ctx context.Context, id string, outcome model.Outcome) error {
	args := m.Called(ctx, id, outcome)
	return args.Error(0)
}

// --- Purger Mock ---

type mockPurger struct {
	mock.Mock
}

func (m *mockPurger) Purge(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Runner Mock ---

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, params model.SearchParams) (*model.Snapshot, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snapshot), args.Error(1)
}

// memStore is a map-backed OutcomeStore that counts writes.
type memStore struct {
	outcomes map[string]model.Outcome
	writes   int
}

func newMemStore() *memStore {
	return &memStore{outcomes: make(map[string]model.Outcome)}
}

func (s *memStore) All(context.Context) (map[string]model.Outcome, error) {
	out := make(map[string]model.Outcome, len(s.outcomes))
	for k, v := range s.outcomes {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Upsert(_ context.Context, id string, outcome model.Outcome) error {
	s.outcomes[id] = outcome
	s.writes++
	return nil
}
