// Package pipeline turns a postal code and search window into a ranked list
// of fresh, uncontacted leads, and reconciles operator edits back into the
// outcome store.
package pipeline

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/internal/monitoring"
	"github.com/sells-group/hotleads/internal/store"
	"github.com/sells-group/hotleads/pkg/geocode"
	"github.com/sells-group/hotleads/pkg/overpass"
)

// DefaultMaxResults caps the leads returned by one run.
const DefaultMaxResults = 50

// Purger drops cached upstream results.
type Purger interface {
	Purge(ctx context.Context) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxResults overrides the result cap.
func WithMaxResults(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxResults = n
		}
	}
}

// WithPurgers sets the caches cleared when a search asks for a refresh.
func WithPurgers(purgers ...Purger) Option {
	return func(p *Pipeline) {
		p.purgers = purgers
	}
}

// WithMetrics records run metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// Pipeline runs geocode, query, extract, dedup, rank and cap in sequence.
type Pipeline struct {
	geo        geocode.Resolver
	source     overpass.Source
	store      store.OutcomeStore
	extractor  *Extractor
	maxResults int
	purgers    []Purger
	metrics    *monitoring.Metrics
	now        func() time.Time
}

// New creates a Pipeline.
func New(geo geocode.Resolver, source overpass.Source, st store.OutcomeStore, ext *Extractor, opts ...Option) *Pipeline {
	if ext == nil {
		ext = NewExtractor("")
	}
	p := &Pipeline{
		geo:        geo,
		source:     source,
		store:      st,
		extractor:  ext,
		maxResults: DefaultMaxResults,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one search. Every failure wraps one of the model sentinels;
// the outcome store is only read.
func (p *Pipeline) Run(ctx context.Context, params model.SearchParams) (*model.Snapshot, error) {
	start := p.now()
	snap, err := p.run(ctx, params)
	leads := 0
	if snap != nil {
		leads = len(snap.Leads)
	}
	p.metrics.ObserveRun(err, leads, p.now().Sub(start))
	return snap, err
}

func (p *Pipeline) run(ctx context.Context, params model.SearchParams) (*model.Snapshot, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("zip", params.PostalCode),
		zap.Int("radius_mi", params.RadiusMiles),
		zap.Int("days", params.RecencyDays),
	)
	log.Info("pipeline: starting search", zap.Bool("refresh", params.Refresh))

	if params.Refresh {
		p.Purge(ctx)
	}

	center, err := p.geo.Resolve(ctx, params.PostalCode)
	if err != nil {
		if !errors.Is(err, model.ErrGeocodeFailed) {
			err = eris.Wrapf(model.ErrGeocodeFailed, "pipeline: geocode: %v", err)
		}
		return nil, err
	}

	today := p.now()
	resp, err := p.source.Fetch(ctx, overpass.Query{
		Center:      center,
		RadiusMiles: params.RadiusMiles,
		RecencyDays: params.RecencyDays,
		Today:       today,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Elements) == 0 {
		return nil, eris.Wrap(model.ErrNoData, "pipeline: query returned no elements")
	}

	leads := p.extractor.Extract(resp, params.PostalCode, today)
	if len(leads) == 0 {
		return nil, eris.Wrap(model.ErrNoData, "pipeline: no usable leads")
	}

	worked, err := p.store.All(ctx)
	if err != nil {
		if !errors.Is(err, model.ErrPersistence) {
			err = eris.Wrap(model.ErrPersistence, err.Error())
		}
		return nil, err
	}

	ranked := Rank(leads, worked, p.maxResults)
	if len(ranked) == 0 {
		return nil, eris.Wrap(model.ErrNoData, "pipeline: every lead already has an outcome")
	}

	origin := center.NewPoint()
	for i := range ranked {
		ranked[i].Outcome = model.OutcomeUncalled
		ranked[i].DistanceMiles = model.DistanceMiles(origin, ranked[i].Location)
	}

	log.Info("pipeline: search complete",
		zap.Int("extracted", len(leads)),
		zap.Int("already_worked", len(worked)),
		zap.Int("returned", len(ranked)),
	)

	return &model.Snapshot{
		ID:         uuid.NewString(),
		PostalCode: params.PostalCode,
		CreatedAt:  today.UTC(),
		Leads:      ranked,
	}, nil
}

// Purge clears every configured cache. Failures are logged, not returned, so
// a stale cache never blocks a search.
func (p *Pipeline) Purge(ctx context.Context) {
	for _, pg := range p.purgers {
		if err := pg.Purge(ctx); err != nil {
			zap.L().Warn("pipeline: purge cache", zap.Error(err))
		}
	}
	p.metrics.IncrementCachePurge()
}

// Rank stable-sorts leads by score descending, drops any whose ID is in
// worked, and keeps at most limit. The input slice is not modified.
func Rank(leads []model.Lead, worked map[string]model.Outcome, limit int) []model.Lead {
	sorted := slices.Clone(leads)
	slices.SortStableFunc(sorted, func(a, b model.Lead) int {
		return cmp.Compare(b.Score, a.Score)
	})

	out := make([]model.Lead, 0, min(len(sorted), max(limit, 0)))
	for _, l := range sorted {
		if len(out) >= limit {
			break
		}
		if _, seen := worked[l.ID]; seen {
			continue
		}
		out = append(out, l)
	}
	return out
}
