// Package store persists call outcomes keyed by lead ID and backs the
// upstream response caches. It is the only durable state in the system.
package store

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hotleads/internal/cache"
	"github.com/sells-group/hotleads/internal/model"
)

// OutcomeStore maps lead IDs to their recorded call outcome.
type OutcomeStore interface {
	// All returns every recorded outcome keyed by lead ID.
	All(ctx context.Context) (map[string]model.Outcome, error)
	// Upsert inserts or replaces the outcome for id.
	Upsert(ctx context.Context, id string, outcome model.Outcome) error
}

// Store is an OutcomeStore with schema and cache management.
type Store interface {
	OutcomeStore

	// Cache returns a response cache isolated under namespace.
	Cache(namespace string) cache.Cache

	Migrate(ctx context.Context) error
	Close() error
}

// persistErr tags err as a persistence failure so callers can tell it apart
// from data-availability errors.
func persistErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	return eris.Wrap(fmt.Errorf("%w: %w", model.ErrPersistence, err), msg)
}
