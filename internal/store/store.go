// Package store persists canonical hazard records append-only, with a
// per-entity uniqueness invariant enforced by the store itself.
package store

import (
	"context"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
)

// Store is the append-only event store. Every insert is insert-if-absent: a
// conflict on the entity's uniqueness invariant is not an error, it returns
// isNew=false. The store's atomic conflict handling is the sole source of
// truth for "new vs duplicate" — callers never read-before-write, because two
// overlapping ticks may process the same provider response.
type Store interface {
	// InsertQuake stores an earthquake event, unique on (Time, Source).
	InsertQuake(ctx context.Context, e domain.QuakeEvent) (isNew bool, err error)

	// InsertWarning stores a warning bulletin, unique on ID.
	InsertWarning(ctx context.Context, w domain.WarningItem) (isNew bool, err error)

	// InsertForecast stores a forecast sample, unique on (Region, LocalTime).
	InsertForecast(ctx context.Context, f domain.ForecastSample) (isNew bool, err error)

	// ForecastWindow returns up to limit already-stored samples for region
	// with a local time in [from, from+window), ordered by local time.
	ForecastWindow(ctx context.Context, region string, from time.Time, window time.Duration, limit int) ([]domain.ForecastSample, error)
}
