package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
)

// Memory is an in-process Store used by tests and by deployments that can
// tolerate losing dedup state on restart (STORE_DRIVER=memory). Semantics
// match the postgres store: insert-if-absent, append-only.
type Memory struct {
	mu        sync.Mutex
	quakes    map[string]domain.QuakeEvent
	warnings  map[string]domain.WarningItem
	forecasts map[string]domain.ForecastSample
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		quakes:    make(map[string]domain.QuakeEvent),
		warnings:  make(map[string]domain.WarningItem),
		forecasts: make(map[string]domain.ForecastSample),
	}
}

func (m *Memory) InsertQuake(_ context.Context, e domain.QuakeEvent) (bool, error) {
	key := e.Time.UTC().Format(time.RFC3339Nano) + "|" + string(e.Source)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.quakes[key]; exists {
		return false, nil
	}
	m.quakes[key] = e
	return true, nil
}

func (m *Memory) InsertWarning(_ context.Context, w domain.WarningItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.warnings[w.ID]; exists {
		return false, nil
	}
	m.warnings[w.ID] = w
	return true, nil
}

func (m *Memory) InsertForecast(_ context.Context, f domain.ForecastSample) (bool, error) {
	key := f.Region + "|" + f.LocalTime.UTC().Format(time.RFC3339Nano)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.forecasts[key]; exists {
		return false, nil
	}
	m.forecasts[key] = f
	return true, nil
}

func (m *Memory) ForecastWindow(_ context.Context, region string, from time.Time, window time.Duration, limit int) ([]domain.ForecastSample, error) {
	until := from.Add(window)

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.ForecastSample
	for _, f := range m.forecasts {
		if f.Region != region {
			continue
		}
		if f.LocalTime.Before(from) || !f.LocalTime.Before(until) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalTime.Before(out[j].LocalTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// QuakeCount reports the number of stored earthquake events.
func (m *Memory) QuakeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.quakes)
}

// WarningCount reports the number of stored warning bulletins.
func (m *Memory) WarningCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.warnings)
}

// ForecastCount reports the number of stored forecast samples.
func (m *Memory) ForecastCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.forecasts)
}
