// Package pipeline orchestrates the poll cycle: fetch each feed, canonicalize,
// store with dedup, and notify on genuinely new records.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/adapter/bmkg"
	"github.com/couchcryptid/hazard-monitor/internal/config"
	"github.com/couchcryptid/hazard-monitor/internal/domain"
	"github.com/couchcryptid/hazard-monitor/internal/notify"
	"github.com/couchcryptid/hazard-monitor/internal/observability"
	"github.com/couchcryptid/hazard-monitor/internal/store"
	"github.com/jonboulle/clockwork"
)

// summaryWindow and summaryLimit bound the daily weather summary: the next
// 24 hours of stored samples, at most 8 rows.
const (
	summaryWindow = 24 * time.Hour
	summaryLimit  = 8
)

// Fetcher retrieves one feed body with retries.
type Fetcher interface {
	Fetch(ctx context.Context, url string, kind domain.FeedKind) ([]byte, error)
}

// Notifier fans a rendered notification out to the configured channels.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notification)
}

// Publisher exports newly stored records. Optional; a failed publish never
// affects the tick outcome.
type Publisher interface {
	PublishQuake(ctx context.Context, e domain.QuakeEvent) error
	PublishWarning(ctx context.Context, w domain.WarningItem) error
	PublishForecast(ctx context.Context, f domain.ForecastSample) error
}

// TickResult counts what one poll cycle produced.
type TickResult struct {
	NewQuakes    int `json:"new_quakes"`
	NewWarnings  int `json:"new_warnings"`
	NewForecasts int `json:"new_forecasts"`
	Extreme      int `json:"extreme"`
}

// Monitor runs the poll cycle over all configured feeds. Scheduled and manual
// triggers share one mutex so at most one tick runs at a time.
type Monitor struct {
	cfg       *config.Config
	fetcher   Fetcher
	store     store.Store
	notifier  Notifier
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	// quakePacing spaces consecutive earthquake feed requests so the
	// upstream host never sees a burst.
	quakePacing time.Duration

	mu    sync.Mutex
	ticks int
}

// New creates a Monitor. publisher may be nil when Kafka export is disabled.
func New(cfg *config.Config, fetcher Fetcher, st store.Store, notifier Notifier, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Monitor {
	return &Monitor{
		cfg:         cfg,
		fetcher:     fetcher,
		store:       st,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		quakePacing: time.Second,
	}
}

// Tick runs one full poll cycle. Earthquake feeds run every tick in a fixed
// order; the warning and weather feeds run on their own tick cadence. A feed
// failure is logged and skipped, never aborting the rest of the cycle.
func (m *Monitor) Tick(ctx context.Context) (TickResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.TickRunning.Set(1)
	defer m.metrics.TickRunning.Set(0)
	start := m.clock.Now()

	tick := m.ticks
	m.ticks++

	var res TickResult
	m.runQuakes(ctx, &res)

	if tick%m.cfg.WarningEvery == 0 {
		m.runWarnings(ctx, &res)
	}
	if tick%m.cfg.WeatherEvery == 0 {
		m.runWeather(ctx, &res)
	}

	m.metrics.TickDuration.Observe(m.clock.Since(start).Seconds())
	m.metrics.LastTickNew.Set(float64(res.NewQuakes + res.NewWarnings + res.NewForecasts))
	m.logger.Info("tick complete",
		"new_quakes", res.NewQuakes,
		"new_warnings", res.NewWarnings,
		"new_forecasts", res.NewForecasts,
		"extreme", res.Extreme,
	)
	return res, ctx.Err()
}

// runQuakes polls the three earthquake feeds in their fixed order with a
// short pause between requests.
func (m *Monitor) runQuakes(ctx context.Context, res *TickResult) {
	for i, kind := range domain.QuakeKinds {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && !m.pause(ctx, m.quakePacing) {
			return
		}
		if err := m.pollQuakeFeed(ctx, kind, res); err != nil {
			m.logger.Error("quake feed failed", "kind", kind, "error", err)
		}
	}
}

func (m *Monitor) pollQuakeFeed(ctx context.Context, kind domain.FeedKind, res *TickResult) error {
	body, err := m.fetcher.Fetch(ctx, m.quakeURL(kind), kind)
	if err != nil {
		return err
	}
	records, err := bmkg.ParseQuakeFeed(body, kind)
	if err != nil {
		return err
	}

	for _, rec := range records {
		event, ok := bmkg.CanonicalQuake(rec, kind)
		if !ok {
			m.metrics.ItemsSkipped.WithLabelValues(string(kind), "bad_timestamp").Inc()
			continue
		}

		// Insert unconditionally; a store failure skips this item only,
		// siblings in the same response still get their chance.
		isNew, err := m.store.InsertQuake(ctx, event)
		if err != nil {
			m.logger.Error("store quake failed", "kind", kind, "error", err)
			m.metrics.ItemsSkipped.WithLabelValues(string(kind), "store").Inc()
			continue
		}
		if !isNew {
			m.metrics.Duplicates.WithLabelValues(string(kind)).Inc()
			continue
		}

		res.NewQuakes++
		m.metrics.ItemsStored.WithLabelValues(string(kind)).Inc()
		if m.publisher != nil {
			if err := m.publisher.PublishQuake(ctx, event); err != nil {
				m.logger.Warn("publish quake failed", "error", err)
			}
		}

		// Freshness gates notification only. Stale rows are still recorded,
		// so a first run against deep provider history fills the store
		// quietly instead of re-parsing the same history every tick.
		if !domain.IsFresh(event.Time, m.cfg.MaxAge) {
			m.metrics.ItemsSkipped.WithLabelValues(string(kind), "stale").Inc()
			continue
		}
		m.notifier.Dispatch(ctx, notify.QuakeNotification(event))
	}
	return nil
}

func (m *Monitor) runWarnings(ctx context.Context, res *TickResult) {
	if ctx.Err() != nil {
		return
	}
	kind := domain.FeedWarning
	body, err := m.fetcher.Fetch(ctx, m.cfg.WarningURL, kind)
	if err != nil {
		m.logger.Error("warning feed failed", "error", err)
		return
	}
	items, err := bmkg.ParseWarningFeed(body)
	if err != nil {
		m.logger.Error("warning feed unparsable", "error", err)
		return
	}

	for _, item := range items {
		isNew, err := m.store.InsertWarning(ctx, item)
		if err != nil {
			m.logger.Error("store warning failed", "error", err)
			m.metrics.ItemsSkipped.WithLabelValues(string(kind), "store").Inc()
			continue
		}
		if !isNew {
			m.metrics.Duplicates.WithLabelValues(string(kind)).Inc()
			continue
		}

		res.NewWarnings++
		m.metrics.ItemsStored.WithLabelValues(string(kind)).Inc()
		m.notifier.Dispatch(ctx, notify.WarningNotification(item))
		if m.publisher != nil {
			if err := m.publisher.PublishWarning(ctx, item); err != nil {
				m.logger.Warn("publish warning failed", "error", err)
			}
		}
	}
}

// runWeather polls the forecast endpoint per configured region. A region that
// stored at least one new sample gets a daily summary built from the stored
// window, never from the freshly parsed payload. The summary decision is made
// per region, right after its poll; only the tick counts accumulate across
// regions.
func (m *Monitor) runWeather(ctx context.Context, res *TickResult) {
	for _, region := range m.cfg.WeatherRegions {
		if ctx.Err() != nil {
			return
		}

		newSamples, err := m.pollRegion(ctx, region, res)
		if err != nil {
			m.logger.Error("weather feed failed", "region", region, "error", err)
			continue
		}
		if newSamples == 0 {
			continue
		}

		window, err := m.store.ForecastWindow(ctx, region, m.clock.Now(), summaryWindow, summaryLimit)
		if err != nil {
			m.logger.Error("forecast window query failed", "region", region, "error", err)
			continue
		}
		if len(window) > 0 {
			m.notifier.Dispatch(ctx, notify.ForecastSummaryNotification(region, window))
		}
	}
}

func (m *Monitor) pollRegion(ctx context.Context, region string, res *TickResult) (int, error) {
	kind := domain.FeedWeather
	body, err := m.fetcher.Fetch(ctx, fmt.Sprintf(m.cfg.WeatherURLTmpl, region), kind)
	if err != nil {
		return 0, err
	}
	samples, err := bmkg.ParseWeatherFeed(body)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, s := range samples {
		forecast, ok := bmkg.CanonicalForecast(s, region)
		if !ok {
			m.metrics.ItemsSkipped.WithLabelValues(string(kind), "bad_timestamp").Inc()
			continue
		}

		isNew, err := m.store.InsertForecast(ctx, forecast)
		if err != nil {
			m.logger.Error("store forecast failed", "region", region, "error", err)
			m.metrics.ItemsSkipped.WithLabelValues(string(kind), "store").Inc()
			continue
		}
		if !isNew {
			m.metrics.Duplicates.WithLabelValues(string(kind)).Inc()
			continue
		}

		stored++
		res.NewForecasts++
		m.metrics.ItemsStored.WithLabelValues(string(kind)).Inc()

		// Forecasts are normally future-dated, but a provider backfill can
		// carry past samples; those are stored without raising an alert.
		if domain.IsExtreme(forecast) && domain.IsFresh(forecast.LocalTime, m.cfg.MaxAge) {
			res.Extreme++
			m.metrics.ExtremeSamples.Inc()
			m.notifier.Dispatch(ctx, notify.ExtremeForecastNotification(forecast))
		}
		if m.publisher != nil {
			if err := m.publisher.PublishForecast(ctx, forecast); err != nil {
				m.logger.Warn("publish forecast failed", "error", err)
			}
		}
	}
	return stored, nil
}

func (m *Monitor) quakeURL(kind domain.FeedKind) string {
	switch kind {
	case domain.FeedQuakeLatest:
		return m.cfg.QuakeLatestURL
	case domain.FeedQuakeRecent:
		return m.cfg.QuakeRecentURL
	default:
		return m.cfg.QuakeFeltURL
	}
}

// pause sleeps for d unless the context ends first.
func (m *Monitor) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-m.clock.After(d):
		return true
	}
}
