package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/config"
	"github.com/couchcryptid/hazard-monitor/internal/domain"
	"github.com/couchcryptid/hazard-monitor/internal/notify"
	"github.com/couchcryptid/hazard-monitor/internal/observability"
	"github.com/couchcryptid/hazard-monitor/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixtures dated around testNow: quakes a few hours old, forecasts a few
// hours ahead.
var testNow = time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC)

const (
	latestBody = `{"Infogempa":{"gempa":{
		"DateTime":"2026-08-28T04:15:00+07:00",
		"Magnitude":"5.5","Kedalaman":"10 km","Wilayah":"Banten",
		"Potensi":"Tidak berpotensi tsunami","Shakemap":"map.jpg"}}}`

	recentBody = `{"Infogempa":{"gempa":[
		{"DateTime":"2026-08-28T03:00:00+07:00","Magnitude":"4.8","Wilayah":"Maluku"},
		{"DateTime":"2026-08-28T01:30:00+07:00","Magnitude":"5.1","Wilayah":"Sulawesi Utara"}]}}`

	feltBody = `{"Infogempa":{"gempa":[
		{"DateTime":"2026-08-28T02:45:00+07:00","Magnitude":"4.2","Wilayah":"Jawa Barat","Dirasakan":"II-III Bandung"}]}}`

	warningBody = `<?xml version="1.0"?>
<rss><channel>
<item><guid>warn-1</guid><title>Peringatan Dini Jakarta</title><pubDate>Fri, 28 Aug 2026 10:00:00 +0700</pubDate></item>
<item><guid>warn-2</guid><title>Peringatan Dini Banten</title></item>
</channel></rss>`

	weatherBody = `{"data":[{"cuaca":[[
		{"local_datetime":"2026-08-28 14:00:00","datetime":"2026-08-28T07:00:00Z","t":27,"hu":85,"ws":12,"weather_desc":"Berawan"},
		{"local_datetime":"2026-08-28 17:00:00","datetime":"2026-08-28T10:00:00Z","t":30,"hu":70,"ws":8,"weather_desc":"Cerah"}]]}]}`

	extremeWeatherBody = `{"data":[{"cuaca":[[
		{"local_datetime":"2026-08-28 14:00:00","t":26,"hu":96,"ws":45,"weather_desc":"Hujan Lebat","weather_desc_en":"Heavy Rain"}]]}]}`
)

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[domain.FeedKind]string
	fail   map[domain.FeedKind]error
	calls  []domain.FeedKind
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, kind domain.FeedKind) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	if err := f.fail[kind]; err != nil {
		return nil, err
	}
	body, ok := f.bodies[kind]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", kind)
	}
	return []byte(body), nil
}

func (f *fakeFetcher) countCalls(kind domain.FeedKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.calls {
		if k == kind {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (f *fakeNotifier) Dispatch(_ context.Context, n notify.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

func (f *fakeNotifier) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, n := range f.sent {
		out[i] = n.Title
	}
	return out
}

type fakePublisher struct {
	quakes    []domain.QuakeEvent
	warnings  []domain.WarningItem
	forecasts []domain.ForecastSample
	err       error
}

func (f *fakePublisher) PublishQuake(_ context.Context, e domain.QuakeEvent) error {
	f.quakes = append(f.quakes, e)
	return f.err
}

func (f *fakePublisher) PublishWarning(_ context.Context, w domain.WarningItem) error {
	f.warnings = append(f.warnings, w)
	return f.err
}

func (f *fakePublisher) PublishForecast(_ context.Context, fc domain.ForecastSample) error {
	f.forecasts = append(f.forecasts, fc)
	return f.err
}

func allFeedBodies() map[domain.FeedKind]string {
	return map[domain.FeedKind]string{
		domain.FeedQuakeLatest: latestBody,
		domain.FeedQuakeRecent: recentBody,
		domain.FeedQuakeFelt:   feltBody,
		domain.FeedWarning:     warningBody,
		domain.FeedWeather:     weatherBody,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		QuakeLatestURL: "http://feeds.test/autogempa.json",
		QuakeRecentURL: "http://feeds.test/gempaterkini.json",
		QuakeFeltURL:   "http://feeds.test/gempadirasakan.json",
		WarningURL:     "http://feeds.test/warning.xml",
		WeatherURLTmpl: "http://feeds.test/weather?adm4=%s",
		WeatherRegions: []string{"31.71.01.1001"},
		WarningEvery:   1,
		WeatherEvery:   1,
		MaxAge:         24 * time.Hour,
	}
}

func newTestMonitor(cfg *config.Config, fetcher Fetcher, notifier Notifier, publisher Publisher) (*Monitor, *store.Memory) {
	st := store.NewMemory()
	return newTestMonitorWithStore(cfg, fetcher, st, notifier, publisher), st
}

func newTestMonitorWithStore(cfg *config.Config, fetcher Fetcher, st store.Store, notifier Notifier, publisher Publisher) *Monitor {
	m := New(cfg, fetcher, st, notifier, publisher, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	m.clock = clockwork.NewFakeClockAt(testNow)
	m.quakePacing = 0
	return m
}

func TestTick_StoresAndNotifies(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	fetcher := &fakeFetcher{bodies: allFeedBodies()}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	m, st := newTestMonitor(testConfig(), fetcher, notifier, publisher)

	res, err := m.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.NewQuakes, "1 latest + 2 recent + 1 felt")
	assert.Equal(t, 2, res.NewWarnings)
	assert.Equal(t, 2, res.NewForecasts)
	assert.Equal(t, 0, res.Extreme)

	assert.Equal(t, 4, st.QuakeCount())
	assert.Equal(t, 2, st.WarningCount())
	assert.Equal(t, 2, st.ForecastCount())

	// 4 quake + 2 warning + 1 region summary notifications.
	titles := notifier.titles()
	assert.Len(t, titles, 7)
	assert.Contains(t, titles[0], "Gempa Terbaru")
	assert.Contains(t, titles[len(titles)-1], "Ringkasan Cuaca")

	assert.Len(t, publisher.quakes, 4)
	assert.Len(t, publisher.warnings, 2)
	assert.Len(t, publisher.forecasts, 2)
}

func TestTick_SecondRunIsQuiet(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	fetcher := &fakeFetcher{bodies: allFeedBodies()}
	notifier := &fakeNotifier{}
	m, _ := newTestMonitor(testConfig(), fetcher, notifier, nil)

	_, err := m.Tick(context.Background())
	require.NoError(t, err)
	firstSends := len(notifier.titles())

	res, err := m.Tick(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.NewQuakes)
	assert.Zero(t, res.NewWarnings)
	assert.Zero(t, res.NewForecasts)
	assert.Len(t, notifier.titles(), firstSends, "duplicates neither notify nor re-summarize")
}

func TestTick_QuakeOrderFixed(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	cfg := testConfig()
	cfg.WeatherRegions = nil
	fetcher := &fakeFetcher{bodies: allFeedBodies()}
	m, _ := newTestMonitor(cfg, fetcher, &fakeNotifier{}, nil)

	_, err := m.Tick(context.Background())
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(fetcher.calls), 3)
	assert.Equal(t, []domain.FeedKind{
		domain.FeedQuakeLatest,
		domain.FeedQuakeRecent,
		domain.FeedQuakeFelt,
	}, fetcher.calls[:3])
}

func TestTick_FeedFailureDoesNotAbortCycle(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	fetcher := &fakeFetcher{
		bodies: allFeedBodies(),
		fail:   map[domain.FeedKind]error{domain.FeedQuakeRecent: errors.New("upstream 503")},
	}
	m, st := newTestMonitor(testConfig(), fetcher, &fakeNotifier{}, nil)

	res, err := m.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.NewQuakes, "latest and felt survive the recent-feed failure")
	assert.Equal(t, 2, res.NewWarnings)
	assert.Equal(t, 2, st.WarningCount())
}

func TestTick_Cadence(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	cfg := testConfig()
	cfg.WarningEvery = 2
	cfg.WeatherEvery = 3
	fetcher := &fakeFetcher{bodies: allFeedBodies()}
	m, _ := newTestMonitor(cfg, fetcher, &fakeNotifier{}, nil)

	for i := 0; i < 4; i++ {
		_, err := m.Tick(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 4, fetcher.countCalls(domain.FeedQuakeLatest), "quakes run every tick")
	assert.Equal(t, 2, fetcher.countCalls(domain.FeedWarning), "ticks 0 and 2")
	assert.Equal(t, 2, fetcher.countCalls(domain.FeedWeather), "ticks 0 and 3")
}

func TestTick_StaleQuakeStoredButNotNotified(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	stale := `{"Infogempa":{"gempa":{"DateTime":"2026-08-20T04:15:00+07:00","Magnitude":"6.0","Wilayah":"Papua"}}}`
	cfg := testConfig()
	cfg.WarningEvery = 100
	cfg.WeatherEvery = 100
	fetcher := &fakeFetcher{bodies: map[domain.FeedKind]string{
		domain.FeedQuakeLatest: stale,
		domain.FeedQuakeRecent: `{"Infogempa":{"gempa":[]}}`,
		domain.FeedQuakeFelt:   `{"Infogempa":{"gempa":[]}}`,
	}}
	notifier := &fakeNotifier{}
	m, st := newTestMonitor(cfg, fetcher, notifier, nil)

	res, err := m.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.NewQuakes, "stale rows are still new rows")
	assert.Equal(t, 1, st.QuakeCount(), "freshness never prevents storage")
	assert.Empty(t, notifier.titles(), "freshness gates notification only")

	// The store learned about the item, so the next tick sees a duplicate
	// instead of re-parsing the same history.
	res, err = m.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.NewQuakes)
	assert.Equal(t, 1, st.QuakeCount())
}

// flakyStore fails inserts for one marked region, passing everything else
// through to the in-memory store.
type flakyStore struct {
	*store.Memory
	failRegion string
}

func (s *flakyStore) InsertQuake(ctx context.Context, e domain.QuakeEvent) (bool, error) {
	if e.Region == s.failRegion {
		return false, errors.New("connection reset")
	}
	return s.Memory.InsertQuake(ctx, e)
}

func TestTick_StoreFailureSkipsItemOnly(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	st := &flakyStore{Memory: store.NewMemory(), failRegion: "Maluku"}
	fetcher := &fakeFetcher{bodies: allFeedBodies()}
	notifier := &fakeNotifier{}
	m := newTestMonitorWithStore(testConfig(), fetcher, st, notifier, nil)

	res, err := m.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.NewQuakes, "only the failing item is lost")
	assert.Equal(t, 3, st.QuakeCount())
	assert.Equal(t, 2, res.NewWarnings, "sibling feeds are untouched")
	assert.Equal(t, 2, res.NewForecasts)
}

func TestTick_PastExtremeSampleStoredQuietly(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	pastExtreme := `{"data":[{"cuaca":[[
		{"local_datetime":"2026-08-18 14:00:00","t":26,"hu":96,"ws":60,"weather_desc":"Hujan Lebat"}]]}]}`
	cfg := testConfig()
	cfg.WarningEvery = 100
	fetcher := &fakeFetcher{bodies: map[domain.FeedKind]string{
		domain.FeedQuakeLatest: `{"Infogempa":{"gempa":null}}`,
		domain.FeedQuakeRecent: `{"Infogempa":{"gempa":[]}}`,
		domain.FeedQuakeFelt:   `{"Infogempa":{"gempa":[]}}`,
		domain.FeedWeather:     pastExtreme,
	}}
	notifier := &fakeNotifier{}
	m, st := newTestMonitor(cfg, fetcher, notifier, nil)

	res, err := m.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.NewForecasts, "past samples are still stored")
	assert.Equal(t, 1, st.ForecastCount())
	assert.Zero(t, res.Extreme, "a past-dated sample never raises an alert")
	assert.Empty(t, notifier.titles(), "and the summary window has nothing upcoming")
}

func TestTick_ExtremeForecastNotifiesImmediately(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	cfg := testConfig()
	fetcher := &fakeFetcher{bodies: allFeedBodies()}
	fetcher.bodies[domain.FeedWeather] = extremeWeatherBody
	notifier := &fakeNotifier{}
	m, _ := newTestMonitor(cfg, fetcher, notifier, nil)

	res, err := m.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Extreme)

	var priority int
	for _, n := range notifier.sent {
		if n.Priority {
			priority++
		}
	}
	assert.Equal(t, 1, priority)
}

func TestTick_PublishFailureDoesNotAffectResult(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	fetcher := &fakeFetcher{bodies: allFeedBodies()}
	publisher := &fakePublisher{err: errors.New("broker down")}
	m, st := newTestMonitor(testConfig(), fetcher, &fakeNotifier{}, publisher)

	res, err := m.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.NewQuakes)
	assert.Equal(t, 4, st.QuakeCount())
}

func TestTick_CancelledContext(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	defer domain.SetClock(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{bodies: allFeedBodies()}
	m, st := newTestMonitor(testConfig(), fetcher, &fakeNotifier{}, nil)

	_, err := m.Tick(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, st.QuakeCount())
}
