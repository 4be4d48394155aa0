package bmkg

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
	"github.com/couchcryptid/hazard-monitor/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(attempts int) *Fetcher {
	return NewFetcher(attempts, 0, time.Second, 5*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestFetchSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"ok":1}`))
	}))
	defer srv.Close()

	body, err := newTestFetcher(3).Fetch(context.Background(), srv.URL, domain.FeedQuakeLatest)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":1}`, string(body))
}

func TestFetchRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := newTestFetcher(3).Fetch(context.Background(), srv.URL, domain.FeedWarning)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchExhaustsAttempts(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestFetcher(3).Fetch(context.Background(), srv.URL, domain.FeedWeather)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted 3 attempts")
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchNon2xxIsFailure(t *testing.T) {
	// A redirect-range status that slips past the client's redirect handling
	// still counts as a failed attempt.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	_, err := newTestFetcher(1).Fetch(context.Background(), srv.URL, domain.FeedQuakeFelt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 304")
}

func TestFetchCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher(3).Fetch(ctx, srv.URL, domain.FeedQuakeLatest)
	assert.ErrorIs(t, err, context.Canceled)
}
