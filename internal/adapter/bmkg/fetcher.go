// Package bmkg fetches and decodes the BMKG hazard feeds: earthquake JSON
// (with legacy XML support), early-warning RSS, and regional weather JSON.
package bmkg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
	"github.com/couchcryptid/hazard-monitor/internal/observability"
)

const userAgent = "hazard-monitor/1.0"

// maxBodyBytes caps feed responses; the largest BMKG payload (a full weather
// forecast) is well under 1 MiB.
const maxBodyBytes = 4 << 20

// Fetcher retrieves a remote feed as raw bytes with bounded retries.
// After exhausting its attempts it returns a terminal error; callers must not
// retry further within the same tick.
type Fetcher struct {
	client   *http.Client
	attempts int
	delay    time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewFetcher creates a Fetcher. Each attempt is bounded by connectTimeout for
// dialing and totalTimeout for the whole request; attempts are separated by a
// fixed delay with no backoff, matching the provider's own guidance.
func NewFetcher(attempts int, delay, connectTimeout, totalTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: connectTimeout,
	}
	return &Fetcher{
		client:   &http.Client{Timeout: totalTimeout, Transport: transport},
		attempts: attempts,
		delay:    delay,
		logger:   logger,
		metrics:  metrics,
	}
}

// Fetch retrieves url, retrying transient failures. An attempt succeeds only
// when the transport completes without error and the status is 2xx.
func (f *Fetcher) Fetch(ctx context.Context, url string, kind domain.FeedKind) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			if !sleepWithContext(ctx, f.delay) {
				return nil, ctx.Err()
			}
		}

		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			f.metrics.FetchAttempts.WithLabelValues(string(kind), "success").Inc()
			return body, nil
		}
		lastErr = err

		f.metrics.FetchAttempts.WithLabelValues(string(kind), "failure").Inc()
		f.logger.Warn("fetch attempt failed",
			"feed", kind,
			"attempt", attempt,
			"url", url,
			"error", err,
		)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	f.metrics.FeedFailures.WithLabelValues(string(kind)).Inc()
	return nil, fmt.Errorf("fetch %s: exhausted %d attempts: %w", kind, f.attempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes)) //nolint:errcheck
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
