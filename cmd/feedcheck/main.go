// Command feedcheck performs a one-shot fetch-and-parse pass over the live
// feeds without storing or notifying anything. It verifies each feed is
// reachable, parses, and yields records with usable timestamps, then prints
// a per-feed summary. Exits non-zero if any checked feed fails.
//
// Usage:
//
//	go run ./cmd/feedcheck -regions 31.71.01.1001,32.04.11.2003
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/adapter/bmkg"
	"github.com/couchcryptid/hazard-monitor/internal/config"
	"github.com/couchcryptid/hazard-monitor/internal/domain"
	"github.com/couchcryptid/hazard-monitor/internal/observability"
)

// phase tracks pass/fail for one feed check.
type phase struct {
	name   string
	detail string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	regionsFlag := flag.String("regions", "", "comma-separated region codes to check the weather feed with (overrides WEATHER_REGIONS)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline for the whole check")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *regionsFlag != "" {
		cfg.WeatherRegions = strings.Split(*regionsFlag, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := observability.NewLogger("warn", "text")
	metrics := observability.NewMetricsForTesting()
	fetcher := bmkg.NewFetcher(1, 0, cfg.ConnectTimeout, cfg.RequestTimeout, logger, metrics)

	phases := []*phase{
		checkQuake(ctx, fetcher, cfg.QuakeLatestURL, domain.FeedQuakeLatest),
		checkQuake(ctx, fetcher, cfg.QuakeRecentURL, domain.FeedQuakeRecent),
		checkQuake(ctx, fetcher, cfg.QuakeFeltURL, domain.FeedQuakeFelt),
		checkWarning(ctx, fetcher, cfg.WarningURL),
	}
	for _, region := range cfg.WeatherRegions {
		phases = append(phases, checkWeather(ctx, fetcher, cfg.WeatherURLTmpl, region))
	}

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %-22s %s\n", p.name, p.detail)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      %s\n", e)
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d checks failed\n", failed, len(phases))
		os.Exit(1)
	}
	fmt.Printf("\nall %d checks passed\n", len(phases))
}

func checkQuake(ctx context.Context, fetcher *bmkg.Fetcher, url string, kind domain.FeedKind) *phase {
	p := &phase{name: string(kind)}

	body, err := fetcher.Fetch(ctx, url, kind)
	if err != nil {
		p.errorf("fetch: %v", err)
		return p
	}
	records, err := bmkg.ParseQuakeFeed(body, kind)
	if err != nil {
		p.errorf("parse: %v", err)
		return p
	}
	if len(records) == 0 {
		p.errorf("feed parsed but contains no events")
		return p
	}

	usable := 0
	for _, rec := range records {
		if _, ok := bmkg.CanonicalQuake(rec, kind); ok {
			usable++
		}
	}
	if usable == 0 {
		p.errorf("%d events, none with a parsable timestamp", len(records))
		return p
	}
	p.detail = fmt.Sprintf("%d events, %d usable", len(records), usable)
	return p
}

func checkWarning(ctx context.Context, fetcher *bmkg.Fetcher, url string) *phase {
	p := &phase{name: "warning"}

	body, err := fetcher.Fetch(ctx, url, domain.FeedWarning)
	if err != nil {
		p.errorf("fetch: %v", err)
		return p
	}
	items, err := bmkg.ParseWarningFeed(body)
	if err != nil {
		p.errorf("parse: %v", err)
		return p
	}
	// An empty warning feed is normal on a quiet day.
	p.detail = fmt.Sprintf("%d items", len(items))
	return p
}

func checkWeather(ctx context.Context, fetcher *bmkg.Fetcher, tmpl, region string) *phase {
	p := &phase{name: "weather " + region}

	body, err := fetcher.Fetch(ctx, fmt.Sprintf(tmpl, region), domain.FeedWeather)
	if err != nil {
		p.errorf("fetch: %v", err)
		return p
	}
	samples, err := bmkg.ParseWeatherFeed(body)
	if err != nil {
		p.errorf("parse: %v", err)
		return p
	}
	if len(samples) == 0 {
		p.errorf("feed parsed but yielded no samples")
		return p
	}

	usable := 0
	for _, s := range samples {
		if _, ok := bmkg.CanonicalForecast(s, region); ok {
			usable++
		}
	}
	p.detail = fmt.Sprintf("%d samples, %d usable", len(samples), usable)
	return p
}
