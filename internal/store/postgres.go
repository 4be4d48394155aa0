package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/hazard-monitor/internal/domain"
)

// schema creates the three append-only tables. Uniqueness constraints carry
// the dedup invariants; ON CONFLICT DO NOTHING against them is what makes
// inserts idempotent under overlapping ticks.
const schema = `
CREATE TABLE IF NOT EXISTS quake_events (
	id             BIGSERIAL PRIMARY KEY,
	time           TIMESTAMPTZ NOT NULL,
	date           TEXT,
	clock          TEXT,
	magnitude      TEXT,
	depth          TEXT,
	region         TEXT,
	latitude       TEXT,
	longitude      TEXT,
	coordinates    TEXT,
	potential      TEXT,
	felt           TEXT,
	shakemap       TEXT,
	source         TEXT NOT NULL,
	UNIQUE (time, source)
);
CREATE TABLE IF NOT EXISTS warning_items (
	id             BIGSERIAL PRIMARY KEY,
	item_id        TEXT NOT NULL UNIQUE,
	title          TEXT,
	link           TEXT,
	published      TEXT,
	description    TEXT
);
CREATE TABLE IF NOT EXISTS forecast_samples (
	id             BIGSERIAL PRIMARY KEY,
	region         TEXT NOT NULL,
	analysis_date  TEXT,
	local_time     TIMESTAMPTZ NOT NULL,
	utc_time       TIMESTAMPTZ,
	temperature    DOUBLE PRECISION,
	humidity       DOUBLE PRECISION,
	description    TEXT,
	description_en TEXT,
	wind_speed     DOUBLE PRECISION,
	wind_direction TEXT,
	cloud_cover    DOUBLE PRECISION,
	visibility     TEXT,
	precipitation  DOUBLE PRECISION,
	raw_payload    BYTEA,
	UNIQUE (region, local_time)
);
`

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and ensures the schema exists.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Postgres{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Postgres) InsertQuake(ctx context.Context, e domain.QuakeEvent) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO quake_events (
			time, date, clock, magnitude, depth, region,
			latitude, longitude, coordinates, potential, felt, shakemap, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (time, source) DO NOTHING`,
		e.Time, e.Date, e.Clock, e.Magnitude, e.Depth, e.Region,
		e.Latitude, e.Longitude, e.Coordinates, e.Potential, e.Felt, e.Shakemap, string(e.Source),
	)
	if err != nil {
		return false, fmt.Errorf("insert quake: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) InsertWarning(ctx context.Context, w domain.WarningItem) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO warning_items (item_id, title, link, published, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (item_id) DO NOTHING`,
		w.ID, w.Title, w.Link, w.Published, w.Description,
	)
	if err != nil {
		return false, fmt.Errorf("insert warning: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) InsertForecast(ctx context.Context, f domain.ForecastSample) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO forecast_samples (
			region, analysis_date, local_time, utc_time, temperature, humidity,
			description, description_en, wind_speed, wind_direction,
			cloud_cover, visibility, precipitation, raw_payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (region, local_time) DO NOTHING`,
		f.Region, f.AnalysisDate, f.LocalTime, nullableTime(f.UTCTime),
		f.Temperature, f.Humidity, f.Description, f.DescriptionEN,
		f.WindSpeed, f.WindDirection, f.CloudCover, f.Visibility,
		f.Precipitation, f.RawPayload,
	)
	if err != nil {
		return false, fmt.Errorf("insert forecast: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) ForecastWindow(ctx context.Context, region string, from time.Time, window time.Duration, limit int) ([]domain.ForecastSample, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT region, analysis_date, local_time, utc_time, temperature, humidity,
		       description, description_en, wind_speed, wind_direction,
		       cloud_cover, visibility, precipitation, raw_payload
		FROM forecast_samples
		WHERE region = $1 AND local_time >= $2 AND local_time < $3
		ORDER BY local_time
		LIMIT $4`,
		region, from, from.Add(window), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query forecast window: %w", err)
	}
	defer rows.Close()

	var out []domain.ForecastSample
	for rows.Next() {
		var (
			f   domain.ForecastSample
			utc *time.Time
		)
		err := rows.Scan(
			&f.Region, &f.AnalysisDate, &f.LocalTime, &utc, &f.Temperature, &f.Humidity,
			&f.Description, &f.DescriptionEN, &f.WindSpeed, &f.WindDirection,
			&f.CloudCover, &f.Visibility, &f.Precipitation, &f.RawPayload,
		)
		if err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		if utc != nil {
			f.UTCTime = *utc
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecasts: %w", err)
	}
	return out, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
