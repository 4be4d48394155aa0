package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Feed endpoints. Each earthquake kind has its own URL; the weather URL
	// is a template with a %s placeholder for the region code.
	QuakeLatestURL string
	QuakeRecentURL string
	QuakeFeltURL   string
	WarningURL     string
	WeatherURLTmpl string
	WeatherRegions []string

	// Polling cadence. The scheduler fires every TickInterval; warnings are
	// checked every WarningEvery ticks and weather every WeatherEvery ticks.
	TickInterval time.Duration
	WarningEvery int
	WeatherEvery int

	// Fetch behavior.
	RetryAttempts  int
	RetryDelay     time.Duration
	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	// MaxAge is the freshness window; older items are skipped silently.
	MaxAge time.Duration

	// Notification channels.
	SlackEnabled    bool
	SlackWebhookURL string
	TelegramEnabled bool
	TelegramToken   string
	TelegramChatID  string
	ChannelTimeout  time.Duration

	// Storage. StoreDriver is "postgres" or "memory".
	StoreDriver string
	DatabaseURL string

	// Optional Kafka export of newly stored records.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A validation failure here prevents any polling from starting.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	tickInterval, err := parseDuration("TICK_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	retryDelay, err := parseDuration("RETRY_DELAY", "5s")
	if err != nil {
		return nil, err
	}
	connectTimeout, err := parseDuration("CONNECT_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parseDuration("REQUEST_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	channelTimeout, err := parseDuration("CHANNEL_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	maxAge, err := parseDuration("MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}

	warningEvery, err := parsePositiveInt("WARNING_EVERY_TICKS", 2)
	if err != nil {
		return nil, err
	}
	weatherEvery, err := parsePositiveInt("WEATHER_EVERY_TICKS", 4)
	if err != nil {
		return nil, err
	}
	retryAttempts, err := parsePositiveInt("RETRY_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		QuakeLatestURL: envOrDefault("QUAKE_LATEST_URL", "https://data.bmkg.go.id/DataMKG/TEWS/autogempa.json"),
		QuakeRecentURL: envOrDefault("QUAKE_RECENT_URL", "https://data.bmkg.go.id/DataMKG/TEWS/gempaterkini.json"),
		QuakeFeltURL:   envOrDefault("QUAKE_FELT_URL", "https://data.bmkg.go.id/DataMKG/TEWS/gempadirasakan.json"),
		WarningURL:     envOrDefault("WARNING_URL", "https://data.bmkg.go.id/peringatan-dini-cuaca.xml"),
		WeatherURLTmpl: envOrDefault("WEATHER_URL_TEMPLATE", "https://api.bmkg.go.id/publik/prakiraan-cuaca?adm4=%s"),
		WeatherRegions: splitList(os.Getenv("WEATHER_REGIONS")),

		TickInterval: tickInterval,
		WarningEvery: warningEvery,
		WeatherEvery: weatherEvery,

		RetryAttempts:  retryAttempts,
		RetryDelay:     retryDelay,
		ConnectTimeout: connectTimeout,
		RequestTimeout: requestTimeout,

		MaxAge: maxAge,

		SlackEnabled:    envBool("SLACK_ENABLED"),
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		TelegramEnabled: envBool("TELEGRAM_ENABLED"),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:  os.Getenv("TELEGRAM_CHAT_ID"),
		ChannelTimeout:  channelTimeout,

		StoreDriver: envOrDefault("STORE_DRIVER", "memory"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		KafkaEnabled: envBool("KAFKA_ENABLED"),
		KafkaBrokers: splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "hazard-records"),
	}

	if cfg.WeatherURLTmpl != "" && !strings.Contains(cfg.WeatherURLTmpl, "%s") {
		return nil, errors.New("WEATHER_URL_TEMPLATE must contain a %s region placeholder")
	}
	if cfg.SlackEnabled && cfg.SlackWebhookURL == "" {
		return nil, errors.New("SLACK_ENABLED is true but SLACK_WEBHOOK_URL is not set")
	}
	if cfg.TelegramEnabled && (cfg.TelegramToken == "" || cfg.TelegramChatID == "") {
		return nil, errors.New("TELEGRAM_ENABLED is true but TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID is not set")
	}
	switch cfg.StoreDriver {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("STORE_DRIVER is postgres but DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	return os.Getenv(key) == "true"
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// splitList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
