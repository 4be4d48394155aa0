package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Contains(t, cfg.QuakeLatestURL, "autogempa.json")
	assert.Contains(t, cfg.QuakeRecentURL, "gempaterkini.json")
	assert.Contains(t, cfg.QuakeFeltURL, "gempadirasakan.json")
	assert.Contains(t, cfg.WeatherURLTmpl, "%s")
	assert.Empty(t, cfg.WeatherRegions)

	assert.Equal(t, 15*time.Minute, cfg.TickInterval)
	assert.Equal(t, 2, cfg.WarningEvery)
	assert.Equal(t, 4, cfg.WeatherEvery)

	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 5*time.Second, cfg.RetryDelay)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.MaxAge)

	assert.False(t, cfg.SlackEnabled)
	assert.False(t, cfg.TelegramEnabled)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("TICK_INTERVAL", "5m")
	t.Setenv("WARNING_EVERY_TICKS", "3")
	t.Setenv("WEATHER_EVERY_TICKS", "6")
	t.Setenv("WEATHER_REGIONS", "31.71.01.1001, 32.04.11.2003,")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("RETRY_DELAY", "2s")
	t.Setenv("MAX_AGE", "12h")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "hazard-export")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 5*time.Minute, cfg.TickInterval)
	assert.Equal(t, 3, cfg.WarningEvery)
	assert.Equal(t, 6, cfg.WeatherEvery)
	assert.Equal(t, []string{"31.71.01.1001", "32.04.11.2003"}, cfg.WeatherRegions)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "hazard-export", cfg.KafkaTopic)
}

func TestLoad_InvalidTickInterval(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TICK_INTERVAL")
}

func TestLoad_NegativeMaxAge(t *testing.T) {
	t.Setenv("MAX_AGE", "-1h")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_AGE")
}

func TestLoad_InvalidWarningCadence(t *testing.T) {
	t.Setenv("WARNING_EVERY_TICKS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WARNING_EVERY_TICKS")
}

func TestLoad_WeatherTemplateWithoutPlaceholder(t *testing.T) {
	t.Setenv("WEATHER_URL_TEMPLATE", "https://api.bmkg.go.id/publik/prakiraan-cuaca")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_URL_TEMPLATE")
}

func TestLoad_SlackEnabledWithoutWebhook(t *testing.T) {
	t.Setenv("SLACK_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SLACK_WEBHOOK_URL")
}

func TestLoad_TelegramEnabledWithoutChatID(t *testing.T) {
	t.Setenv("TELEGRAM_ENABLED", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_CHAT_ID")
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_UnknownStoreDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER")
}
