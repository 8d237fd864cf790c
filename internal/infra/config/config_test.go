package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"APP_ENV", "CALENDAR_TZ", "SESSION_STORE", "SESSION_TTL", "AVAILABILITY_HORIZON_DAYS", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, time.UTC, cfg.CalendarTZ)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 365, cfg.HorizonDays)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadParsesValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CALENDAR_TZ", "America/Los_Angeles")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("AVAILABILITY_HORIZON_DAYS", "120")
	t.Setenv("AVAILABILITY_API_URL", "http://avail.local/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", cfg.CalendarTZ.String())
	assert.Equal(t, SessionStoreRedis, cfg.SessionStore)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 120, cfg.HorizonDays)
	assert.Equal(t, "http://avail.local", cfg.AvailabilityAPIURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	cases := map[string]string{
		"CALENDAR_TZ":               "Mars/Olympus",
		"SESSION_STORE":             "disk",
		"SESSION_TTL":               "soon",
		"AVAILABILITY_HORIZON_DAYS": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_ADDR=:9191\n"), 0o600))
	t.Setenv("HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.HTTPAddr)
}

func TestLoadFeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listings:
  - listing_id: loft-12
    feeds:
      - id: airbnb
        url: https://example.com/a.ics
      - url: https://example.com/b.ics
      - id: empty
  - listing_id: cabin-3
    feeds: []
`), 0o600))

	feeds, err := LoadFeeds(path)
	require.NoError(t, err)
	byListing := feeds.ByListing()
	require.Len(t, byListing["loft-12"], 2)
	assert.Equal(t, "airbnb", byListing["loft-12"][0].ID)
	assert.Equal(t, "loft-12-1", byListing["loft-12"][1].ID)
	assert.Empty(t, byListing["cabin-3"])

	none, err := LoadFeeds("")
	require.NoError(t, err)
	assert.Empty(t, none.Listings)
}
