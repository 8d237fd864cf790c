package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                 string
	HTTPAddr            string
	CalendarTZ          *time.Location
	SessionStore        string
	RedisURL            string
	SessionTTL          time.Duration
	MongoURI            string
	MongoDB             string
	KafkaBrokers        []string
	KafkaTopicPrefix    string
	KafkaGroupID        string
	AvailabilityAPIURL  string
	AvailabilityTimeout time.Duration
	HorizonDays         int
	FeedsFile           string
	RefreshCron         string
	CleaningBufferDays  int
	AllowedOrigins      []string
}

// Load parses configuration from the current environment. A .env file in the
// working directory is applied first when present; real variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		SessionStore:       strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "rentcal"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "rentcal"),
		AvailabilityAPIURL: strings.TrimRight(os.Getenv("AVAILABILITY_API_URL"), "/"),
		FeedsFile:          os.Getenv("FEEDS_FILE"),
		RefreshCron:        getEnv("REFRESH_CRON", "*/15 * * * *"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
	}

	zone, err := time.LoadLocation(getEnv("CALENDAR_TZ", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CALENDAR_TZ: %w", err)
	}
	cfg.CalendarTZ = zone

	if cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.AvailabilityTimeout, err = parseDurationEnv("AVAILABILITY_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.HorizonDays, err = parseIntEnv("AVAILABILITY_HORIZON_DAYS", 365); err != nil {
		return Config{}, err
	}
	if cfg.CleaningBufferDays, err = parseIntEnv("CLEANING_BUFFER_DAYS", 0); err != nil {
		return Config{}, err
	}

	switch cfg.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return Config{}, fmt.Errorf("invalid SESSION_STORE %q", cfg.SessionStore)
	}
	if cfg.HorizonDays <= 0 {
		return Config{}, fmt.Errorf("AVAILABILITY_HORIZON_DAYS must be positive")
	}
	if cfg.CleaningBufferDays < 0 {
		return Config{}, fmt.Errorf("CLEANING_BUFFER_DAYS must not be negative")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}
