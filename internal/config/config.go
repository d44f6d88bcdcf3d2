// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EventBusRedis = "redis"
	EventBusKafka = "kafka"
	EventBusNone  = "none"
)

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	EventBus     string
	KafkaBrokers []string

	LargeTransferThreshold int64
}

// UsesMemoryStore reports whether no database is configured, in which case
// the service keeps all state in process.
func (c *Config) UsesMemoryStore() bool { return c.DatabaseURL == "" }

// Load reads the given .env files (".env" when none are named) if they
// exist, then builds the Config from the environment. Variables already set
// in the environment win over .env entries.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		EventBus:       strings.ToLower(getEnv("EVENT_BUS", EventBusRedis)),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	threshold, err := getInt("LARGE_TRANSFER_THRESHOLD", 1_000_000)
	if err != nil {
		return nil, err
	}
	cfg.LargeTransferThreshold = int64(threshold)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.LargeTransferThreshold <= 0 {
		errs = append(errs, errors.New("LARGE_TRANSFER_THRESHOLD must be positive"))
	}
	if c.DatabaseURL != "" && c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when DATABASE_URL is set"))
	}
	switch c.EventBus {
	case EventBusRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("EVENT_BUS=redis requires REDIS_ADDR"))
		}
	case EventBusKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("EVENT_BUS=kafka requires KAFKA_BROKERS"))
		}
	case EventBusNone:
	default:
		errs = append(errs, fmt.Errorf("unknown EVENT_BUS %q", c.EventBus))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
