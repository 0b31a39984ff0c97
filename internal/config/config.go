package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr     = ":8080"
	defaultDatabaseURL  = "facilityhub.db"
	defaultJWTSecret    = "change-me-jwt-secret"
	defaultJWTTTL       = "24h"
	defaultTimezone     = "UTC"
	defaultSlotLockTTL  = "5s"
	defaultSlotLockWait = "2s"
	defaultEvents       = "none"
	defaultExchange     = "facility.bookings"
	defaultKafkaTopic   = "facility.bookings"
)

const (
	EventsNone  = "none"
	EventsAMQP  = "amqp"
	EventsKafka = "kafka"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	// Location is the facility time zone blackout dates are interpreted in.
	Location *time.Location

	// RedisAddr empty disables the slot lock.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SlotLockTTL   time.Duration
	SlotLockWait  time.Duration

	EventsDriver string
	AMQPURL      string
	AMQPExchange string
	KafkaBrokers []string
	KafkaTopic   string

	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	tz := strings.TrimSpace(getEnv("FACILITY_TIMEZONE", defaultTimezone))
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid FACILITY_TIMEZONE value %q: %w", tz, err)
	}

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB, err = parseIntEnv("REDIS_DB", "0")
	if err != nil {
		return nil, err
	}
	cfg.SlotLockTTL, err = parseDurationEnv("SLOT_LOCK_TTL", defaultSlotLockTTL)
	if err != nil {
		return nil, err
	}
	cfg.SlotLockWait, err = parseDurationEnv("SLOT_LOCK_WAIT", defaultSlotLockWait)
	if err != nil {
		return nil, err
	}

	cfg.EventsDriver = strings.ToLower(strings.TrimSpace(getEnv("EVENTS_DRIVER", defaultEvents)))
	cfg.AMQPURL = strings.TrimSpace(os.Getenv("AMQP_URL"))
	cfg.AMQPExchange = strings.TrimSpace(getEnv("AMQP_EXCHANGE", defaultExchange))
	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopic = strings.TrimSpace(getEnv("KAFKA_TOPIC", defaultKafkaTopic))

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s tz=%s events=%s slot_lock=%t",
		cfg.AppEnv, cfg.HTTPAddr, cfg.Location, cfg.EventsDriver, cfg.RedisAddr != "")

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.RedisAddr != "" {
		if cfg.SlotLockTTL <= 0 {
			return fmt.Errorf("SLOT_LOCK_TTL must be > 0")
		}
		if cfg.SlotLockWait < 0 {
			return fmt.Errorf("SLOT_LOCK_WAIT must be >= 0")
		}
	}

	switch cfg.EventsDriver {
	case EventsNone:
	case EventsAMQP:
		if cfg.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required when EVENTS_DRIVER=amqp")
		}
		if cfg.AMQPExchange == "" {
			return fmt.Errorf("AMQP_EXCHANGE must not be empty")
		}
	case EventsKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_DRIVER=kafka")
		}
		if cfg.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_TOPIC must not be empty")
		}
	default:
		return fmt.Errorf("EVENTS_DRIVER must be one of: none, amqp, kafka")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if len(cfg.JWTSecret) < 32 {
			return fmt.Errorf("in prod/release JWT_SECRET must be at least 32 characters")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
