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
	defaultAppName         = "BankBackoffice"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultStoreDriver     = DriverMemory
	defaultDataDir         = "data"
	defaultPasswordRate    = 5
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName                   string
	AppEnv                    string
	Port                      string
	LogLevel                  string
	StoreDriver               string
	DataDir                   string
	DatabaseURL               string
	RedisURL                  string
	BankPassword              string
	BcryptCost                int
	PasswordAttemptsPerMinute int
	ShutdownPeriod            time.Duration
	IdempotencyTTL            time.Duration
}

// Load reads an optional .env file and then populates a Config from the
// environment. Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv populates a Config from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		AppName:                   getEnv("APP_NAME", defaultAppName),
		AppEnv:                    getEnv("APP_ENV", defaultAppEnv),
		Port:                      getEnv("PORT", defaultPort),
		LogLevel:                  strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		StoreDriver:               strings.ToLower(getEnv("STORE_DRIVER", defaultStoreDriver)),
		DataDir:                   getEnv("DATA_DIR", defaultDataDir),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		RedisURL:                  os.Getenv("REDIS_URL"),
		BankPassword:              os.Getenv("BANK_PASSWORD"),
		PasswordAttemptsPerMinute: defaultPasswordRate,
		ShutdownPeriod:            defaultShutdownDelay,
		IdempotencyTTL:            defaultIdempotencyTTL,
	}

	var err error
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 0); err != nil {
		return Config{}, err
	}
	if cfg.PasswordAttemptsPerMinute, err = getInt("PASSWORD_ATTEMPTS_PER_MINUTE", defaultPasswordRate); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = getDuration(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getDuration(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}

	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverFile:
		if cfg.DataDir == "" {
			return Config{}, fmt.Errorf("DATA_DIR must be set when STORE_DRIVER=%s", DriverFile)
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q: want memory, file or postgres", cfg.StoreDriver)
	}

	if cfg.BcryptCost != 0 && (cfg.BcryptCost < 4 || cfg.BcryptCost > 31) {
		return Config{}, fmt.Errorf("invalid BCRYPT_COST %d: must be between 4 and 31", cfg.BcryptCost)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// getDuration reads whole seconds from secondsKey, or a Go duration string
// from durationKey when the former is unset.
func getDuration(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}
