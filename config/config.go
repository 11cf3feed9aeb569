package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/waldirborbajr/versiongate/logger"
)

var (
	ErrMissingBundleID = errors.New("missing APP_BUNDLE_ID")
	ErrInvalidPlatform = errors.New("APP_PLATFORM must be ios or android")
)

const (
	DefaultIOSLookupURL    = "https://itunes.apple.com/lookup"
	DefaultAndroidStoreURL = "https://play.google.com/store/apps/details"
)

// Config holds the store endpoints, gate timings and history settings
type Config struct {
	DebugMode bool

	// Logging
	LogFile       string
	LogMaxSizeMB  int
	LogMaxAgeDays int
	LogMaxBackups int

	// App under check
	Platform       string
	BundleID       string
	CurrentVersion string

	// Store endpoints
	IOSLookupURL    string
	IOSCountry      string
	AndroidStoreURL string
	HTTPTimeout     time.Duration

	// Gate timings
	InitialDelay time.Duration
	RetryDelay   time.Duration
	MaxRetries   int
	GracePeriod  time.Duration

	// Lookup cache
	CacheSize int
	CacheTTL  time.Duration

	// Check history; empty driver disables it
	HistoryDriver string
	HistoryDSN    string

	BatchWorkers int
}

// Default returns the configuration used when no environment is set
func Default() Config {
	return Config{
		LogFile:         "versiongate.log",
		LogMaxSizeMB:    10,
		LogMaxAgeDays:   15,
		LogMaxBackups:   5,
		Platform:        "ios",
		IOSLookupURL:    DefaultIOSLookupURL,
		AndroidStoreURL: DefaultAndroidStoreURL,
		HTTPTimeout:     10 * time.Second,
		InitialDelay:    1000 * time.Millisecond,
		RetryDelay:      2000 * time.Millisecond,
		MaxRetries:      2,
		GracePeriod:     24 * time.Hour,
		CacheSize:       64,
		CacheTTL:        5 * time.Minute,
		HistoryDSN:      "versiongate.db",
		BatchWorkers:    4,
	}
}

// LoadConfig loads environment variables, reading a .env file when one exists
func LoadConfig() (Config, error) {
	log := logger.GetLogger()

	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Error().Err(err).Msg("Error loading .env file")
			return Config{}, fmt.Errorf("error loading .env file: %w", err)
		}
		log.Debug().Msg(".env file not found, using process environment")
	} else {
		log.Debug().Msg(".env file loaded successfully")
	}

	cfg := Default()
	cfg.DebugMode = envBool("DEBUG_MODE", cfg.DebugMode)

	cfg.LogFile = envString("LOG_FILE", cfg.LogFile)
	cfg.LogMaxSizeMB = envInt("LOG_MAX_SIZE_MB", cfg.LogMaxSizeMB)
	cfg.LogMaxAgeDays = envInt("LOG_MAX_AGE_DAYS", cfg.LogMaxAgeDays)
	cfg.LogMaxBackups = envInt("LOG_MAX_BACKUPS", cfg.LogMaxBackups)

	cfg.Platform = strings.ToLower(envString("APP_PLATFORM", cfg.Platform))
	cfg.BundleID = strings.TrimSpace(os.Getenv("APP_BUNDLE_ID"))
	cfg.CurrentVersion = strings.TrimSpace(os.Getenv("APP_VERSION"))

	cfg.IOSLookupURL = envString("IOS_LOOKUP_URL", cfg.IOSLookupURL)
	cfg.IOSCountry = strings.TrimSpace(os.Getenv("IOS_COUNTRY"))
	cfg.AndroidStoreURL = envString("ANDROID_STORE_URL", cfg.AndroidStoreURL)
	cfg.HTTPTimeout = time.Duration(envInt("HTTP_TIMEOUT_SECONDS", int(cfg.HTTPTimeout/time.Second))) * time.Second

	cfg.InitialDelay = time.Duration(envInt("INITIAL_DELAY_MS", int(cfg.InitialDelay/time.Millisecond))) * time.Millisecond
	cfg.RetryDelay = time.Duration(envInt("RETRY_DELAY_MS", int(cfg.RetryDelay/time.Millisecond))) * time.Millisecond
	cfg.MaxRetries = envInt("MAX_RETRIES", cfg.MaxRetries)
	cfg.GracePeriod = time.Duration(envInt("GRACE_PERIOD_HOURS", int(cfg.GracePeriod/time.Hour))) * time.Hour

	cfg.CacheSize = envInt("LOOKUP_CACHE_SIZE", cfg.CacheSize)
	cfg.CacheTTL = time.Duration(envInt("LOOKUP_CACHE_TTL_SECONDS", int(cfg.CacheTTL/time.Second))) * time.Second

	cfg.HistoryDriver = strings.ToLower(strings.TrimSpace(os.Getenv("HISTORY_DRIVER")))
	cfg.HistoryDSN = envString("HISTORY_DSN", cfg.HistoryDSN)

	cfg.BatchWorkers = envInt("BATCH_WORKERS", cfg.BatchWorkers)

	switch cfg.HistoryDriver {
	case "", "sqlite", "mysql":
	default:
		log.Error().Str("HISTORY_DRIVER", cfg.HistoryDriver).Msg("Unsupported history driver")
		return Config{}, fmt.Errorf("unsupported HISTORY_DRIVER %q (want sqlite or mysql)", cfg.HistoryDriver)
	}

	// Log loaded configuration for troubleshooting
	log.Debug().
		Bool("DEBUG_MODE", cfg.DebugMode).
		Str("APP_PLATFORM", cfg.Platform).
		Str("APP_BUNDLE_ID", cfg.BundleID).
		Str("APP_VERSION", cfg.CurrentVersion).
		Str("IOS_LOOKUP_URL", cfg.IOSLookupURL).
		Str("ANDROID_STORE_URL", cfg.AndroidStoreURL).
		Dur("INITIAL_DELAY", cfg.InitialDelay).
		Dur("RETRY_DELAY", cfg.RetryDelay).
		Int("MAX_RETRIES", cfg.MaxRetries).
		Dur("GRACE_PERIOD", cfg.GracePeriod).
		Int("LOOKUP_CACHE_SIZE", cfg.CacheSize).
		Str("HISTORY_DRIVER", cfg.HistoryDriver).
		Int("BATCH_WORKERS", cfg.BatchWorkers).
		Msg("Configuration loaded")

	return cfg, nil
}

// Validate checks the fields a single-app check needs
func (c Config) Validate() error {
	if c.Platform != "ios" && c.Platform != "android" {
		return fmt.Errorf("%w, got %q", ErrInvalidPlatform, c.Platform)
	}
	if c.BundleID == "" {
		return ErrMissingBundleID
	}
	return nil
}

// LoggerOptions maps the logging fields onto logger.Options
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Debug:      c.DebugMode,
		File:       c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxAgeDays: c.LogMaxAgeDays,
		MaxBackups: c.LogMaxBackups,
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		logger.Warn().Err(err).Str(key, raw).Int("default", def).Msg("Invalid integer value, using default")
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn().Err(err).Str(key, raw).Bool("default", def).Msg("Invalid boolean value, using default")
		return def
	}
	return b
}
