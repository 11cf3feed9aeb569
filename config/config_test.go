package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"APP_PLATFORM", "APP_BUNDLE_ID", "INITIAL_DELAY_MS", "RETRY_DELAY_MS",
		"MAX_RETRIES", "GRACE_PERIOD_HOURS", "IOS_LOOKUP_URL", "ANDROID_STORE_URL", "HISTORY_DRIVER"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Platform != "ios" {
		t.Errorf("Platform = %q; want ios", cfg.Platform)
	}
	if cfg.InitialDelay != time.Second || cfg.RetryDelay != 2*time.Second || cfg.MaxRetries != 2 {
		t.Errorf("gate timings = %v/%v/%d; want 1s/2s/2", cfg.InitialDelay, cfg.RetryDelay, cfg.MaxRetries)
	}
	if cfg.GracePeriod != 24*time.Hour {
		t.Errorf("GracePeriod = %v; want 24h", cfg.GracePeriod)
	}
	if cfg.IOSLookupURL != DefaultIOSLookupURL || cfg.AndroidStoreURL != DefaultAndroidStoreURL {
		t.Errorf("store URLs = %q, %q", cfg.IOSLookupURL, cfg.AndroidStoreURL)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_PLATFORM", "Android")
	t.Setenv("APP_BUNDLE_ID", " com.example.app ")
	t.Setenv("APP_VERSION", "1.2.3")
	t.Setenv("INITIAL_DELAY_MS", "0")
	t.Setenv("RETRY_DELAY_MS", "500")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("GRACE_PERIOD_HOURS", "48")
	t.Setenv("HISTORY_DRIVER", "SQLite")
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("LOOKUP_CACHE_SIZE", "not-a-number")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"platform", cfg.Platform, "android"},
		{"bundle", cfg.BundleID, "com.example.app"},
		{"version", cfg.CurrentVersion, "1.2.3"},
		{"initial delay", cfg.InitialDelay, time.Duration(0)},
		{"retry delay", cfg.RetryDelay, 500 * time.Millisecond},
		{"retries", cfg.MaxRetries, 5},
		{"grace", cfg.GracePeriod, 48 * time.Hour},
		{"history", cfg.HistoryDriver, "sqlite"},
		{"debug", cfg.DebugMode, true},
		{"cache size falls back", cfg.CacheSize, 64},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v; want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadConfigRejectsHistoryDriver(t *testing.T) {
	t.Setenv("HISTORY_DRIVER", "firebird")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unsupported HISTORY_DRIVER")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingBundleID) {
		t.Errorf("Validate() = %v; want ErrMissingBundleID", err)
	}

	cfg.BundleID = "com.example.app"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v; want nil", err)
	}

	cfg.Platform = "web"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidPlatform) {
		t.Errorf("Validate() = %v; want ErrInvalidPlatform", err)
	}
}
