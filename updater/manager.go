package updater

import (
	"context"

	"github.com/waldirborbajr/versiongate/config"
	"github.com/waldirborbajr/versiongate/logger"
)

// NewStore builds the cached store adapter for platform from cfg
func NewStore(platform Platform, cfg config.Config) (*CachedStore, error) {
	var store Store
	switch platform {
	case PlatformIOS:
		store = NewAppStore(cfg.IOSLookupURL, cfg.IOSCountry, cfg.HTTPTimeout)
	case PlatformAndroid:
		store = NewPlayStore(cfg.AndroidStoreURL, cfg.HTTPTimeout)
	default:
		return nil, ErrUnknownPlatform
	}
	return NewCachedStore(store, cfg.CacheSize, cfg.CacheTTL), nil
}

// GateOptionsFromConfig fills the timing fields of GateOptions from cfg.
// A configured value of 0 means "none" rather than "default".
func GateOptionsFromConfig(cfg config.Config) GateOptions {
	return GateOptions{
		InitialDelay: zeroAsNone(cfg.InitialDelay),
		RetryDelay:   zeroAsNone(cfg.RetryDelay),
		MaxRetries:   zeroAsNone(cfg.MaxRetries),
		GracePeriod:  zeroAsNone(cfg.GracePeriod),
	}
}

func zeroAsNone[T ~int64 | ~int](v T) T {
	if v == 0 {
		return -1
	}
	return v
}

// CheckForUpdateWithContext runs one gate for the app described by cfg against
// store. Callers checking more than once should build the store with NewStore
// and pass it in so its cache is shared; a nil store gets a fresh one.
func CheckForUpdateWithContext(ctx context.Context, cfg config.Config, store Store) (Result, error) {
	log := logger.GetLogger()

	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	platform, err := ParsePlatform(cfg.Platform)
	if err != nil {
		return Result{}, err
	}
	if store == nil {
		cached, err := NewStore(platform, cfg)
		if err != nil {
			return Result{}, err
		}
		store = cached
	}

	opts := GateOptionsFromConfig(cfg)
	opts.Platform = platform
	opts.BundleID = cfg.BundleID
	opts.CurrentVersion = cfg.CurrentVersion
	opts.Store = store

	gate, err := NewGate(opts)
	if err != nil {
		return Result{}, err
	}

	log.Debug().Str("platform", string(platform)).Str("bundle_id", cfg.BundleID).Str("current", cfg.CurrentVersion).Msg("Starting update check")
	return gate.Run(ctx)
}
