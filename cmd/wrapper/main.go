//go:build wrapper
// +build wrapper

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/waldirborbajr/versiongate/config"
	"github.com/waldirborbajr/versiongate/db"
	"github.com/waldirborbajr/versiongate/logger"
	"github.com/waldirborbajr/versiongate/updater"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printConfigError(err)
		os.Exit(1)
	}

	// Init logger
	log := logger.InitLogger(cfg.LoggerOptions())

	// Check history database
	if cfg.HistoryDriver != "" {
		if err := checkHistory(cfg); err != nil {
			log.Error().Err(err).Msg("History database check failed")
			printHistoryTips(cfg, err)
			os.Exit(2)
		}
		log.Info().Str("driver", cfg.HistoryDriver).Msg("History database check OK")
	}

	// Check store reachability
	if err := checkStore(cfg); err != nil {
		log.Error().Err(err).Msg("Store lookup check failed")
		printStoreTips(cfg, err)
		os.Exit(3)
	}
	log.Info().Str("platform", cfg.Platform).Msg("Store lookup check OK")

	log.Info().Msg("All startup checks passed. You're good to run versiongate.")
	fmt.Println("All startup checks passed. No issues detected.")
}

func printConfigError(err error) {
	fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
	if strings.Contains(err.Error(), "APP_BUNDLE_ID") {
		fmt.Fprintln(os.Stderr, "Suggested action: set APP_BUNDLE_ID in .env or environment (e.g. com.example.app)")
	}
	if strings.Contains(err.Error(), "APP_PLATFORM") {
		fmt.Fprintln(os.Stderr, "Suggested action: set APP_PLATFORM to ios or android")
	}
	if strings.Contains(err.Error(), "HISTORY_DRIVER") {
		fmt.Fprintln(os.Stderr, "Suggested action: set HISTORY_DRIVER to sqlite or mysql, or leave it empty to disable history")
	}
	fmt.Fprintln(os.Stderr, "Tip: run with DEBUG_MODE=true for more detailed logs.")
}

func checkHistory(cfg config.Config) error {
	h, err := db.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer h.Close()
	return nil
}

func printHistoryTips(cfg config.Config, err error) {
	fmt.Fprintf(os.Stderr, "History database check error: %v\n", err)
	fmt.Fprintln(os.Stderr, "Suggested actions:")
	if cfg.HistoryDriver == "sqlite" {
		fmt.Fprintln(os.Stderr, " - Verify the directory of HISTORY_DSN exists and is writable")
	} else {
		fmt.Fprintln(os.Stderr, " - Verify MySQL is running and reachable, and HISTORY_DSN is user:pass@tcp(host:port)/db")
		fmt.Fprintln(os.Stderr, " - Ensure the MySQL user may CREATE TABLE and INSERT in that database")
	}
	fmt.Fprintln(os.Stderr, " - Leave HISTORY_DRIVER empty to run without history")
}

// checkStore performs one lookup without delays or retries
func checkStore(cfg config.Config) error {
	platform, err := updater.ParsePlatform(cfg.Platform)
	if err != nil {
		return err
	}
	store, err := updater.NewStore(platform, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout+time.Second)
	defer cancel()

	rel := store.LatestRelease(ctx, cfg.BundleID)
	if rel == nil {
		return fmt.Errorf("no release found for %s on %s", cfg.BundleID, platform)
	}
	fmt.Printf("Store reports %s version %s\n", platform, rel.Version)
	return nil
}

func printStoreTips(cfg config.Config, err error) {
	fmt.Fprintf(os.Stderr, "Store check error: %v\n", err)
	fmt.Fprintln(os.Stderr, "Suggested actions:")
	fmt.Fprintln(os.Stderr, " - Verify APP_BUNDLE_ID matches the published app exactly")
	if cfg.Platform == "ios" {
		fmt.Fprintf(os.Stderr, " - Try %s?bundleId=%s in a browser\n", cfg.IOSLookupURL, cfg.BundleID)
		fmt.Fprintln(os.Stderr, " - Apps not sold in the US storefront need IOS_COUNTRY set")
	} else {
		fmt.Fprintf(os.Stderr, " - Try %s?id=%s in a browser\n", cfg.AndroidStoreURL, cfg.BundleID)
	}
	fmt.Fprintln(os.Stderr, " - Check outbound HTTPS access and HTTP_TIMEOUT_SECONDS")
}
