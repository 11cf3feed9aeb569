package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/waldirborbajr/versiongate/config"
	"github.com/waldirborbajr/versiongate/logger"
)

// version is set at build time using -ldflags="-X main.version=VERSION"
var version = "dev"

// exitNeedsUpdate is returned by `check` when the store has a required update
const exitNeedsUpdate = 10

type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "versiongate",
	Short:         "Decide whether a mobile app build must be updated",
	Long:          `versiongate looks up the latest App Store / Google Play release of an app and reports whether the running version needs an update, honoring a grace period after fresh iOS releases.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		logger.InitLogger(cfg.LoggerOptions())
		return nil
	},
}

func main() {
	rootCmd.AddCommand(checkCmd, batchCmd, compareCmd, historyCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
