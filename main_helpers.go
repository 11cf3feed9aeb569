package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/waldirborbajr/versiongate/db"
	"github.com/waldirborbajr/versiongate/logger"
	"github.com/waldirborbajr/versiongate/processor"
	"github.com/waldirborbajr/versiongate/updater"
)

const (
	redBold    = "\033[1;31m"
	greenBold  = "\033[1;32m"
	yellowBold = "\033[1;33m"
	cyanBold   = "\033[1;36m"
	reset      = "\033[0m"
)

var (
	checkPlatform string
	checkBundleID string
	checkCurrent  string
	historyLimit  int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one app against its store",
	Long: `Runs a single update check for APP_PLATFORM / APP_BUNDLE_ID / APP_VERSION
(or the flags). Exits with status 10 when an update is required.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var batchCmd = &cobra.Command{
	Use:   "batch <targets.yaml>",
	Short: "Check every target listed in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

var compareCmd = &cobra.Command{
	Use:   "compare <current> <latest>",
	Short: "Report whether latest is newer than current",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		newer := updater.CompareVersions(args[0], args[1])
		fmt.Fprintln(cmd.OutOrStdout(), newer)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent checks from the history database",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the versiongate version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "versiongate %s\n", version)
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkPlatform, "platform", "", "ios or android (default APP_PLATFORM)")
	checkCmd.Flags().StringVar(&checkBundleID, "bundle-id", "", "bundle identifier (default APP_BUNDLE_ID)")
	checkCmd.Flags().StringVar(&checkCurrent, "current", "", "running app version (default APP_VERSION)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of records to show")
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := processor.Target{
		Platform:       firstNonEmpty(checkPlatform, cfg.Platform),
		BundleID:       firstNonEmpty(checkBundleID, cfg.BundleID),
		CurrentVersion: currentVersion(checkCurrent, cfg.CurrentVersion),
	}
	single := cfg
	single.Platform = strings.ToLower(target.Platform)
	single.BundleID = target.BundleID
	if err := single.Validate(); err != nil {
		return err
	}
	target.Platform = single.Platform

	outcomes, _, err := runTargets(cmd, []processor.Target{target})
	if err != nil {
		return err
	}
	out := outcomes[0]
	if out.Err != nil {
		return out.Err
	}

	printOutcome(cmd.OutOrStdout(), out)
	if out.Result.NeedsUpdate {
		return exitError{code: exitNeedsUpdate}
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	targets, err := processor.LoadTargets(args[0])
	if err != nil {
		return err
	}

	outcomes, stats, err := runTargets(cmd, targets)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, out := range outcomes {
		printOutcome(w, out)
	}
	printSummary(w, stats)
	return nil
}

// runTargets wires history and signal handling around processor.ProcessTargets
func runTargets(cmd *cobra.Command, targets []processor.Target) ([]processor.Outcome, *processor.ProcessingStats, error) {
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := processor.Options{}
	if cfg.HistoryDriver != "" {
		history, err := db.OpenHistory(cfg)
		if err != nil {
			// history is best effort; the check itself still runs
			log.Warn().Err(err).Msg("Check history unavailable")
		} else {
			defer func() {
				if err := history.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing history database")
				}
			}()
			opts.History = history
		}
	}

	p, err := processor.New(cfg, opts)
	if err != nil {
		return nil, nil, err
	}
	return p.ProcessTargets(ctx, targets)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if cfg.HistoryDriver == "" {
		return fmt.Errorf("check history is disabled; set HISTORY_DRIVER to sqlite or mysql")
	}
	history, err := db.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = history.Close() }()

	recs, err := history.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(w, "No checks recorded yet.")
		return nil
	}
	for _, r := range recs {
		state := greenBold + "up to date" + reset
		if r.NeedsUpdate {
			state = redBold + "update required" + reset
		}
		fmt.Fprintf(w, "%s  %-8s %-40s %s -> %s  %s (%d attempts, %s)\n",
			r.CheckedAt.Local().Format(time.DateTime), r.Platform, r.BundleID,
			r.CurrentVersion, displayVersion(r.LatestVersion), state, r.Attempts, r.Duration)
	}
	return nil
}

func printOutcome(w io.Writer, out processor.Outcome) {
	label := out.Target.Label()
	res := out.Result
	switch {
	case out.Err != nil:
		fmt.Fprintf(w, redBold+"  ✗ %s: %v"+reset+"\n", label, out.Err)
	case res.NeedsUpdate:
		fmt.Fprintf(w, redBold+"  ⚡ %s: update required (%s → %s)"+reset+"\n", label, res.Current, res.Latest)
	case res.InGracePeriod:
		fmt.Fprintf(w, yellowBold+"  ⏳ %s: %s released %s, inside grace period"+reset+"\n", label, res.Latest, res.ReleaseDate)
	case res.Exhausted:
		fmt.Fprintf(w, yellowBold+"  ? %s: store unreachable after %d attempts, assuming up to date"+reset+"\n", label, res.Attempts)
	default:
		fmt.Fprintf(w, greenBold+"  ✅ %s: up to date (%s, store %s)"+reset+"\n", label, res.Current, displayVersion(res.Latest))
	}
}

// printSummary prints the batch report
func printSummary(w io.Writer, stats *processor.ProcessingStats) {
	fmt.Fprintln(w, "\n"+strings.Repeat(".", 20))
	fmt.Fprintln(w, "UPDATE CHECK REPORT")
	fmt.Fprintln(w, strings.Repeat(".", 20))

	fmt.Fprintf(w, "  Targets checked: %s%d%s\n", cyanBold, stats.Total, reset)
	fmt.Fprintf(w, "  Update required: %s%d%s\n", redBold, stats.NeedsUpdate, reset)
	fmt.Fprintf(w, "  Up to date: %s%d%s\n", greenBold, stats.UpToDate, reset)
	fmt.Fprintf(w, "  Store unreachable: %s%d%s\n", yellowBold, stats.Exhausted, reset)
	fmt.Fprintf(w, "  Failed: %s%d%s\n", redBold, stats.Failed, reset)
	fmt.Fprintf(w, "  Processing time: %s%s%s\n", cyanBold, stats.ProcessingTime.Round(time.Millisecond), reset)
	if stats.HistoryTime > 0 {
		fmt.Fprintf(w, "  History write time: %s%s%s\n", cyanBold, stats.HistoryTime.Round(time.Millisecond), reset)
	}
	fmt.Fprintln(w, strings.Repeat("-", 20))
}

// currentVersion picks the flag, then APP_VERSION, then the build version.
// The build version of a dev build has no numeric parts and never compares
// as older, so falling back to it is logged.
func currentVersion(flag, env string) string {
	if v := firstNonEmpty(flag, env); v != "" {
		return v
	}
	logger.Warn().
		Str("version", version).
		Msg("Neither --current nor APP_VERSION is set, checking the versiongate build version instead")
	return version
}

func displayVersion(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
