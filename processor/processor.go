package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waldirborbajr/versiongate/config"
	"github.com/waldirborbajr/versiongate/db"
	"github.com/waldirborbajr/versiongate/logger"
	"github.com/waldirborbajr/versiongate/updater"
	"golang.org/x/sync/errgroup"
)

// HistoryWriter persists settled checks; *db.History satisfies it
type HistoryWriter interface {
	Record(ctx context.Context, rec db.CheckRecord) error
}

// Outcome is the result of checking one target
type Outcome struct {
	RunID   string
	Target  Target
	Result  updater.Result
	Err     error
	Elapsed time.Duration
}

// ProcessingStats para métricas de performance
type ProcessingStats struct {
	Total          int
	NeedsUpdate    int
	UpToDate       int
	Exhausted      int
	Failed         int
	ProcessingTime time.Duration
	HistoryTime    time.Duration
}

// Options overrides the collaborators a Processor builds from config
type Options struct {
	Workers int
	// Stores replaces the per-platform store adapters
	Stores  map[updater.Platform]updater.Store
	History HistoryWriter
	Sleep   updater.SleepFunc
	Clock   updater.Clock
}

// Processor runs one Gate per target on a bounded worker pool
type Processor struct {
	cfg     config.Config
	workers int
	stores  map[updater.Platform]updater.Store
	history HistoryWriter
	sleep   updater.SleepFunc
	clock   updater.Clock
}

func New(cfg config.Config, opts Options) (*Processor, error) {
	p := &Processor{
		cfg:     cfg,
		workers: opts.Workers,
		stores:  opts.Stores,
		history: opts.History,
		sleep:   opts.Sleep,
		clock:   opts.Clock,
	}
	if p.workers <= 0 {
		p.workers = cfg.BatchWorkers
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	if p.stores == nil {
		p.stores = make(map[updater.Platform]updater.Store, 2)
		for _, platform := range []updater.Platform{updater.PlatformIOS, updater.PlatformAndroid} {
			store, err := updater.NewStore(platform, cfg)
			if err != nil {
				return nil, fmt.Errorf("error building %s store: %w", platform, err)
			}
			p.stores[platform] = store
		}
	}
	return p, nil
}

// ProcessTargets checks every target and returns outcomes in input order. A
// failing target does not stop the others; only cancellation of ctx does.
func (p *Processor) ProcessTargets(ctx context.Context, targets []Target) ([]Outcome, *ProcessingStats, error) {
	log := logger.GetLogger()

	stats := &ProcessingStats{Total: len(targets)}
	outcomes := make([]Outcome, len(targets))
	var mu sync.Mutex

	log.Info().
		Int("targets", len(targets)).
		Int("num_workers", p.workers).
		Msg("Starting update checks with worker pool")

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			out := p.checkTarget(gctx, target)
			outcomes[i] = out

			if out.Err != nil && gctx.Err() != nil {
				return gctx.Err()
			}

			if out.Err == nil && p.history != nil {
				historyStart := time.Now()
				if err := p.history.Record(gctx, toRecord(out)); err != nil {
					log.Error().Err(err).Str("run_id", out.RunID).Msg("Error recording check history")
				}
				mu.Lock()
				stats.HistoryTime += time.Since(historyStart)
				mu.Unlock()
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case out.Err != nil:
				stats.Failed++
			case out.Result.NeedsUpdate:
				stats.NeedsUpdate++
			default:
				stats.UpToDate++
				if out.Result.Exhausted {
					stats.Exhausted++
				}
			}
			return nil
		})
	}

	err := g.Wait()
	stats.ProcessingTime = time.Since(start)
	if err != nil {
		return outcomes, stats, fmt.Errorf("update checks interrupted: %w", err)
	}
	return outcomes, stats, nil
}

func (p *Processor) checkTarget(ctx context.Context, target Target) Outcome {
	out := Outcome{RunID: uuid.NewString(), Target: target}
	start := time.Now()

	platform, err := updater.ParsePlatform(target.Platform)
	if err != nil {
		out.Err = err
		out.Elapsed = time.Since(start)
		return out
	}
	store, ok := p.stores[platform]
	if !ok {
		out.Err = fmt.Errorf("no store configured for %s", platform)
		out.Elapsed = time.Since(start)
		return out
	}

	opts := updater.GateOptionsFromConfig(p.cfg)
	opts.Platform = platform
	opts.BundleID = target.BundleID
	opts.CurrentVersion = target.CurrentVersion
	opts.Store = store
	opts.Sleep = p.sleep
	opts.Clock = p.clock

	gate, err := updater.NewGate(opts)
	if err != nil {
		out.Err = err
		out.Elapsed = time.Since(start)
		return out
	}

	out.Result, out.Err = gate.Run(ctx)
	out.Elapsed = time.Since(start)
	return out
}

func toRecord(out Outcome) db.CheckRecord {
	return db.CheckRecord{
		ID:             out.RunID,
		CheckedAt:      time.Now(),
		Platform:       out.Target.Platform,
		BundleID:       out.Target.BundleID,
		CurrentVersion: out.Target.CurrentVersion,
		LatestVersion:  out.Result.Latest,
		ReleaseDate:    out.Result.ReleaseDate,
		NeedsUpdate:    out.Result.NeedsUpdate,
		InGracePeriod:  out.Result.InGracePeriod,
		Attempts:       out.Result.Attempts,
		Status:         string(out.Result.Status),
		Duration:       out.Elapsed,
	}
}
