package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/waldirborbajr/versiongate/logger"
)

const (
	DefaultInitialDelay = 1000 * time.Millisecond
	DefaultRetryDelay   = 2000 * time.Millisecond
	DefaultMaxRetries   = 2
)

// Status is where a check stands
type Status string

const (
	StatusChecking    Status = "checking"
	StatusNeedsUpdate Status = "needs_update"
	StatusUpToDate    Status = "up_to_date"
)

// Result is the settled outcome of one Gate run
type Result struct {
	Status        Status
	NeedsUpdate   bool
	Current       string
	Latest        string
	ReleaseDate   string
	InGracePeriod bool
	Attempts      int
	// Exhausted is set when every attempt failed and the gate settled on
	// "no update needed".
	Exhausted bool
}

// Clock supplies the wall time used for the grace period
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepContext is the default SleepFunc. The timer is stopped on every return
// path, so a cancelled wait leaves nothing scheduled.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GateOptions configures a Gate. Zero durations and retry counts take the
// package defaults; use a negative value to ask for none.
type GateOptions struct {
	Platform       Platform
	BundleID       string
	CurrentVersion string
	Store          Store

	InitialDelay time.Duration
	RetryDelay   time.Duration
	MaxRetries   int
	GracePeriod  time.Duration

	Clock  Clock
	Sleep  SleepFunc
	Logger *zerolog.Logger
}

// Gate decides whether the running version must be updated
type Gate struct {
	platform Platform
	bundleID string
	current  string
	store    Store

	initialDelay time.Duration
	retryDelay   time.Duration
	maxRetries   int
	grace        time.Duration

	clock Clock
	sleep SleepFunc
	log   zerolog.Logger
}

func NewGate(opts GateOptions) (*Gate, error) {
	if opts.Platform != PlatformIOS && opts.Platform != PlatformAndroid {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, opts.Platform)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("gate for %s has no store", opts.Platform)
	}

	g := &Gate{
		platform:     opts.Platform,
		bundleID:     opts.BundleID,
		current:      opts.CurrentVersion,
		store:        opts.Store,
		initialDelay: durationOr(opts.InitialDelay, DefaultInitialDelay),
		retryDelay:   durationOr(opts.RetryDelay, DefaultRetryDelay),
		maxRetries:   opts.MaxRetries,
		grace:        durationOr(opts.GracePeriod, GracePeriod),
		clock:        opts.Clock,
		sleep:        opts.Sleep,
	}
	switch {
	case g.maxRetries == 0:
		g.maxRetries = DefaultMaxRetries
	case g.maxRetries < 0:
		g.maxRetries = 0
	}
	if g.clock == nil {
		g.clock = systemClock{}
	}
	if g.sleep == nil {
		g.sleep = SleepContext
	}
	if opts.Logger != nil {
		g.log = *opts.Logger
	} else {
		g.log = logger.GetLogger()
	}
	g.log = g.log.With().Str("platform", string(g.platform)).Str("bundle_id", g.bundleID).Logger()
	return g, nil
}

func durationOr(d, def time.Duration) time.Duration {
	switch {
	case d == 0:
		return def
	case d < 0:
		return 0
	}
	return d
}

// Run waits the initial delay, then looks the release up until it succeeds or
// the retries run out. Attempts never overlap. The only error is ctx.Err() when
// the run is cancelled before it settles.
func (g *Gate) Run(ctx context.Context) (Result, error) {
	pending := Result{Status: StatusChecking, Current: g.current}

	if err := g.sleep(ctx, g.initialDelay); err != nil {
		g.log.Debug().Err(err).Msg("Check cancelled before first attempt")
		return pending, err
	}

	for retries := 0; ; retries++ {
		if err := ctx.Err(); err != nil {
			return pending, err
		}

		pending.Attempts++
		rel := g.attempt(ctx, pending.Attempts)

		if err := ctx.Err(); err != nil {
			g.log.Debug().Err(err).Int("attempt", pending.Attempts).Msg("Check cancelled during attempt")
			return pending, err
		}

		if rel != nil {
			return g.settle(pending, rel), nil
		}

		if retries >= g.maxRetries {
			g.log.Warn().Int("attempts", pending.Attempts).Msg("Store lookup failed on every attempt, assuming no update is needed")
			pending.Status = StatusUpToDate
			pending.Exhausted = true
			return pending, nil
		}

		g.log.Debug().
			Int("attempt", pending.Attempts).
			Dur("retry_in", g.retryDelay).
			Msg("Store lookup returned nothing, retrying")
		if err := g.sleep(ctx, g.retryDelay); err != nil {
			return pending, err
		}
	}
}

// attempt runs one lookup. A panic inside the store is logged and treated as
// a failed lookup.
func (g *Gate) attempt(ctx context.Context, n int) (rel *StoreRelease) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Interface("panic", r).Int("attempt", n).Msg("Store lookup panicked")
			rel = nil
		}
	}()
	return g.store.LatestRelease(ctx, g.bundleID)
}

func (g *Gate) settle(res Result, rel *StoreRelease) Result {
	res.Latest = rel.Version
	res.ReleaseDate = rel.ReleaseDate

	newer := CompareVersions(g.current, rel.Version)
	needs := newer
	if g.platform == PlatformIOS && newer {
		res.InGracePeriod = withinWindow(rel.ReleaseDate, g.clock.Now(), g.grace)
		needs = !res.InGracePeriod
	}

	res.NeedsUpdate = needs
	if needs {
		res.Status = StatusNeedsUpdate
	} else {
		res.Status = StatusUpToDate
	}

	g.log.Info().
		Str("current", g.current).
		Str("latest", rel.Version).
		Bool("newer", newer).
		Bool("in_grace_period", res.InGracePeriod).
		Bool("needs_update", needs).
		Int("attempts", res.Attempts).
		Msg("Update check settled")
	return res
}
