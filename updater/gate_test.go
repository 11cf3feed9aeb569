package updater

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// scriptedStore replays one response per call; once exhausted it repeats the
// last one.
type scriptedStore struct {
	mu        sync.Mutex
	responses []*StoreRelease
	calls     int
	panicOn   int
}

func (s *scriptedStore) LatestRelease(ctx context.Context, bundleID string) *StoreRelease {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.panicOn == s.calls {
		panic("boom")
	}
	if len(s.responses) == 0 {
		return nil
	}
	i := s.calls - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i]
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestGate(t *testing.T, platform Platform, store Store, rec *sleepRecorder) *Gate {
	t.Helper()
	g, err := NewGate(GateOptions{
		Platform:       platform,
		BundleID:       "com.example.app",
		CurrentVersion: "1.0.0",
		Store:          store,
		Clock:          fixedClock{now: testNow},
		Sleep:          rec.sleep,
	})
	require.NoError(t, err)
	return g
}

func TestGateIOSNeedsUpdate(t *testing.T) {
	store := &scriptedStore{responses: []*StoreRelease{
		{Version: "2.0.0", ReleaseDate: testNow.Add(-25 * time.Hour).Format(time.RFC3339)},
	}}
	rec := &sleepRecorder{}

	res, err := newTestGate(t, PlatformIOS, store, rec).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.NeedsUpdate)
	assert.Equal(t, StatusNeedsUpdate, res.Status)
	assert.Equal(t, "2.0.0", res.Latest)
	assert.False(t, res.InGracePeriod)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, []time.Duration{DefaultInitialDelay}, rec.waits)
}

func TestGateIOSGracePeriodSuppresses(t *testing.T) {
	store := &scriptedStore{responses: []*StoreRelease{
		{Version: "2.0.0", ReleaseDate: testNow.Add(-time.Hour).Format(time.RFC3339)},
	}}

	res, err := newTestGate(t, PlatformIOS, store, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.NeedsUpdate)
	assert.True(t, res.InGracePeriod)
	assert.Equal(t, StatusUpToDate, res.Status)
}

func TestGateIOSMissingReleaseDate(t *testing.T) {
	store := &scriptedStore{responses: []*StoreRelease{{Version: "2.0.0"}}}

	res, err := newTestGate(t, PlatformIOS, store, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NeedsUpdate)
}

func TestGateAndroidIgnoresGracePeriod(t *testing.T) {
	// A fresh release date must not matter on Android.
	store := &scriptedStore{responses: []*StoreRelease{
		{Version: "2.0.0", ReleaseDate: testNow.Add(-time.Minute).Format(time.RFC3339)},
	}}

	res, err := newTestGate(t, PlatformAndroid, store, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NeedsUpdate)
	assert.False(t, res.InGracePeriod)
}

func TestGateSameVersionUpToDate(t *testing.T) {
	store := &scriptedStore{responses: []*StoreRelease{{Version: "1.0.0"}}}

	res, err := newTestGate(t, PlatformAndroid, store, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.NeedsUpdate)
	assert.Equal(t, StatusUpToDate, res.Status)
	assert.False(t, res.Exhausted)
}

func TestGateExhaustsRetries(t *testing.T) {
	store := &scriptedStore{}
	rec := &sleepRecorder{}

	res, err := newTestGate(t, PlatformIOS, store, rec).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.NeedsUpdate)
	assert.True(t, res.Exhausted)
	assert.Equal(t, StatusUpToDate, res.Status)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond, 2000 * time.Millisecond}, rec.waits)
}

func TestGateRecoversAfterFailure(t *testing.T) {
	store := &scriptedStore{responses: []*StoreRelease{nil, {Version: "1.5.0"}}}
	rec := &sleepRecorder{}

	res, err := newTestGate(t, PlatformAndroid, store, rec).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NeedsUpdate)
	assert.Equal(t, 2, res.Attempts)
	assert.Len(t, rec.waits, 2)
}

func TestGatePanicCountsAsFailedAttempt(t *testing.T) {
	store := &scriptedStore{panicOn: 1, responses: []*StoreRelease{nil, {Version: "3.0.0"}}}

	res, err := newTestGate(t, PlatformAndroid, store, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NeedsUpdate)
	assert.Equal(t, 2, res.Attempts)
}

func TestGateUnparseableStoreVersion(t *testing.T) {
	store := &scriptedStore{responses: []*StoreRelease{{Version: "latest"}}}

	res, err := newTestGate(t, PlatformAndroid, store, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.NeedsUpdate)
}

func TestGateCancelledDuringInitialDelay(t *testing.T) {
	store := &scriptedStore{responses: []*StoreRelease{{Version: "2.0.0"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestGate(t, PlatformIOS, store, &sleepRecorder{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusChecking, res.Status)
	assert.Equal(t, 0, store.calls)
}

func TestGateCancelledDuringRetryDelay(t *testing.T) {
	store := &scriptedStore{}
	ctx, cancel := context.WithCancel(context.Background())

	waits := 0
	g, err := NewGate(GateOptions{
		Platform: PlatformAndroid,
		Store:    store,
		Sleep: func(ctx context.Context, d time.Duration) error {
			waits++
			if waits == 2 {
				cancel()
			}
			return ctx.Err()
		},
	})
	require.NoError(t, err)

	_, err = g.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, store.calls)
}

func TestNewGateValidation(t *testing.T) {
	_, err := NewGate(GateOptions{Platform: "web", Store: &scriptedStore{}})
	assert.True(t, errors.Is(err, ErrUnknownPlatform))

	_, err = NewGate(GateOptions{Platform: PlatformIOS})
	assert.Error(t, err)
}

func TestNewGateNegativeMeansNone(t *testing.T) {
	store := &scriptedStore{}
	rec := &sleepRecorder{}
	g, err := NewGate(GateOptions{
		Platform:     PlatformIOS,
		Store:        store,
		InitialDelay: -1,
		MaxRetries:   -1,
		Sleep:        rec.sleep,
	})
	require.NoError(t, err)

	res, err := g.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Exhausted)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, []time.Duration{0}, rec.waits)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
